package entity

import (
	"time"
)

// Route маршрут перевозки. Участки хранятся отдельно и ссылаются на маршрут по RouteID
type Route struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	TotalDistanceKm    *float64  `json:"total_distance_km"`
	EstimatedTimeHours *float64  `json:"estimated_time_hours"`
	EstimatedCost      *float64  `json:"estimated_cost"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Route) TableName() string {
	return "routes"
}

// RouteDetails маршрут вместе с участками в порядке выполнения
type RouteDetails struct {
	Route
	Segments  []Segment `json:"segments"`
	RequestID *uint     `json:"request_id,omitempty"`
}

// RouteProgress ход выполнения маршрута
type RouteProgress struct {
	RouteID         uint    `json:"route_id"`
	Total           int     `json:"total"`
	Finished        int     `json:"finished"`
	Started         int     `json:"started"`
	PercentComplete float64 `json:"percent_complete"`
}

// CreateRouteRequest создание маршрута из упорядоченного списка участков
type CreateRouteRequest struct {
	Segments []SegmentInput `json:"segments" binding:"required,dive"`
}

// RouteValidation результат проверки связности маршрута
type RouteValidation struct {
	RouteID uint     `json:"route_id"`
	Valid   bool     `json:"valid"`
	Issues  []string `json:"issues,omitempty"`
}

// ValidateSegmentChain проверяет, что маршрут начинается у отправителя и заканчивается у получателя
func ValidateSegmentChain(types []SegmentType) []string {
	var issues []string
	if len(types) == 0 {
		return append(issues, "маршрут не содержит участков")
	}

	if len(types) == 1 {
		if types[0] != SegmentTypeOriginDestination {
			issues = append(issues, "единственный участок должен быть типа ORIGIN_DESTINATION")
		}
		return issues
	}

	if !types[0].StartsAtOrigin() {
		issues = append(issues, "первый участок должен начинаться у отправителя")
	}
	if !types[len(types)-1].EndsAtDestination() {
		issues = append(issues, "последний участок должен заканчиваться у получателя")
	}
	return issues
}
