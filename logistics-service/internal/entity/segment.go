package entity

import (
	"time"
)

// SegmentType тип участка маршрута
type SegmentType string

const (
	SegmentTypeOriginDestination    SegmentType = "ORIGIN_DESTINATION"    // Напрямую от отправителя к получателю
	SegmentTypeOriginWarehouse      SegmentType = "ORIGIN_WAREHOUSE"      // От отправителя до склада
	SegmentTypeWarehouseWarehouse   SegmentType = "WAREHOUSE_WAREHOUSE"   // Между складами
	SegmentTypeWarehouseDestination SegmentType = "WAREHOUSE_DESTINATION" // Со склада до получателя
	SegmentTypeDestinationOrigin    SegmentType = "DESTINATION_ORIGIN"    // Возврат
)

func (t SegmentType) IsValid() bool {
	switch t {
	case SegmentTypeOriginDestination, SegmentTypeOriginWarehouse, SegmentTypeWarehouseWarehouse,
		SegmentTypeWarehouseDestination, SegmentTypeDestinationOrigin:
		return true
	}
	return false
}

// ArrivesAtWarehouse участок заканчивается на складе
func (t SegmentType) ArrivesAtWarehouse() bool {
	return t == SegmentTypeOriginWarehouse || t == SegmentTypeWarehouseWarehouse
}

// DepartsFromWarehouse участок начинается на складе
func (t SegmentType) DepartsFromWarehouse() bool {
	return t == SegmentTypeWarehouseWarehouse || t == SegmentTypeWarehouseDestination
}

func (t SegmentType) StartsAtOrigin() bool {
	return t == SegmentTypeOriginDestination || t == SegmentTypeOriginWarehouse
}

func (t SegmentType) EndsAtDestination() bool {
	return t == SegmentTypeOriginDestination || t == SegmentTypeWarehouseDestination
}

// SegmentStatus состояние участка
type SegmentStatus string

const (
	SegmentStatusEstimated SegmentStatus = "ESTIMATED" // Рассчитан
	SegmentStatusAssigned  SegmentStatus = "ASSIGNED"  // Назначен грузовик
	SegmentStatusStarted   SegmentStatus = "STARTED"   // Начат
	SegmentStatusFinished  SegmentStatus = "FINISHED"  // Завершен
)

func (s SegmentStatus) IsValid() bool {
	_, ok := segmentTransitions[s]
	return ok
}

// SegmentAction действие над участком
type SegmentAction string

const (
	SegmentActionAssignTruck   SegmentAction = "assign_truck"
	SegmentActionStart         SegmentAction = "start"
	SegmentActionFinish        SegmentAction = "finish"
	SegmentActionSetActualCost SegmentAction = "set_actual_cost"
	SegmentActionUpdate        SegmentAction = "update"
	SegmentActionDelete        SegmentAction = "delete"
)

// segmentTransitions таблица (состояние, действие) -> новое состояние
var segmentTransitions = map[SegmentStatus]map[SegmentAction]SegmentStatus{
	SegmentStatusEstimated: {
		SegmentActionAssignTruck: SegmentStatusAssigned,
		SegmentActionUpdate:      SegmentStatusEstimated,
		SegmentActionDelete:      SegmentStatusEstimated,
	},
	SegmentStatusAssigned: {
		SegmentActionStart: SegmentStatusStarted,
	},
	SegmentStatusStarted: {
		SegmentActionFinish: SegmentStatusFinished,
	},
	SegmentStatusFinished: {
		SegmentActionSetActualCost: SegmentStatusFinished,
	},
}

// NextSegmentStatus возвращает состояние после действия или false, если действие недопустимо
func NextSegmentStatus(current SegmentStatus, action SegmentAction) (SegmentStatus, bool) {
	next, ok := segmentTransitions[current][action]
	return next, ok
}

// Segment участок маршрута, выполняемый одним грузовиком
type Segment struct {
	ID                 uint          `json:"id" gorm:"primaryKey"`
	RouteID            uint          `json:"route_id" gorm:"not null;index;uniqueIndex:idx_segment_route_position"`
	Position           int           `json:"position" gorm:"not null;uniqueIndex:idx_segment_route_position"`
	Origin             string        `json:"origin" gorm:"not null"`
	Destination        string        `json:"destination" gorm:"not null"`
	Type               SegmentType   `json:"type" gorm:"not null"`
	Status             SegmentStatus `json:"status" gorm:"not null;default:'ESTIMATED';index"`
	DistanceKm         *float64      `json:"distance_km"`
	EstimatedTimeHours *float64      `json:"estimated_time_hours"`
	EstimatedCost      *float64      `json:"estimated_cost"`
	ActualCost         *float64      `json:"actual_cost"`
	TruckID            *uint         `json:"truck_id" gorm:"index"`
	StartedAt          *time.Time    `json:"started_at"`
	FinishedAt         *time.Time    `json:"finished_at"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (Segment) TableName() string {
	return "segments"
}

// SegmentInput участок в составе нового маршрута
type SegmentInput struct {
	Origin             string      `json:"origin" binding:"required"`
	Destination        string      `json:"destination" binding:"required"`
	Type               SegmentType `json:"type" binding:"required"`
	DistanceKm         *float64    `json:"distance_km" binding:"omitempty,gte=0"`
	EstimatedTimeHours *float64    `json:"estimated_time_hours" binding:"omitempty,gte=0"`
	EstimatedCost      *float64    `json:"estimated_cost" binding:"omitempty,gte=0"`
}

// UpdateSegmentRequest изменение рассчитанного участка
type UpdateSegmentRequest struct {
	Origin        *string      `json:"origin"`
	Destination   *string      `json:"destination"`
	Type          *SegmentType `json:"type"`
	EstimatedCost *float64     `json:"estimated_cost" binding:"omitempty,gte=0"`
}

type AssignTruckRequest struct {
	TruckID uint `json:"truck_id" binding:"required"`
}

type SetActualCostRequest struct {
	ActualCost *float64 `json:"actual_cost" binding:"required,gte=0"`
}
