package entity

import (
	"time"

	"gorm.io/datatypes"
)

// RequestStatus состояние заявки на перевозку
type RequestStatus string

const (
	RequestStatusDraft     RequestStatus = "DRAFT"      // Черновик, маршрут не назначен
	RequestStatusScheduled RequestStatus = "SCHEDULED"  // Маршрут назначен
	RequestStatusInTransit RequestStatus = "IN_TRANSIT" // Начат хотя бы один участок
	RequestStatusDelivered RequestStatus = "DELIVERED"  // Все участки завершены
)

func (s RequestStatus) IsValid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// IsActive заявка считается активной до доставки
func (s RequestStatus) IsActive() bool {
	return s != RequestStatusDelivered
}

// RequestAction событие жизненного цикла заявки
type RequestAction string

const (
	RequestActionAssignRoute    RequestAction = "assign_route"
	RequestActionSegmentStarted RequestAction = "segment_started"
	RequestActionFinalize       RequestAction = "finalize"
)

// requestTransitions таблица (состояние, действие) -> новое состояние.
// Возврата из IN_TRANSIT в более ранние состояния нет
var requestTransitions = map[RequestStatus]map[RequestAction]RequestStatus{
	RequestStatusDraft: {
		RequestActionAssignRoute: RequestStatusScheduled,
	},
	RequestStatusScheduled: {
		RequestActionSegmentStarted: RequestStatusInTransit,
		RequestActionFinalize:       RequestStatusDelivered,
	},
	RequestStatusInTransit: {
		RequestActionFinalize: RequestStatusDelivered,
	},
	RequestStatusDelivered: {},
}

// NextRequestStatus возвращает состояние после действия или false, если действие недопустимо
func NextRequestStatus(current RequestStatus, action RequestAction) (RequestStatus, bool) {
	next, ok := requestTransitions[current][action]
	return next, ok
}

// Request заявка клиента на перевозку контейнера
type Request struct {
	ID                  uint              `json:"id" gorm:"primaryKey"`
	ClientID            uint              `json:"client_id" gorm:"not null;index"`
	ContainerID         uint              `json:"container_id" gorm:"not null;index;uniqueIndex:idx_request_active_container,where:status <> 'DELIVERED'"`
	RouteID             *uint             `json:"route_id" gorm:"uniqueIndex"`
	OriginAddress       string            `json:"origin_address" gorm:"not null"`
	OriginLat           float64           `json:"origin_lat"`
	OriginLon           float64           `json:"origin_lon"`
	DestinationAddress  string            `json:"destination_address" gorm:"not null"`
	DestinationLat      float64           `json:"destination_lat"`
	DestinationLon      float64           `json:"destination_lon"`
	Status              RequestStatus     `json:"status" gorm:"not null;default:'DRAFT';index"`
	EstimatedCost       *float64          `json:"estimated_cost"`
	EstimatedTimeHours  *float64          `json:"estimated_time_hours"`
	FinalCost           *float64          `json:"final_cost"`
	RealTimeHours       *float64          `json:"real_time_hours"`
	FinalizationDetails datatypes.JSONMap `json:"finalization_details,omitempty" gorm:"type:jsonb"`
	CreatedAt           time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func (Request) TableName() string {
	return "requests"
}

// Location адрес с координатами
type Location struct {
	Address string  `json:"address" binding:"required"`
	Lat     float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lon     float64 `json:"lon" binding:"gte=-180,lte=180"`
}

// CreateRequestRequest запрос на создание заявки
type CreateRequestRequest struct {
	Client      ClientInput    `json:"client" binding:"required"`
	Container   ContainerInput `json:"container" binding:"required"`
	Origin      Location       `json:"origin" binding:"required"`
	Destination Location       `json:"destination" binding:"required"`
}

// AssignRouteRequest привязка маршрута к заявке
type AssignRouteRequest struct {
	RouteID uint `json:"route_id" binding:"required"`
}

// RequestDetails заявка с клиентом и контейнером
type RequestDetails struct {
	Request
	Client    *Client    `json:"client,omitempty"`
	Container *Container `json:"container,omitempty"`
}
