package entity

import (
	"time"
)

// Ключи маршрутизации событий жизненного цикла
const (
	EventRequestScheduled = "request.scheduled"
	EventRequestInTransit = "request.in_transit"
	EventRequestDelivered = "request.delivered"
	EventSegmentAssigned  = "segment.assigned"
	EventSegmentStarted   = "segment.started"
	EventSegmentFinished  = "segment.finished"
)

// Команды трекинга, приходящие от телематики грузовиков
const (
	TrackingSegmentStart  = "tracking.segment.start"
	TrackingSegmentFinish = "tracking.segment.finish"
)

// RequestEvent событие изменения состояния заявки
type RequestEvent struct {
	RequestID     uint          `json:"request_id"`
	ClientID      uint          `json:"client_id"`
	ContainerID   uint          `json:"container_id"`
	RouteID       *uint         `json:"route_id,omitempty"`
	Status        RequestStatus `json:"status"`
	FinalCost     *float64      `json:"final_cost,omitempty"`
	RealTimeHours *float64      `json:"real_time_hours,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// SegmentEvent событие изменения состояния участка
type SegmentEvent struct {
	SegmentID  uint          `json:"segment_id"`
	RouteID    uint          `json:"route_id"`
	TruckID    *uint         `json:"truck_id,omitempty"`
	Status     SegmentStatus `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// TrackingCommand сообщение телематики о начале или завершении участка
type TrackingCommand struct {
	SegmentID uint   `json:"segment_id"`
	TruckID   uint   `json:"truck_id"`
	Action    string `json:"action"`
}
