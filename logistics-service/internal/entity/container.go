package entity

import (
	"time"
)

// ContainerStatus состояние контейнера
type ContainerStatus string

const (
	ContainerStatusRegistered     ContainerStatus = "REGISTERED"       // Зарегистрирован
	ContainerStatusReadyForPickup ContainerStatus = "READY_FOR_PICKUP" // Готов к отгрузке
	ContainerStatusInTransit      ContainerStatus = "IN_TRANSIT"       // В пути
	ContainerStatusInWarehouse    ContainerStatus = "IN_WAREHOUSE"     // На складе
	ContainerStatusDelivered      ContainerStatus = "DELIVERED"        // Доставлен
)

// containerTransitions допустимые переходы состояний контейнера
var containerTransitions = map[ContainerStatus][]ContainerStatus{
	ContainerStatusRegistered:     {ContainerStatusReadyForPickup, ContainerStatusInTransit},
	ContainerStatusReadyForPickup: {ContainerStatusInTransit},
	ContainerStatusInTransit:      {ContainerStatusInWarehouse, ContainerStatusDelivered},
	ContainerStatusInWarehouse:    {ContainerStatusInTransit},
	ContainerStatusDelivered:      {},
}

// IsValid проверяет, что значение входит в перечисление
func (s ContainerStatus) IsValid() bool {
	_, ok := containerTransitions[s]
	return ok
}

// CanTransitionTo проверяет допустимость перехода. Переход в то же состояние разрешен
func (s ContainerStatus) CanTransitionTo(next ContainerStatus) bool {
	if s == next {
		return s.IsValid()
	}
	for _, allowed := range containerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Container контейнер клиента
type Container struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	SerialNumber string          `json:"serial_number" gorm:"not null;uniqueIndex"`
	Type         string          `json:"type" gorm:"not null"`
	WeightKg     float64         `json:"weight_kg" gorm:"not null"`
	VolumeM3     float64         `json:"volume_m3" gorm:"not null"`
	Status       ContainerStatus `json:"status" gorm:"not null;default:'REGISTERED';index"`
	ClientID     uint            `json:"client_id" gorm:"not null;index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Container) TableName() string {
	return "containers"
}

// IsEditable контейнер нельзя менять, пока он в пути или уже доставлен
func (c *Container) IsEditable() bool {
	return c.Status != ContainerStatusInTransit && c.Status != ContainerStatusDelivered
}

func (c *Container) IsDeletable() bool {
	return c.Status == ContainerStatusRegistered
}

// ContainerInput данные контейнера при создании заявки
type ContainerInput struct {
	SerialNumber string  `json:"serial_number" binding:"required"`
	Type         string  `json:"type" binding:"required"`
	WeightKg     float64 `json:"weight_kg" binding:"required,gt=0"`
	VolumeM3     float64 `json:"volume_m3" binding:"required,gt=0"`
}

// UpdateContainerRequest запрос на изменение контейнера
type UpdateContainerRequest struct {
	SerialNumber *string  `json:"serial_number"`
	Type         *string  `json:"type"`
	WeightKg     *float64 `json:"weight_kg" binding:"omitempty,gt=0"`
	VolumeM3     *float64 `json:"volume_m3" binding:"omitempty,gt=0"`
}

// ChangeContainerStatusRequest запрос на смену состояния контейнера
type ChangeContainerStatusRequest struct {
	Status ContainerStatus `json:"status" binding:"required"`
}
