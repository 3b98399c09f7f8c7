package usecase

import (
	"context"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// FleetService проверяет грузовик и резервирует его под участок.
// Ошибки: NotFound (нет грузовика), PreconditionFailed (не хватает грузоподъемности или грузовик занят)
type FleetService interface {
	ValidateAndReserve(ctx context.Context, truckID uint, weightKg, volumeM3 float64) error
}

// TariffProvider источник ставок для расчета стоимости
type TariffProvider interface {
	CurrentTariff(ctx context.Context) (entity.Tariff, error)
}

// DistanceResult расстояние и время в пути между двумя точками
type DistanceResult struct {
	DistanceKm    float64
	DurationHours float64
}

// DistanceProvider сервис геолокации. Используется только для первичной оценки участков
type DistanceProvider interface {
	GetDistance(ctx context.Context, origin, destination string) (DistanceResult, error)
}
