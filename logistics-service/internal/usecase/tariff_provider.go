package usecase

import (
	"context"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// StaticTariffProvider отдает ставки из конфигурации сервиса
type StaticTariffProvider struct {
	tariff entity.Tariff
}

func NewStaticTariffProvider(tariff entity.Tariff) *StaticTariffProvider {
	return &StaticTariffProvider{tariff: tariff}
}

func (p *StaticTariffProvider) CurrentTariff(ctx context.Context) (entity.Tariff, error) {
	return p.tariff, nil
}
