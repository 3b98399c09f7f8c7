package usecase

import (
	"math"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// CalculateCost считает стоимость перевозки по участкам маршрута, контейнеру и тарифу.
// Функция ничего не изменяет и при одинаковых входных данных дает одинаковый результат.
// Участки должны быть упорядочены по порядку выполнения
func CalculateCost(requestID uint, segments []entity.Segment, container entity.Container, tariff entity.Tariff) entity.CostBreakdown {
	breakdown := entity.CostBreakdown{
		RequestID: requestID,
		WeightKg:  container.WeightKg,
		VolumeM3:  container.VolumeM3,
	}

	for _, s := range segments {
		if s.DistanceKm != nil {
			breakdown.TotalDistanceKm += *s.DistanceKm
		}
	}

	breakdown.TransitCost, breakdown.UsedActualCosts, breakdown.InsufficientData = transitCost(segments)
	breakdown.WeightVolumeCost = (container.WeightKg/1000)*tariff.CostPerTon + container.VolumeM3*tariff.CostPerM3
	breakdown.DwellDays = dwellDays(segments)
	breakdown.DwellCost = breakdown.DwellDays * tariff.CostPerDwellDay
	breakdown.TotalCost = breakdown.TransitCost + breakdown.WeightVolumeCost + breakdown.DwellCost

	return breakdown
}

// transitCost фактическая стоимость, если она есть у всех участков, иначе плановая.
// Если нет ни того ни другого, стоимость 0 и выставляется флаг нехватки данных
func transitCost(segments []entity.Segment) (cost float64, actual bool, insufficient bool) {
	if len(segments) == 0 {
		return 0, false, true
	}

	allActual, allEstimated := true, true
	var sumActual, sumEstimated float64
	for _, s := range segments {
		if s.ActualCost == nil {
			allActual = false
		} else {
			sumActual += *s.ActualCost
		}
		if s.EstimatedCost == nil {
			allEstimated = false
		} else {
			sumEstimated += *s.EstimatedCost
		}
	}

	switch {
	case allActual:
		return sumActual, true, false
	case allEstimated:
		return sumEstimated, false, false
	default:
		return 0, false, true
	}
}

// dwellDays суммарное время простоя на складах между соседними участками.
// Пара учитывается, если первый участок приходит на склад, второй уходит со склада
// и известны время прибытия и время отправления. Время считается в целых часах
func dwellDays(segments []entity.Segment) float64 {
	var days float64
	for i := 0; i+1 < len(segments); i++ {
		arrival, departure := segments[i], segments[i+1]
		if !arrival.Type.ArrivesAtWarehouse() || !departure.Type.DepartsFromWarehouse() {
			continue
		}
		if arrival.FinishedAt == nil || departure.StartedAt == nil {
			continue
		}

		hours := math.Trunc(departure.StartedAt.Sub(*arrival.FinishedAt).Hours())
		if hours <= 0 {
			continue
		}
		days += hours / 24
	}
	return days
}
