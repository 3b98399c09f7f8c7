package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

func timeAt(t time.Time) *time.Time { return &t }

func TestCalculateCostWeightVolume(t *testing.T) {
	container := entity.Container{WeightKg: 1000, VolumeM3: 2}
	tariff := entity.Tariff{CostPerTon: 1000, CostPerM3: 500}

	breakdown := CalculateCost(1, []entity.Segment{{Type: entity.SegmentTypeOriginDestination, EstimatedCost: ptr(0)}}, container, tariff)

	assert.Equal(t, 2000.0, breakdown.WeightVolumeCost)
	assert.Equal(t, 2000.0, breakdown.TotalCost)
}

func TestCalculateCostDwell(t *testing.T) {
	arrival := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	segments := []entity.Segment{
		{Type: entity.SegmentTypeOriginWarehouse, EstimatedCost: ptr(100), FinishedAt: timeAt(arrival)},
		{Type: entity.SegmentTypeWarehouseDestination, EstimatedCost: ptr(200), StartedAt: timeAt(arrival.Add(48 * time.Hour))},
	}

	breakdown := CalculateCost(1, segments, entity.Container{}, entity.Tariff{CostPerDwellDay: 2000})

	assert.Equal(t, 2.0, breakdown.DwellDays)
	assert.Equal(t, 4000.0, breakdown.DwellCost)
	assert.Equal(t, 300.0, breakdown.TransitCost)
	assert.Equal(t, 4300.0, breakdown.TotalCost)
}

func TestCalculateCostDwellUsesWholeHours(t *testing.T) {
	arrival := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	segments := []entity.Segment{
		{Type: entity.SegmentTypeOriginWarehouse, FinishedAt: timeAt(arrival)},
		{Type: entity.SegmentTypeWarehouseWarehouse, StartedAt: timeAt(arrival.Add(12*time.Hour + 59*time.Minute)), FinishedAt: timeAt(arrival.Add(20 * time.Hour))},
		{Type: entity.SegmentTypeWarehouseDestination, StartedAt: timeAt(arrival.Add(19 * time.Hour))},
	}

	breakdown := CalculateCost(1, segments, entity.Container{}, entity.Tariff{CostPerDwellDay: 2400})

	// 12 целых часов, отрицательный интервал второй пары пропускается
	assert.Equal(t, 0.5, breakdown.DwellDays)
	assert.Equal(t, 1200.0, breakdown.DwellCost)
}

func TestCalculateCostDwellNeverNegative(t *testing.T) {
	arrival := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	segments := []entity.Segment{
		{Type: entity.SegmentTypeOriginWarehouse, EstimatedCost: ptr(100), FinishedAt: timeAt(arrival)},
		{Type: entity.SegmentTypeWarehouseDestination, EstimatedCost: ptr(200), StartedAt: timeAt(arrival.Add(-36 * time.Hour))},
	}

	breakdown := CalculateCost(1, segments, entity.Container{}, entity.Tariff{CostPerDwellDay: 2000})

	assert.Zero(t, breakdown.DwellDays)
	assert.Zero(t, breakdown.DwellCost)
	assert.Equal(t, 300.0, breakdown.TotalCost)
}

func TestCalculateCostNoDwellWithoutPairing(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		segments []entity.Segment
	}{
		{
			name: "прямой участок",
			segments: []entity.Segment{
				{Type: entity.SegmentTypeOriginDestination, StartedAt: timeAt(start), FinishedAt: timeAt(start.Add(10 * time.Hour))},
			},
		},
		{
			name: "первый участок не приходит на склад",
			segments: []entity.Segment{
				{Type: entity.SegmentTypeOriginDestination, FinishedAt: timeAt(start)},
				{Type: entity.SegmentTypeWarehouseDestination, StartedAt: timeAt(start.Add(72 * time.Hour))},
			},
		},
		{
			name: "второй участок не уходит со склада",
			segments: []entity.Segment{
				{Type: entity.SegmentTypeOriginWarehouse, FinishedAt: timeAt(start)},
				{Type: entity.SegmentTypeDestinationOrigin, StartedAt: timeAt(start.Add(72 * time.Hour))},
			},
		},
		{
			name: "нет времени отправления",
			segments: []entity.Segment{
				{Type: entity.SegmentTypeOriginWarehouse, FinishedAt: timeAt(start)},
				{Type: entity.SegmentTypeWarehouseDestination},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown := CalculateCost(1, tt.segments, entity.Container{}, entity.DefaultTariff())
			assert.Zero(t, breakdown.DwellDays)
			assert.Zero(t, breakdown.DwellCost)
		})
	}
}

func TestCalculateCostTransit(t *testing.T) {
	tests := []struct {
		name         string
		segments     []entity.Segment
		transit      float64
		actual       bool
		insufficient bool
	}{
		{
			name:     "все фактические",
			segments: []entity.Segment{{EstimatedCost: ptr(100), ActualCost: ptr(120)}, {ActualCost: ptr(80)}},
			transit:  200,
			actual:   true,
		},
		{
			name:     "фактические не у всех",
			segments: []entity.Segment{{EstimatedCost: ptr(100), ActualCost: ptr(120)}, {EstimatedCost: ptr(90)}},
			transit:  190,
		},
		{
			name:         "нет ни фактических, ни плановых",
			segments:     []entity.Segment{{EstimatedCost: ptr(100)}, {ActualCost: ptr(90)}},
			transit:      0,
			insufficient: true,
		},
		{
			name:         "нет участков",
			transit:      0,
			insufficient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown := CalculateCost(1, tt.segments, entity.Container{}, entity.Tariff{})
			assert.Equal(t, tt.transit, breakdown.TransitCost)
			assert.Equal(t, tt.actual, breakdown.UsedActualCosts)
			assert.Equal(t, tt.insufficient, breakdown.InsufficientData)
		})
	}
}

func TestCalculateCostIsIdempotent(t *testing.T) {
	arrival := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	segments := []entity.Segment{
		{Type: entity.SegmentTypeOriginWarehouse, DistanceKm: ptr(150), EstimatedCost: ptr(7500), FinishedAt: timeAt(arrival)},
		{Type: entity.SegmentTypeWarehouseDestination, DistanceKm: ptr(250), EstimatedCost: ptr(12500), StartedAt: timeAt(arrival.Add(30 * time.Hour))},
	}
	container := entity.Container{WeightKg: 1500, VolumeM3: 3}

	first := CalculateCost(9, segments, container, entity.DefaultTariff())
	second := CalculateCost(9, segments, container, entity.DefaultTariff())

	assert.Equal(t, first, second)
	assert.Equal(t, 400.0, first.TotalDistanceKm)
	assert.Equal(t, uint(9), first.RequestID)
}
