package entity

// Tariff ставки для расчета стоимости перевозки
type Tariff struct {
	CostPerKm       float64 `json:"cost_per_km"`
	CostPerTon      float64 `json:"cost_per_ton"`
	CostPerM3       float64 `json:"cost_per_m3"`
	CostPerDwellDay float64 `json:"cost_per_dwell_day"`
}

// DefaultTariff ставки, действующие без внешнего сервиса тарифов
func DefaultTariff() Tariff {
	return Tariff{
		CostPerKm:       50,
		CostPerTon:      1000,
		CostPerM3:       500,
		CostPerDwellDay: 2000,
	}
}
