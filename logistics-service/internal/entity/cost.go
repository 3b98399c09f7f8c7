package entity

// CostBreakdown детализация стоимости заявки
type CostBreakdown struct {
	RequestID        uint    `json:"request_id"`
	TransitCost      float64 `json:"transit_cost"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	WeightVolumeCost float64 `json:"weight_volume_cost"`
	WeightKg         float64 `json:"weight_kg"`
	VolumeM3         float64 `json:"volume_m3"`
	DwellCost        float64 `json:"dwell_cost"`
	DwellDays        float64 `json:"dwell_days"`
	TotalCost        float64 `json:"total_cost"`
	UsedActualCosts  bool    `json:"used_actual_costs"`
	InsufficientData bool    `json:"insufficient_data"`
}
