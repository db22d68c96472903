package delivery

import "math"

// WeightChargePerKg is the flat charge applied per kilogram of cargo.
const WeightChargePerKg = 0.5

// PriceBreakdown itemizes how a total price was composed.
type PriceBreakdown struct {
	Base                  float64 `json:"base"`
	PerKm                 float64 `json:"per_km"`
	PerMin                float64 `json:"per_min"`
	Multiplier            float64 `json:"multiplier"`
	WeightCharge          float64 `json:"weight_charge"`
	ProductTypeMultiplier float64 `json:"product_type_multiplier"`
}

// PricingResult is the outcome of a price calculation. Total carries full
// floating-point precision; rounding happens at the response/persistence edge.
type PricingResult struct {
	Total     float64
	Breakdown PriceBreakdown
}

// PricingParams holds the inputs for a price calculation.
type PricingParams struct {
	DistanceKm  float64
	DurationMin float64
	Level       ServiceLevel
	WeightKg    float64
	Product     ProductType
}

// PricingEngine defines the interface for calculating delivery prices.
type PricingEngine interface {
	// Quote returns the total price and its breakdown for the given parameters.
	Quote(params PricingParams) PricingResult
}

// StandardPricingEngine implements the tariff-table pricing formula.
type StandardPricingEngine struct{}

// NewStandardPricingEngine creates a new StandardPricingEngine.
func NewStandardPricingEngine() *StandardPricingEngine {
	return &StandardPricingEngine{}
}

// Quote computes the price as
//
//	(base + distance*per_km + duration*per_min + weight*0.5) * multiplier * productMultiplier
//
// Unknown product types contribute the neutral multiplier 1.0; entry points
// that reject unknown types do so before calling the engine.
func (e *StandardPricingEngine) Quote(params PricingParams) PricingResult {
	tariff := params.Level.Tariff()
	weight := NormalizeWeight(params.WeightKg)

	distancePrice := params.DistanceKm * tariff.PerKm
	timePrice := params.DurationMin * tariff.PerMin
	weightCharge := weight * WeightChargePerKg
	productMultiplier := params.Product.Multiplier()

	subtotal := tariff.Base + distancePrice + timePrice + weightCharge
	total := subtotal * tariff.Multiplier * productMultiplier

	return PricingResult{
		Total: total,
		Breakdown: PriceBreakdown{
			Base:                  tariff.Base,
			PerKm:                 tariff.PerKm,
			PerMin:                tariff.PerMin,
			Multiplier:            tariff.Multiplier,
			WeightCharge:          RoundMoney(weightCharge),
			ProductTypeMultiplier: productMultiplier,
		},
	}
}

// NormalizeWeight clamps a user-supplied weight to a finite non-negative value.
func NormalizeWeight(weight float64) float64 {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return 0
	}
	return math.Max(0, weight)
}

// RoundMoney rounds to 2 decimal places, half away from zero.
func RoundMoney(value float64) float64 {
	return math.Round(value*100) / 100
}
