package delivery

import (
	"math"
	"time"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/google/uuid"
)

// Quote is a persisted price estimate for a delivery between two addresses.
// It is created once per quoting attempt and never mutated.
type Quote struct {
	ID           uuid.UUID
	UserID       *uuid.UUID
	PointA       string
	PointB       string
	ServiceLevel ServiceLevel
	WeightKg     float64
	Product      ProductType
	DistanceKm   float64
	DurationMin  int
	PriceTotal   float64
	Breakdown    PriceBreakdown
	UsedFallback bool
	CreatedAt    time.Time
}

// NewQuote snapshots the inputs and the computed route/pricing into a quote.
// Distance and price are rounded to 2 decimals, duration to whole minutes;
// the raw distanceKm/durationMin arguments carry full precision.
func NewQuote(
	userID *uuid.UUID,
	pointA, pointB string,
	level ServiceLevel,
	weightKg float64,
	product ProductType,
	distanceKm, durationMin float64,
	usedFallback bool,
	pricing PricingResult,
) (*Quote, error) {
	if pointA == "" {
		return nil, apperr.Validation("pickup address is required")
	}
	if pointB == "" {
		return nil, apperr.Validation("dropoff address is required")
	}
	if distanceKm < 0 || durationMin < 0 {
		return nil, apperr.Validation("route distance and duration must be non-negative")
	}

	return &Quote{
		ID:           uuid.New(),
		UserID:       userID,
		PointA:       pointA,
		PointB:       pointB,
		ServiceLevel: level,
		WeightKg:     NormalizeWeight(weightKg),
		Product:      product,
		DistanceKm:   RoundMoney(distanceKm),
		DurationMin:  int(math.Round(durationMin)),
		PriceTotal:   RoundMoney(pricing.Total),
		Breakdown:    pricing.Breakdown,
		UsedFallback: usedFallback,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
