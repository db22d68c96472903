package delivery

import (
	"math"
	"time"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/google/uuid"
)

// BookingRequest is an unauthenticated delivery request submitted through the
// public form. It carries its own quote snapshot instead of referencing a
// separate quote record.
type BookingRequest struct {
	ID           uuid.UUID
	PointA       string
	PointB       string
	ServiceLevel ServiceLevel
	WeightKg     float64
	Product      ProductType
	Remarks      string
	DistanceKm   float64
	DurationMin  int
	PriceTotal   float64
	Breakdown    PriceBreakdown
	CreatedAt    time.Time
}

// NewBookingRequest snapshots the request inputs and the computed route and
// pricing, with the same rounding rules as quotes.
func NewBookingRequest(
	pointA, pointB string,
	level ServiceLevel,
	weightKg float64,
	product ProductType,
	remarks string,
	distanceKm, durationMin float64,
	pricing PricingResult,
) (*BookingRequest, error) {
	if pointA == "" {
		return nil, apperr.Validation("pickup address is required")
	}
	if pointB == "" {
		return nil, apperr.Validation("dropoff address is required")
	}

	return &BookingRequest{
		ID:           uuid.New(),
		PointA:       pointA,
		PointB:       pointB,
		ServiceLevel: level,
		WeightKg:     NormalizeWeight(weightKg),
		Product:      product,
		Remarks:      remarks,
		DistanceKm:   RoundMoney(distanceKm),
		DurationMin:  int(math.Round(durationMin)),
		PriceTotal:   RoundMoney(pricing.Total),
		Breakdown:    pricing.Breakdown,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
