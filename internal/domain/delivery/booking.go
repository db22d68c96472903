package delivery

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/google/uuid"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for a confirmed delivery order. It references
// the quote it was priced from and carries the estimated route and price as
// an immutable snapshot.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	userID        uuid.UUID
	quoteID       uuid.UUID
	status        BookingStatus

	pointA       string
	pointB       string
	serviceLevel ServiceLevel
	weightKg     float64
	product      ProductType
	remarks      string

	estimatedDistanceKm  float64
	estimatedDurationMin int
	estimatedPrice       float64
	breakdown            PriceBreakdown
	usedFallback         bool

	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "DL-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "DL-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending from an
// accepted quote.
func NewBooking(userID uuid.UUID, quote *Quote, remarks string) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, apperr.Validation("user ID is required")
	}
	if quote == nil {
		return nil, apperr.Validation("a quote is required to create a booking")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:                   uuid.New(),
		bookingNumber:        bookingNumber,
		userID:               userID,
		quoteID:              quote.ID,
		status:               StatusPending,
		pointA:               quote.PointA,
		pointB:               quote.PointB,
		serviceLevel:         quote.ServiceLevel,
		weightKg:             quote.WeightKg,
		product:              quote.Product,
		remarks:              remarks,
		estimatedDistanceKm:  quote.DistanceKm,
		estimatedDurationMin: quote.DurationMin,
		estimatedPrice:       quote.PriceTotal,
		breakdown:            quote.Breakdown,
		usedFallback:         quote.UsedFallback,
		createdAt:            now,
		updatedAt:            now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	userID uuid.UUID,
	quoteID uuid.UUID,
	status BookingStatus,
	pointA, pointB string,
	serviceLevel ServiceLevel,
	weightKg float64,
	product ProductType,
	remarks string,
	estimatedDistanceKm float64,
	estimatedDurationMin int,
	estimatedPrice float64,
	breakdown PriceBreakdown,
	usedFallback bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                   id,
		bookingNumber:        bookingNumber,
		userID:               userID,
		quoteID:              quoteID,
		status:               status,
		pointA:               pointA,
		pointB:               pointB,
		serviceLevel:         serviceLevel,
		weightKg:             weightKg,
		product:              product,
		remarks:              remarks,
		estimatedDistanceKm:  estimatedDistanceKm,
		estimatedDurationMin: estimatedDurationMin,
		estimatedPrice:       estimatedPrice,
		breakdown:            breakdown,
		usedFallback:         usedFallback,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// UserID returns the booking owner's user ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// QuoteID returns the ID of the quote this booking was priced from.
func (b *Booking) QuoteID() uuid.UUID { return b.quoteID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PointA returns the pickup address.
func (b *Booking) PointA() string { return b.pointA }

// PointB returns the dropoff address.
func (b *Booking) PointB() string { return b.pointB }

// ServiceLevel returns the chosen service level.
func (b *Booking) ServiceLevel() ServiceLevel { return b.serviceLevel }

// WeightKg returns the declared cargo weight.
func (b *Booking) WeightKg() float64 { return b.weightKg }

// Product returns the cargo product type.
func (b *Booking) Product() ProductType { return b.product }

// Remarks returns the customer's free-text remarks.
func (b *Booking) Remarks() string { return b.remarks }

// EstimatedDistanceKm returns the estimated route distance in kilometers.
func (b *Booking) EstimatedDistanceKm() float64 { return b.estimatedDistanceKm }

// EstimatedDurationMin returns the estimated route duration in whole minutes.
func (b *Booking) EstimatedDurationMin() int { return b.estimatedDurationMin }

// EstimatedPrice returns the estimated total price.
func (b *Booking) EstimatedPrice() float64 { return b.estimatedPrice }

// Breakdown returns the itemized price breakdown.
func (b *Booking) Breakdown() PriceBreakdown { return b.breakdown }

// UsedFallback reports whether the route estimate came from the great-circle fallback.
func (b *Booking) UsedFallback() bool { return b.usedFallback }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return apperr.Newf(apperr.KindConflict, "cannot transition booking from %s to %s", b.status, StatusConfirmed)
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// StartTransit transitions the booking from confirmed to in_transit.
func (b *Booking) StartTransit() error {
	if !b.status.CanTransitionTo(StatusInTransit) {
		return apperr.Newf(apperr.KindConflict, "cannot transition booking from %s to %s", b.status, StatusInTransit)
	}
	b.status = StatusInTransit
	b.updatedAt = time.Now().UTC()
	return nil
}

// MarkDelivered transitions the booking from in_transit to delivered.
func (b *Booking) MarkDelivered() error {
	if !b.status.CanTransitionTo(StatusDelivered) {
		return apperr.Newf(apperr.KindConflict, "cannot transition booking from %s to %s", b.status, StatusDelivered)
	}
	b.status = StatusDelivered
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to cancelled if it is not in transit or done.
func (b *Booking) Cancel() error {
	if !b.status.CanBeCancelled() {
		return apperr.Newf(apperr.KindConflict, "cannot cancel booking in status %s", b.status)
	}
	b.status = StatusCancelled
	b.updatedAt = time.Now().UTC()
	return nil
}
