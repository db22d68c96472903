package delivery

import (
	"context"

	"github.com/google/uuid"
)

// QuoteRepository defines the persistence contract for quotes.
type QuoteRepository interface {
	// Save persists a new quote.
	Save(ctx context.Context, quote *Quote) error

	// FindByID retrieves a quote by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
}

// BookingRequestRepository defines the persistence contract for public
// booking requests.
type BookingRequestRepository interface {
	// Save persists a new booking request.
	Save(ctx context.Context, request *BookingRequest) error
}
