package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atlas-express/service-delivery/internal/domain/delivery"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingRequestModel is the GORM model for the booking_requests table.
// The price breakdown is stored as a jsonb document, mirroring how the
// public form consumes it.
type BookingRequestModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PointA         string          `gorm:"not null;size:500"`
	PointB         string          `gorm:"not null;size:500"`
	ServiceLevel   string          `gorm:"not null;size:20"`
	Weight         float64         `gorm:"not null"`
	ProductType    string          `gorm:"not null;size:30"`
	Remarks        string          `gorm:"size:1000"`
	DistanceKm     float64         `gorm:"not null"`
	DurationMin    int             `gorm:"not null"`
	PriceTotal     float64         `gorm:"not null"`
	PriceBreakdown json.RawMessage `gorm:"type:jsonb;not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingRequestModel) TableName() string {
	return "booking_requests"
}

// GormBookingRequestRepository is the GORM-based implementation of
// BookingRequestRepository.
type GormBookingRequestRepository struct {
	db *gorm.DB
}

// NewGormBookingRequestRepository creates a new GormBookingRequestRepository.
func NewGormBookingRequestRepository(db *gorm.DB) *GormBookingRequestRepository {
	return &GormBookingRequestRepository{db: db}
}

// Save persists a new booking request.
func (r *GormBookingRequestRepository) Save(ctx context.Context, request *delivery.BookingRequest) error {
	breakdown, err := json.Marshal(request.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal price breakdown: %w", err)
	}

	model := &BookingRequestModel{
		ID:             request.ID,
		PointA:         request.PointA,
		PointB:         request.PointB,
		ServiceLevel:   request.ServiceLevel.String(),
		Weight:         request.WeightKg,
		ProductType:    request.Product.String(),
		Remarks:        request.Remarks,
		DistanceKm:     request.DistanceKm,
		DurationMin:    request.DurationMin,
		PriceTotal:     request.PriceTotal,
		PriceBreakdown: breakdown,
		CreatedAt:      request.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking request: %w", err)
	}
	return nil
}
