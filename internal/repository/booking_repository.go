package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/atlas-express/service-delivery/internal/domain/delivery"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingNumber         string    `gorm:"uniqueIndex;not null;size:20"`
	UserID                uuid.UUID `gorm:"type:uuid;index;not null"`
	QuoteID               uuid.UUID `gorm:"type:uuid;index;not null"`
	Status                string    `gorm:"not null;size:30;index"`
	PointA                string    `gorm:"not null;size:500"`
	PointB                string    `gorm:"not null;size:500"`
	ServiceLevel          string    `gorm:"not null;size:20"`
	Weight                float64   `gorm:"not null"`
	ProductType           string    `gorm:"not null;size:30"`
	Remarks               string    `gorm:"size:1000"`
	EstimatedDistance     float64   `gorm:"not null"`
	EstimatedDuration     int       `gorm:"not null"`
	EstimatedPrice        float64   `gorm:"not null"`
	PriceBase             float64   `gorm:"not null"`
	PricePerKm            float64   `gorm:"not null"`
	PricePerMin           float64   `gorm:"not null"`
	Multiplier            float64   `gorm:"not null"`
	WeightCharge          float64   `gorm:"not null"`
	ProductTypeMultiplier float64   `gorm:"not null"`
	UsedFallback          bool      `gorm:"not null;default:false"`
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, booking *delivery.Booking) error {
	model := toBookingModel(booking)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "booking %s not found", id)
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// --- Conversion Helpers ---

func toBookingModel(b *delivery.Booking) *BookingModel {
	breakdown := b.Breakdown()
	return &BookingModel{
		ID:                    b.ID(),
		BookingNumber:         b.BookingNumber(),
		UserID:                b.UserID(),
		QuoteID:               b.QuoteID(),
		Status:                b.Status().String(),
		PointA:                b.PointA(),
		PointB:                b.PointB(),
		ServiceLevel:          b.ServiceLevel().String(),
		Weight:                b.WeightKg(),
		ProductType:           b.Product().String(),
		Remarks:               b.Remarks(),
		EstimatedDistance:     b.EstimatedDistanceKm(),
		EstimatedDuration:     b.EstimatedDurationMin(),
		EstimatedPrice:        b.EstimatedPrice(),
		PriceBase:             breakdown.Base,
		PricePerKm:            breakdown.PerKm,
		PricePerMin:           breakdown.PerMin,
		Multiplier:            breakdown.Multiplier,
		WeightCharge:          breakdown.WeightCharge,
		ProductTypeMultiplier: breakdown.ProductTypeMultiplier,
		UsedFallback:          b.UsedFallback(),
		CreatedAt:             b.CreatedAt(),
		UpdatedAt:             b.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*delivery.Booking, error) {
	status, err := delivery.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return delivery.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.UserID,
		m.QuoteID,
		status,
		m.PointA,
		m.PointB,
		delivery.ServiceLevel(m.ServiceLevel),
		m.Weight,
		delivery.ProductType(m.ProductType),
		m.Remarks,
		m.EstimatedDistance,
		m.EstimatedDuration,
		m.EstimatedPrice,
		delivery.PriceBreakdown{
			Base:                  m.PriceBase,
			PerKm:                 m.PricePerKm,
			PerMin:                m.PricePerMin,
			Multiplier:            m.Multiplier,
			WeightCharge:          m.WeightCharge,
			ProductTypeMultiplier: m.ProductTypeMultiplier,
		},
		m.UsedFallback,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
