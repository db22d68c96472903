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

// QuoteModel is the GORM model for the route_quotes table.
type QuoteModel struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID                *uuid.UUID `gorm:"type:uuid;index"`
	PointA                string     `gorm:"not null;size:500"`
	PointB                string     `gorm:"not null;size:500"`
	ServiceLevel          string     `gorm:"not null;size:20"`
	Weight                float64    `gorm:"not null"`
	ProductType           string     `gorm:"not null;size:30"`
	Distance              float64    `gorm:"not null"`
	Duration              int        `gorm:"not null"`
	PriceTotal            float64    `gorm:"not null"`
	PriceBase             float64    `gorm:"not null"`
	PricePerKm            float64    `gorm:"not null"`
	PricePerMin           float64    `gorm:"not null"`
	Multiplier            float64    `gorm:"not null"`
	WeightCharge          float64    `gorm:"not null"`
	ProductTypeMultiplier float64    `gorm:"not null"`
	UsedFallback          bool       `gorm:"not null;default:false"`
	CreatedAt             time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (QuoteModel) TableName() string {
	return "route_quotes"
}

// GormQuoteRepository is the GORM-based implementation of QuoteRepository.
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository.
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// Save persists a new quote.
func (r *GormQuoteRepository) Save(ctx context.Context, quote *delivery.Quote) error {
	model := toQuoteModel(quote)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// FindByID retrieves a quote by its unique identifier.
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Quote, error) {
	var model QuoteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "quote %s not found", id)
		}
		return nil, fmt.Errorf("failed to find quote by ID: %w", err)
	}
	return toDomainQuote(&model), nil
}

// --- Conversion Helpers ---

func toQuoteModel(q *delivery.Quote) *QuoteModel {
	return &QuoteModel{
		ID:                    q.ID,
		UserID:                q.UserID,
		PointA:                q.PointA,
		PointB:                q.PointB,
		ServiceLevel:          q.ServiceLevel.String(),
		Weight:                q.WeightKg,
		ProductType:           q.Product.String(),
		Distance:              q.DistanceKm,
		Duration:              q.DurationMin,
		PriceTotal:            q.PriceTotal,
		PriceBase:             q.Breakdown.Base,
		PricePerKm:            q.Breakdown.PerKm,
		PricePerMin:           q.Breakdown.PerMin,
		Multiplier:            q.Breakdown.Multiplier,
		WeightCharge:          q.Breakdown.WeightCharge,
		ProductTypeMultiplier: q.Breakdown.ProductTypeMultiplier,
		UsedFallback:          q.UsedFallback,
		CreatedAt:             q.CreatedAt,
	}
}

func toDomainQuote(m *QuoteModel) *delivery.Quote {
	return &delivery.Quote{
		ID:           m.ID,
		UserID:       m.UserID,
		PointA:       m.PointA,
		PointB:       m.PointB,
		ServiceLevel: delivery.ServiceLevel(m.ServiceLevel),
		WeightKg:     m.Weight,
		Product:      delivery.ProductType(m.ProductType),
		DistanceKm:   m.Distance,
		DurationMin:  m.Duration,
		PriceTotal:   m.PriceTotal,
		Breakdown: delivery.PriceBreakdown{
			Base:                  m.PriceBase,
			PerKm:                 m.PricePerKm,
			PerMin:                m.PricePerMin,
			Multiplier:            m.Multiplier,
			WeightCharge:          m.WeightCharge,
			ProductTypeMultiplier: m.ProductTypeMultiplier,
		},
		UsedFallback: m.UsedFallback,
		CreatedAt:    m.CreatedAt,
	}
}
