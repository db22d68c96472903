package application

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/atlas-express/service-delivery/internal/domain/delivery"
	"github.com/atlas-express/service-delivery/internal/events"
	"github.com/atlas-express/service-delivery/internal/geo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher publishes lifecycle events. A nil publisher disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, evt events.Envelope) error
}

// QuoteRequest holds the inputs common to all quoting entry points.
type QuoteRequest struct {
	PointA       string  `json:"pointA"`
	PointB       string  `json:"pointB"`
	ServiceLevel string  `json:"serviceLevel"`
	Weight       float64 `json:"weight"`
	ProductType  string  `json:"productType"`
}

// BookingSubmission extends QuoteRequest with booking-only fields.
type BookingSubmission struct {
	QuoteRequest
	Remarks       string `json:"remarks"`
	SaveQuoteOnly bool   `json:"saveQuoteOnly"`
}

// RouteQuoteDTO is the response for an ad-hoc route calculation.
type RouteQuoteDTO struct {
	Distance       float64                 `json:"distance"`
	Duration       int                     `json:"duration"`
	Price          float64                 `json:"price"`
	PriceBreakdown delivery.PriceBreakdown `json:"price_breakdown"`
	ServiceLevel   string                  `json:"service_level"`
	UsedFallback   bool                    `json:"used_fallback"`
}

// QuoteDTO is the response representation of a persisted quote.
type QuoteDTO struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                *uuid.UUID `json:"user_id,omitempty"`
	PointA                string     `json:"point_a"`
	PointB                string     `json:"point_b"`
	ServiceLevel          string     `json:"service_level"`
	Weight                float64    `json:"weight"`
	ProductType           string     `json:"product_type"`
	Distance              float64    `json:"distance"`
	Duration              int        `json:"duration"`
	PriceTotal            float64    `json:"price_total"`
	PriceBase             float64    `json:"price_base"`
	PricePerKm            float64    `json:"price_per_km"`
	PricePerMin           float64    `json:"price_per_min"`
	Multiplier            float64    `json:"multiplier"`
	WeightCharge          float64    `json:"weight_charge"`
	ProductTypeMultiplier float64    `json:"product_type_multiplier"`
	UsedFallback          bool       `json:"used_fallback"`
	CreatedAt             time.Time  `json:"created_at"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                    uuid.UUID               `json:"id"`
	BookingNumber         string                  `json:"booking_number"`
	UserID                uuid.UUID               `json:"user_id"`
	QuoteID               uuid.UUID               `json:"quote_id"`
	Status                string                  `json:"status"`
	PointA                string                  `json:"point_a"`
	PointB                string                  `json:"point_b"`
	ServiceLevel          string                  `json:"service_level"`
	Weight                float64                 `json:"weight"`
	ProductType           string                  `json:"product_type"`
	Remarks               string                  `json:"remarks,omitempty"`
	EstimatedDistance     float64                 `json:"estimated_distance"`
	EstimatedDuration     int                     `json:"estimated_duration"`
	EstimatedPrice        float64                 `json:"estimated_price"`
	PriceBreakdown        delivery.PriceBreakdown `json:"price_breakdown"`
	UsedFallback          bool                    `json:"used_fallback"`
	CreatedAt             time.Time               `json:"created_at"`
}

// BookingRequestDTO is the response representation of a public booking request.
type BookingRequestDTO struct {
	ID             uuid.UUID               `json:"id"`
	PointA         string                  `json:"point_a"`
	PointB         string                  `json:"point_b"`
	ServiceLevel   string                  `json:"service_level"`
	Weight         float64                 `json:"weight"`
	ProductType    string                  `json:"product_type"`
	Remarks        string                  `json:"remarks,omitempty"`
	DistanceKm     float64                 `json:"distance_km"`
	DurationMin    int                     `json:"duration_min"`
	PriceTotal     float64                 `json:"price_total"`
	PriceBreakdown delivery.PriceBreakdown `json:"price_breakdown"`
	CreatedAt      time.Time               `json:"created_at"`
}

// BookingResult is the response of a booking submission: always a quote,
// plus the booking unless only the quote was requested.
type BookingResult struct {
	Quote   QuoteDTO    `json:"quote"`
	Booking *BookingDTO `json:"booking,omitempty"`
}

// BookingRequestResult is the response of a public booking request submission.
type BookingRequestResult struct {
	Message        string            `json:"message"`
	BookingRequest BookingRequestDTO `json:"booking_request"`
	Quote          RouteQuoteDTO     `json:"quote"`
}

// DeliveryService orchestrates geocoding, routing, pricing, and persistence
// for quotes, bookings, and public booking requests.
type DeliveryService struct {
	geocoder  geo.Geocoder
	routes    geo.RouteResolver
	pricing   delivery.PricingEngine
	quotes    delivery.QuoteRepository
	bookings  delivery.BookingRepository
	requests  delivery.BookingRequestRepository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewDeliveryService creates a new DeliveryService. publisher may be nil.
func NewDeliveryService(
	geocoder geo.Geocoder,
	routes geo.RouteResolver,
	pricing delivery.PricingEngine,
	quotes delivery.QuoteRepository,
	bookings delivery.BookingRepository,
	requests delivery.BookingRequestRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		geocoder:  geocoder,
		routes:    routes,
		pricing:   pricing,
		quotes:    quotes,
		bookings:  bookings,
		requests:  requests,
		publisher: publisher,
		logger:    logger,
	}
}

// CalculateRoute resolves both addresses, estimates the route, and prices it.
// Nothing is persisted. Unknown product types are tolerated here and priced
// with the neutral multiplier, matching what the quoting form allows.
func (s *DeliveryService) CalculateRoute(ctx context.Context, req QuoteRequest) (*RouteQuoteDTO, error) {
	pointA, pointB, err := normalizeAddresses(req.PointA, req.PointB)
	if err != nil {
		return nil, err
	}

	level, err := delivery.ParseServiceLevel(req.ServiceLevel)
	if err != nil {
		return nil, err
	}
	product := lenientProductType(req.ProductType)
	weight := delivery.NormalizeWeight(req.Weight)

	route, _, err := s.resolveRoute(ctx, pointA, pointB)
	if err != nil {
		return nil, err
	}

	pricing := s.pricing.Quote(delivery.PricingParams{
		DistanceKm:  route.DistanceKm,
		DurationMin: route.DurationMin,
		Level:       level,
		WeightKg:    weight,
		Product:     product,
	})

	return &RouteQuoteDTO{
		Distance:       delivery.RoundMoney(route.DistanceKm),
		Duration:       int(math.Round(route.DurationMin)),
		Price:          delivery.RoundMoney(pricing.Total),
		PriceBreakdown: pricing.Breakdown,
		ServiceLevel:   level.String(),
		UsedFallback:   route.UsedFallback,
	}, nil
}

// BookDelivery prices the delivery for an authenticated user and persists a
// quote, plus a booking referencing it unless SaveQuoteOnly is set. On the
// quote-only path a persistence failure is logged and swallowed; the computed
// quote is still returned.
func (s *DeliveryService) BookDelivery(ctx context.Context, userID uuid.UUID, sub BookingSubmission) (*BookingResult, error) {
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("missing or invalid authorization token")
	}

	pointA, pointB, err := normalizeAddresses(sub.PointA, sub.PointB)
	if err != nil {
		return nil, err
	}

	level, err := delivery.ParseServiceLevel(sub.ServiceLevel)
	if err != nil {
		return nil, err
	}
	product, err := delivery.ParseProductType(sub.ProductType)
	if err != nil {
		return nil, err
	}

	route, pricing, err := s.quoteRoute(ctx, pointA, pointB, level, sub.Weight, product)
	if err != nil {
		return nil, err
	}

	quote, err := delivery.NewQuote(&userID, pointA, pointB, level, sub.Weight, product,
		route.DistanceKm, route.DurationMin, route.UsedFallback, pricing)
	if err != nil {
		return nil, err
	}

	if err := s.quotes.Save(ctx, quote); err != nil {
		if !sub.SaveQuoteOnly {
			return nil, fmt.Errorf("failed to save quote: %w", err)
		}
		// Persistence is a side effect on the quote-only path; the caller
		// still gets the computed quote.
		s.logger.Warn("failed to save quote-only record",
			zap.String("quote_id", quote.ID.String()),
			zap.Error(err),
		)
	}

	result := &BookingResult{Quote: toQuoteDTO(quote)}
	if sub.SaveQuoteOnly {
		return result, nil
	}

	booking, err := delivery.NewBooking(userID, quote, strings.TrimSpace(sub.Remarks))
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.publishBookingCreated(ctx, booking)

	dto := toBookingDTO(booking)
	result.Booking = &dto
	return result, nil
}

// SubmitBookingRequest persists an unauthenticated booking request with its
// quote snapshot.
func (s *DeliveryService) SubmitBookingRequest(ctx context.Context, sub BookingSubmission) (*BookingRequestResult, error) {
	pointA, pointB, err := normalizeAddresses(sub.PointA, sub.PointB)
	if err != nil {
		return nil, err
	}

	level, err := delivery.ParseServiceLevel(sub.ServiceLevel)
	if err != nil {
		return nil, err
	}
	product, err := delivery.ParseProductType(sub.ProductType)
	if err != nil {
		return nil, err
	}

	route, pricing, err := s.quoteRoute(ctx, pointA, pointB, level, sub.Weight, product)
	if err != nil {
		return nil, err
	}

	request, err := delivery.NewBookingRequest(pointA, pointB, level, sub.Weight, product,
		strings.TrimSpace(sub.Remarks), route.DistanceKm, route.DurationMin, pricing)
	if err != nil {
		return nil, err
	}

	if err := s.requests.Save(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to save booking request: %w", err)
	}

	s.publishRequestReceived(ctx, request)

	return &BookingRequestResult{
		Message:        "Booking request stored successfully",
		BookingRequest: toBookingRequestDTO(request),
		Quote: RouteQuoteDTO{
			Distance:       request.DistanceKm,
			Duration:       request.DurationMin,
			Price:          request.PriceTotal,
			PriceBreakdown: request.Breakdown,
			ServiceLevel:   level.String(),
			UsedFallback:   route.UsedFallback,
		},
	}, nil
}

// --- Helpers ---

// normalizeAddresses trims both addresses and rejects the request before any
// network call is made when either is empty.
func normalizeAddresses(pointA, pointB string) (string, string, error) {
	a := strings.TrimSpace(pointA)
	b := strings.TrimSpace(pointB)
	if a == "" || b == "" {
		return "", "", apperr.Validation("both pointA and pointB are required")
	}
	return a, b, nil
}

// lenientProductType normalizes a product type without rejecting unknown
// values; the pricing engine treats those as multiplier 1.0.
func lenientProductType(s string) delivery.ProductType {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return delivery.ProductTypeColis
	}
	return delivery.ProductType(normalized)
}

// resolveRoute geocodes both endpoints sequentially, then resolves the route.
func (s *DeliveryService) resolveRoute(ctx context.Context, pointA, pointB string) (geo.RouteSummary, [2]geo.Coordinates, error) {
	coordsA, err := s.geocoder.Geocode(ctx, pointA)
	if err != nil {
		return geo.RouteSummary{}, [2]geo.Coordinates{}, err
	}
	coordsB, err := s.geocoder.Geocode(ctx, pointB)
	if err != nil {
		return geo.RouteSummary{}, [2]geo.Coordinates{}, err
	}

	route := s.routes.Resolve(ctx, coordsA, coordsB)
	return route, [2]geo.Coordinates{coordsA, coordsB}, nil
}

func (s *DeliveryService) quoteRoute(
	ctx context.Context,
	pointA, pointB string,
	level delivery.ServiceLevel,
	weight float64,
	product delivery.ProductType,
) (geo.RouteSummary, delivery.PricingResult, error) {
	route, _, err := s.resolveRoute(ctx, pointA, pointB)
	if err != nil {
		return geo.RouteSummary{}, delivery.PricingResult{}, err
	}

	pricing := s.pricing.Quote(delivery.PricingParams{
		DistanceKm:  route.DistanceKm,
		DurationMin: route.DurationMin,
		Level:       level,
		WeightKg:    delivery.NormalizeWeight(weight),
		Product:     product,
	})
	return route, pricing, nil
}

func toQuoteDTO(q *delivery.Quote) QuoteDTO {
	return QuoteDTO{
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

func toBookingDTO(b *delivery.Booking) BookingDTO {
	return BookingDTO{
		ID:                b.ID(),
		BookingNumber:     b.BookingNumber(),
		UserID:            b.UserID(),
		QuoteID:           b.QuoteID(),
		Status:            b.Status().String(),
		PointA:            b.PointA(),
		PointB:            b.PointB(),
		ServiceLevel:      b.ServiceLevel().String(),
		Weight:            b.WeightKg(),
		ProductType:       b.Product().String(),
		Remarks:           b.Remarks(),
		EstimatedDistance: b.EstimatedDistanceKm(),
		EstimatedDuration: b.EstimatedDurationMin(),
		EstimatedPrice:    b.EstimatedPrice(),
		PriceBreakdown:    b.Breakdown(),
		UsedFallback:      b.UsedFallback(),
		CreatedAt:         b.CreatedAt(),
	}
}

func toBookingRequestDTO(r *delivery.BookingRequest) BookingRequestDTO {
	return BookingRequestDTO{
		ID:             r.ID,
		PointA:         r.PointA,
		PointB:         r.PointB,
		ServiceLevel:   r.ServiceLevel.String(),
		Weight:         r.WeightKg,
		ProductType:    r.Product.String(),
		Remarks:        r.Remarks,
		DistanceKm:     r.DistanceKm,
		DurationMin:    r.DurationMin,
		PriceTotal:     r.PriceTotal,
		PriceBreakdown: r.Breakdown,
		CreatedAt:      r.CreatedAt,
	}
}

func (s *DeliveryService) publishBookingCreated(ctx context.Context, b *delivery.Booking) {
	evt := events.BookingCreatedEvent{
		BookingID:      b.ID(),
		BookingNumber:  b.BookingNumber(),
		QuoteID:        b.QuoteID(),
		UserID:         b.UserID(),
		ServiceLevel:   b.ServiceLevel().String(),
		ProductType:    b.Product().String(),
		EstimatedPrice: b.EstimatedPrice(),
		UsedFallback:   b.UsedFallback(),
		OccurredAt:     time.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingCreated, b.ID().String(), evt)
}

func (s *DeliveryService) publishRequestReceived(ctx context.Context, r *delivery.BookingRequest) {
	evt := events.BookingRequestReceivedEvent{
		RequestID:    r.ID,
		ServiceLevel: r.ServiceLevel.String(),
		ProductType:  r.Product.String(),
		PriceTotal:   r.PriceTotal,
		OccurredAt:   time.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingRequestReceived, r.ID.String(), evt)
}

func (s *DeliveryService) publishEvent(ctx context.Context, eventType, key string, data any) {
	if s.publisher == nil {
		return
	}

	envelope, err := events.NewEnvelope("service-delivery", eventType, data)
	if err != nil {
		s.logger.Error("failed to create event envelope",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.Publish(ctx, events.TopicDeliveryEvents, key, envelope); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
