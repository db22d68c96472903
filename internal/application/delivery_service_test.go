package application

import (
	"context"
	"errors"
	"testing"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/atlas-express/service-delivery/internal/domain/delivery"
	"github.com/atlas-express/service-delivery/internal/events"
	"github.com/atlas-express/service-delivery/internal/geo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Fakes ---

type fakeGeocoder struct {
	coords map[string]geo.Coordinates
	err    error
	calls  []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (geo.Coordinates, error) {
	f.calls = append(f.calls, address)
	if f.err != nil {
		return geo.Coordinates{}, f.err
	}
	if c, ok := f.coords[address]; ok {
		return c, nil
	}
	return geo.Coordinates{}, apperr.Newf(apperr.KindUpstream, "no geocoding results for address: %s", address)
}

type fakeResolver struct {
	summary geo.RouteSummary
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ geo.Coordinates) geo.RouteSummary {
	return f.summary
}

type fakeQuoteRepo struct {
	saved   []*delivery.Quote
	saveErr error
}

func (f *fakeQuoteRepo) Save(_ context.Context, q *delivery.Quote) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, q)
	return nil
}

func (f *fakeQuoteRepo) FindByID(_ context.Context, id uuid.UUID) (*delivery.Quote, error) {
	for _, q := range f.saved {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "quote not found")
}

type fakeBookingRepo struct {
	saved   []*delivery.Booking
	saveErr error
}

func (f *fakeBookingRepo) Save(_ context.Context, b *delivery.Booking) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, b)
	return nil
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*delivery.Booking, error) {
	for _, b := range f.saved {
		if b.ID() == id {
			return b, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "booking not found")
}

type fakeRequestRepo struct {
	saved   []*delivery.BookingRequest
	saveErr error
}

func (f *fakeRequestRepo) Save(_ context.Context, r *delivery.BookingRequest) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, r)
	return nil
}

type fakePublisher struct {
	published []events.Envelope
	topics    []string
}

func (f *fakePublisher) Publish(_ context.Context, topic, _ string, evt events.Envelope) error {
	f.topics = append(f.topics, topic)
	f.published = append(f.published, evt)
	return nil
}

// --- Fixture ---

type fixture struct {
	geocoder  *fakeGeocoder
	resolver  *fakeResolver
	quotes    *fakeQuoteRepo
	bookings  *fakeBookingRepo
	requests  *fakeRequestRepo
	publisher *fakePublisher
	service   *DeliveryService
}

func newFixture() *fixture {
	f := &fixture{
		geocoder: &fakeGeocoder{coords: map[string]geo.Coordinates{
			"Alger Centre": {Lat: 36.7538, Lon: 3.0588},
			"Bab Ezzouar":  {Lat: 36.7210, Lon: 3.1880},
		}},
		resolver:  &fakeResolver{summary: geo.RouteSummary{DistanceKm: 10, DurationMin: 20}},
		quotes:    &fakeQuoteRepo{},
		bookings:  &fakeBookingRepo{},
		requests:  &fakeRequestRepo{},
		publisher: &fakePublisher{},
	}
	f.service = NewDeliveryService(
		f.geocoder, f.resolver, delivery.NewStandardPricingEngine(),
		f.quotes, f.bookings, f.requests, f.publisher, zap.NewNop(),
	)
	return f
}

func validSubmission() BookingSubmission {
	return BookingSubmission{
		QuoteRequest: QuoteRequest{
			PointA:       "Alger Centre",
			PointB:       "Bab Ezzouar",
			ServiceLevel: "express",
			Weight:       4,
			ProductType:  "fragile",
		},
		Remarks: "  sonner deux fois  ",
	}
}

// --- CalculateRoute ---

func TestCalculateRoute(t *testing.T) {
	f := newFixture()

	dto, err := f.service.CalculateRoute(context.Background(), validSubmission().QuoteRequest)
	require.NoError(t, err)

	// 10 km / 20 min, express, 4 kg, fragile: (15+25+10+2)*1.5*1.3
	assert.Equal(t, 10.0, dto.Distance)
	assert.Equal(t, 20, dto.Duration)
	assert.Equal(t, 101.40, dto.Price)
	assert.Equal(t, "express", dto.ServiceLevel)
	assert.False(t, dto.UsedFallback)
	assert.Empty(t, f.quotes.saved)
}

func TestCalculateRoute_EmptyAddressRejectedBeforeGeocoding(t *testing.T) {
	f := newFixture()

	req := validSubmission().QuoteRequest
	req.PointB = "   "
	_, err := f.service.CalculateRoute(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, f.geocoder.calls)
}

func TestCalculateRoute_ToleratesUnknownProductType(t *testing.T) {
	f := newFixture()

	req := validSubmission().QuoteRequest
	req.ProductType = "electronics"
	dto, err := f.service.CalculateRoute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1.0, dto.PriceBreakdown.ProductTypeMultiplier)
}

func TestCalculateRoute_GeocodingFailureIsHard(t *testing.T) {
	f := newFixture()
	f.geocoder.err = apperr.New(apperr.KindUpstream, "nominatim unreachable")

	_, err := f.service.CalculateRoute(context.Background(), validSubmission().QuoteRequest)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestCalculateRoute_ReportsFallback(t *testing.T) {
	f := newFixture()
	f.resolver.summary = geo.RouteSummary{DistanceKm: 12.5, DurationMin: 15, UsedFallback: true}

	dto, err := f.service.CalculateRoute(context.Background(), validSubmission().QuoteRequest)
	require.NoError(t, err)
	assert.True(t, dto.UsedFallback)
}

// --- BookDelivery ---

func TestBookDelivery(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	result, err := f.service.BookDelivery(context.Background(), userID, validSubmission())
	require.NoError(t, err)
	require.NotNil(t, result.Booking)

	assert.Equal(t, result.Quote.ID, result.Booking.QuoteID)
	assert.Equal(t, userID, result.Booking.UserID)
	assert.Equal(t, "pending", result.Booking.Status)
	assert.Equal(t, "sonner deux fois", result.Booking.Remarks)
	assert.Equal(t, result.Quote.PriceTotal, result.Booking.EstimatedPrice)

	require.Len(t, f.quotes.saved, 1)
	require.Len(t, f.bookings.saved, 1)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.TopicDeliveryEvents, f.publisher.topics[0])
	assert.Equal(t, events.BookingCreated, f.publisher.published[0].Type)
}

func TestBookDelivery_RequiresUser(t *testing.T) {
	f := newFixture()

	_, err := f.service.BookDelivery(context.Background(), uuid.Nil, validSubmission())
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestBookDelivery_RejectsUnknownProductType(t *testing.T) {
	f := newFixture()

	sub := validSubmission()
	sub.ProductType = "electronics"
	_, err := f.service.BookDelivery(context.Background(), uuid.New(), sub)

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, f.geocoder.calls)
}

func TestBookDelivery_QuoteOnly(t *testing.T) {
	f := newFixture()

	sub := validSubmission()
	sub.SaveQuoteOnly = true
	result, err := f.service.BookDelivery(context.Background(), uuid.New(), sub)

	require.NoError(t, err)
	assert.Nil(t, result.Booking)
	assert.Len(t, f.quotes.saved, 1)
	assert.Empty(t, f.bookings.saved)
	assert.Empty(t, f.publisher.published)
}

func TestBookDelivery_QuoteOnlySwallowsSaveFailure(t *testing.T) {
	f := newFixture()
	f.quotes.saveErr = errors.New("connection refused")

	sub := validSubmission()
	sub.SaveQuoteOnly = true
	result, err := f.service.BookDelivery(context.Background(), uuid.New(), sub)

	require.NoError(t, err)
	assert.Nil(t, result.Booking)
	assert.NotEqual(t, uuid.Nil, result.Quote.ID)
	assert.Greater(t, result.Quote.PriceTotal, 0.0)
}

func TestBookDelivery_QuoteSaveFailureFatalWhenBooking(t *testing.T) {
	f := newFixture()
	f.quotes.saveErr = errors.New("connection refused")

	_, err := f.service.BookDelivery(context.Background(), uuid.New(), validSubmission())
	require.Error(t, err)
	assert.Empty(t, f.bookings.saved)
}

// --- SubmitBookingRequest ---

func TestSubmitBookingRequest(t *testing.T) {
	f := newFixture()

	result, err := f.service.SubmitBookingRequest(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Equal(t, "Booking request stored successfully", result.Message)
	assert.Equal(t, "sonner deux fois", result.BookingRequest.Remarks)
	assert.Equal(t, result.BookingRequest.PriceTotal, result.Quote.Price)
	assert.Equal(t, "express", result.Quote.ServiceLevel)

	require.Len(t, f.requests.saved, 1)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.BookingRequestReceived, f.publisher.published[0].Type)
}

func TestSubmitBookingRequest_SaveFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.requests.saveErr = errors.New("connection refused")

	_, err := f.service.SubmitBookingRequest(context.Background(), validSubmission())
	require.Error(t, err)
	assert.Empty(t, f.publisher.published)
}

func TestSubmitBookingRequest_RejectsUnknownProductType(t *testing.T) {
	f := newFixture()

	sub := validSubmission()
	sub.ProductType = "electronics"
	_, err := f.service.SubmitBookingRequest(context.Background(), sub)

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

// A nil publisher disables publishing without failing the booking.
func TestBookDelivery_NilPublisher(t *testing.T) {
	f := newFixture()
	f.service = NewDeliveryService(
		f.geocoder, f.resolver, delivery.NewStandardPricingEngine(),
		f.quotes, f.bookings, f.requests, nil, zap.NewNop(),
	)

	result, err := f.service.BookDelivery(context.Background(), uuid.New(), validSubmission())
	require.NoError(t, err)
	require.NotNil(t, result.Booking)
}
