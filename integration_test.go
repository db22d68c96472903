//go:build integration

package main_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/atlas-express/service-delivery/internal/events"
	"github.com/atlas-express/service-delivery/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url, token string, payload any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// TestBookDelivery_EndToEnd drives a booking through the live HTTP stack and
// asserts the persisted rows and the published Kafka event.
func TestBookDelivery_EndToEnd(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	providers := startFakeProviders(t)
	stack := setupDeliveryStack(t, infra, providers)

	userID := uuid.New()
	token, err := stack.JWTManager.Generate(userID, time.Hour)
	require.NoError(t, err)

	resp := postJSON(t, stack.Server.URL+"/book-delivery", token, map[string]any{
		"pointA":       "Alger Centre",
		"pointB":       "Bab Ezzouar",
		"serviceLevel": "express",
		"weight":       4,
		"productType":  "fragile",
		"remarks":      "sonner deux fois",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Quote struct {
			ID         uuid.UUID `json:"id"`
			PriceTotal float64   `json:"price_total"`
		} `json:"quote"`
		Booking *struct {
			ID            uuid.UUID `json:"id"`
			BookingNumber string    `json:"booking_number"`
			QuoteID       uuid.UUID `json:"quote_id"`
			Status        string    `json:"status"`
		} `json:"booking"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Booking)
	assert.Equal(t, body.Quote.ID, body.Booking.QuoteID)
	assert.Equal(t, "pending", body.Booking.Status)

	// The fake OSRM serves 10 km / 20 min: (15+25+10+2)*1.5*1.3 = 101.40.
	assert.Equal(t, 101.40, body.Quote.PriceTotal)

	var quoteRow repository.QuoteModel
	require.NoError(t, infra.DB.Where("id = ?", body.Quote.ID).First(&quoteRow).Error)
	assert.Equal(t, "express", quoteRow.ServiceLevel)

	var bookingRow repository.BookingModel
	require.NoError(t, infra.DB.Where("id = ?", body.Booking.ID).First(&bookingRow).Error)
	assert.Equal(t, userID, bookingRow.UserID)
	assert.Equal(t, body.Booking.BookingNumber, bookingRow.BookingNumber)

	envelope := consumeOneEvent(t, infra.KafkaBrokers, events.TopicDeliveryEvents,
		events.BookingCreated, 15*time.Second)

	var created events.BookingCreatedEvent
	require.NoError(t, envelope.ParseData(&created))
	assert.Equal(t, body.Booking.ID, created.BookingID)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, 101.40, created.EstimatedPrice)
}

// TestSubmitBookingRequest_EndToEnd submits an unauthenticated booking request
// and asserts the persisted row and the published Kafka event.
func TestSubmitBookingRequest_EndToEnd(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	providers := startFakeProviders(t)
	stack := setupDeliveryStack(t, infra, providers)

	resp := postJSON(t, stack.Server.URL+"/submit-booking-request", "", map[string]any{
		"pointA":       "Alger Centre",
		"pointB":       "Bab Ezzouar",
		"serviceLevel": "standard",
		"weight":       2,
		"productType":  "documents",
		"remarks":      "livraison le matin",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Message        string `json:"message"`
		BookingRequest struct {
			ID uuid.UUID `json:"id"`
		} `json:"booking_request"`
		Quote struct {
			Price float64 `json:"price"`
		} `json:"quote"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Booking request stored successfully", body.Message)

	// 10 km / 20 min, standard, 2 kg, documents: (10+15+6+1)*1.0*0.9 = 28.80.
	assert.Equal(t, 28.80, body.Quote.Price)

	var row repository.BookingRequestModel
	require.NoError(t, infra.DB.Where("id = ?", body.BookingRequest.ID).First(&row).Error)
	assert.Equal(t, "livraison le matin", row.Remarks)

	envelope := consumeOneEvent(t, infra.KafkaBrokers, events.TopicDeliveryEvents,
		events.BookingRequestReceived, 15*time.Second)

	var received events.BookingRequestReceivedEvent
	require.NoError(t, envelope.ParseData(&received))
	assert.Equal(t, body.BookingRequest.ID, received.RequestID)
}
