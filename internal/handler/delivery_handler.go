package handler

import (
	"net/http"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/atlas-express/service-delivery/internal/application"
	"github.com/atlas-express/service-delivery/internal/auth"
	"github.com/gin-gonic/gin"
)

// DeliveryHandler handles HTTP requests for quoting and booking operations.
type DeliveryHandler struct {
	service *application.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(service *application.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// RegisterRoutes registers all delivery routes on the given router group.
func (h *DeliveryHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.POST("/calculate-route", h.CalculateRoute)
	r.POST("/book-delivery", AuthMiddleware(jwtManager), h.BookDelivery)
	r.POST("/submit-booking-request", h.SubmitBookingRequest)
}

// CalculateRoute handles POST /calculate-route.
func (h *DeliveryHandler) CalculateRoute(c *gin.Context) {
	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	result, err := h.service.CalculateRoute(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// BookDelivery handles POST /book-delivery.
func (h *DeliveryHandler) BookDelivery(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, apperr.Unauthorized("missing or invalid authorization token"))
		return
	}

	var sub application.BookingSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	result, err := h.service.BookDelivery(c.Request.Context(), userID, sub)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// SubmitBookingRequest handles POST /submit-booking-request.
func (h *DeliveryHandler) SubmitBookingRequest(c *gin.Context) {
	var sub application.BookingSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	result, err := h.service.SubmitBookingRequest(c.Request.Context(), sub)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
