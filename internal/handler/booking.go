package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/middleware"
	"fleet/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// GeoPointRequest is a located address in request bodies.
type GeoPointRequest struct {
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
	Address string  `json:"address" binding:"required"`
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	VehicleID       string          `json:"vehicle_id" binding:"required"`
	PickupDate      time.Time       `json:"pickup_date" binding:"required"`
	DropoffDate     time.Time       `json:"dropoff_date" binding:"required"`
	PickupLocation  GeoPointRequest `json:"pickup_location" binding:"required"`
	DropoffLocation GeoPointRequest `json:"dropoff_location" binding:"required"`
	PaymentMethod   string          `json:"payment_method"`
	CustomerNotes   string          `json:"customer_notes"`
}

// UpdateBookingRequest is the HTTP request body for the owner update.
type UpdateBookingRequest struct {
	Status   string `json:"status"`
	DriverID string `json:"driver_id"`
}

// CancelBookingRequest is the HTTP request body for a cancellation.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// GeoPointResponse is a located address in response bodies.
type GeoPointResponse struct {
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
	Address string  `json:"address"`
}

// PricingResponse is the price breakdown in response bodies.
type PricingResponse struct {
	BaseAmount  float64 `json:"base_amount"`
	Taxes       float64 `json:"taxes"`
	Fees        float64 `json:"fees"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
}

// PaymentResponse is the payment flag in response bodies.
type PaymentResponse struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

// BookingResponse is the HTTP response for booking operations.
type BookingResponse struct {
	ID              string           `json:"id"`
	CustomerID      string           `json:"customer_id"`
	VehicleID       string           `json:"vehicle_id"`
	DriverID        string           `json:"driver_id,omitempty"`
	TripID          string           `json:"trip_id,omitempty"`
	Status          string           `json:"status"`
	PickupDate      string           `json:"pickup_date"`
	DropoffDate     string           `json:"dropoff_date"`
	PickupLocation  GeoPointResponse `json:"pickup_location"`
	DropoffLocation GeoPointResponse `json:"dropoff_location"`
	Pricing         PricingResponse  `json:"pricing"`
	Payment         PaymentResponse  `json:"payment"`
	CustomerNotes   string           `json:"customer_notes,omitempty"`
	CancelReason    string           `json:"cancel_reason,omitempty"`
	CancelledBy     string           `json:"cancelled_by,omitempty"`
	CancelledAt     string           `json:"cancelled_at,omitempty"`
	CreatedAt       string           `json:"created_at"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationErrors(c, err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		CustomerID:      middleware.CallerID(c),
		VehicleID:       req.VehicleID,
		PickupDate:      req.PickupDate,
		DropoffDate:     req.DropoffDate,
		PickupLocation:  toGeoPoint(req.PickupLocation),
		DropoffLocation: toGeoPoint(req.DropoffLocation),
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		CustomerNotes:   req.CustomerNotes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toBookingResponse(booking))
}

// GetAllBookings handles GET /v1/bookings
func (h *BookingHandler) GetAllBookings(c *gin.Context) {
	status := domain.BookingStatus(c.Query("status"))
	bookings, err := h.bookingService.GetAllBookings(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toBookingResponses(bookings))
}

// GetMyBookings handles GET /v1/bookings/my-bookings
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	bookings, err := h.bookingService.GetCustomerBookings(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toBookingResponses(bookings))
}

// GetOwnerBookings handles GET /v1/bookings/owner/bookings
func (h *BookingHandler) GetOwnerBookings(c *gin.Context) {
	bookings, err := h.bookingService.GetOwnerBookings(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toBookingResponses(bookings))
}

// GetDriverBookings handles GET /v1/bookings/driver/bookings
func (h *BookingHandler) GetDriverBookings(c *gin.Context) {
	bookings, err := h.bookingService.GetDriverBookings(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toBookingResponses(bookings))
}

// UpdateBooking handles PUT /v1/bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationErrors(c, err.Error())
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), service.UpdateBookingRequest{
		BookingID: c.Param("id"),
		CallerID:  middleware.CallerID(c),
		Status:    domain.BookingStatus(req.Status),
		DriverID:  req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toBookingResponse(booking))
}

// CancelBooking handles PUT /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req CancelBookingRequest
	// Body is optional; a bare cancel gets the default reason.
	_ = c.ShouldBindJSON(&req)

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), service.CancelBookingRequest{
		BookingID:  c.Param("id"),
		CustomerID: middleware.CallerID(c),
		Reason:     req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "booking cancelled", toBookingResponse(booking))
}

// StartTrip handles PUT /v1/bookings/:id/start
func (h *BookingHandler) StartTrip(c *gin.Context) {
	booking, err := h.bookingService.StartBookingTrip(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toBookingResponse(booking))
}

// CompleteTrip handles PUT /v1/bookings/:id/complete
func (h *BookingHandler) CompleteTrip(c *gin.Context) {
	booking, err := h.bookingService.CompleteBookingTrip(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toBookingResponse(booking))
}

func toGeoPoint(p GeoPointRequest) domain.GeoPoint {
	return domain.GeoPoint{Lng: p.Lng, Lat: p.Lat, Address: p.Address}
}

func toBookingResponses(bookings []*domain.Booking) []*BookingResponse {
	responses := make([]*BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		responses = append(responses, toBookingResponse(booking))
	}
	return responses
}

func toBookingResponse(b *domain.Booking) *BookingResponse {
	response := &BookingResponse{
		ID:          b.ID,
		CustomerID:  b.CustomerID,
		VehicleID:   b.VehicleID,
		DriverID:    b.DriverID,
		TripID:      b.TripID,
		Status:      string(b.Status),
		PickupDate:  b.ScheduledStart.Format("2006-01-02T15:04:05Z07:00"),
		DropoffDate: b.ScheduledEnd.Format("2006-01-02T15:04:05Z07:00"),
		PickupLocation: GeoPointResponse{
			Lng: b.PickupLocation.Lng, Lat: b.PickupLocation.Lat, Address: b.PickupLocation.Address,
		},
		DropoffLocation: GeoPointResponse{
			Lng: b.DropoffLocation.Lng, Lat: b.DropoffLocation.Lat, Address: b.DropoffLocation.Address,
		},
		Pricing: PricingResponse{
			BaseAmount:  b.Pricing.BaseAmount,
			Taxes:       b.Pricing.Taxes,
			Fees:        b.Pricing.Fees,
			TotalAmount: b.Pricing.TotalAmount,
			Currency:    b.Pricing.Currency,
		},
		Payment: PaymentResponse{
			Method: string(b.Payment.Method),
			Status: string(b.Payment.Status),
		},
		CustomerNotes: b.CustomerNotes,
		CancelReason:  b.CancelReason,
		CancelledBy:   b.CancelledBy,
		CreatedAt:     b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if !b.CancelledAt.IsZero() {
		response.CancelledAt = b.CancelledAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return response
}
