package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/middleware"
	"fleet/internal/repository"
	"fleet/internal/service"
)

// VehicleHandler handles HTTP requests for the vehicle registry.
type VehicleHandler struct {
	vehicleService *service.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleService *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// CreateVehicleRequest is the HTTP request body for listing a vehicle.
type CreateVehicleRequest struct {
	Make         string  `json:"make" binding:"required"`
	Model        string  `json:"model" binding:"required"`
	Year         int     `json:"year" binding:"required"`
	LicensePlate string  `json:"license_plate" binding:"required"`
	BaseRate     float64 `json:"base_rate" binding:"required,gt=0"`
	RateType     string  `json:"rate_type"`
	Currency     string  `json:"currency"`
}

// UpdateVehicleRequest is the HTTP request body for updating a vehicle.
type UpdateVehicleRequest struct {
	BaseRate     *float64 `json:"base_rate"`
	RateType     *string  `json:"rate_type"`
	Availability *bool    `json:"availability"`
	Status       *string  `json:"status"`
}

// VehicleResponse is the HTTP response for vehicle operations.
type VehicleResponse struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"owner_id"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	LicensePlate string  `json:"license_plate"`
	BaseRate     float64 `json:"base_rate"`
	RateType     string  `json:"rate_type"`
	Currency     string  `json:"currency"`
	Availability bool    `json:"availability"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

// CreateVehicle handles POST /v1/vehicles
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationErrors(c, err.Error())
		return
	}

	vehicle, err := h.vehicleService.CreateVehicle(c.Request.Context(), service.CreateVehicleRequest{
		OwnerID:      middleware.CallerID(c),
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: req.LicensePlate,
		BaseRate:     req.BaseRate,
		RateType:     domain.RateType(req.RateType),
		Currency:     req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// GetVehicle handles GET /v1/vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toVehicleResponse(vehicle))
}

// GetAllVehicles handles GET /v1/vehicles
// Optional query filters: status, availability, min_rate, max_rate.
func (h *VehicleHandler) GetAllVehicles(c *gin.Context) {
	filter := repository.VehicleFilter{
		Status: domain.VehicleStatus(c.Query("status")),
	}
	if raw := c.Query("availability"); raw != "" {
		availability, err := strconv.ParseBool(raw)
		if err != nil {
			respondValidationErrors(c, "availability must be true or false")
			return
		}
		filter.Availability = &availability
	}
	if raw := c.Query("min_rate"); raw != "" {
		minRate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondValidationErrors(c, "min_rate must be a number")
			return
		}
		filter.MinRate = &minRate
	}
	if raw := c.Query("max_rate"); raw != "" {
		maxRate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondValidationErrors(c, "max_rate must be a number")
			return
		}
		filter.MaxRate = &maxRate
	}

	vehicles, err := h.vehicleService.GetAllVehicles(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]*VehicleResponse, 0, len(vehicles))
	for _, vehicle := range vehicles {
		responses = append(responses, toVehicleResponse(vehicle))
	}
	respondData(c, http.StatusOK, responses)
}

// UpdateVehicle handles PUT /v1/vehicles/:id
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	var req UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationErrors(c, err.Error())
		return
	}

	update := service.UpdateVehicleRequest{
		VehicleID:    c.Param("id"),
		CallerID:     middleware.CallerID(c),
		BaseRate:     req.BaseRate,
		Availability: req.Availability,
	}
	if req.RateType != nil {
		rateType := domain.RateType(*req.RateType)
		update.RateType = &rateType
	}
	if req.Status != nil {
		status := domain.VehicleStatus(*req.Status)
		update.Status = &status
	}

	vehicle, err := h.vehicleService.UpdateVehicle(c.Request.Context(), update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toVehicleResponse(vehicle))
}

// DeleteVehicle handles DELETE /v1/vehicles/:id
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	err := h.vehicleService.DeleteVehicle(c.Request.Context(), c.Param("id"), middleware.CallerID(c), middleware.CallerRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "vehicle deleted; active bookings and trips cancelled", nil)
}

// RegisterDriver handles POST /v1/vehicles/:id/drivers
func (h *VehicleHandler) RegisterDriver(c *gin.Context) {
	err := h.vehicleService.RegisterDriver(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "driver registered for vehicle", nil)
}

func toVehicleResponse(v *domain.Vehicle) *VehicleResponse {
	return &VehicleResponse{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		LicensePlate: v.LicensePlate,
		BaseRate:     v.BaseRate,
		RateType:     string(v.RateType),
		Currency:     v.Currency,
		Availability: v.Availability,
		Status:       string(v.Status),
		CreatedAt:    v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
