package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/middleware"
	"fleet/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripRequest is the HTTP request body for direct trip creation.
type CreateTripRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	DriverID  string `json:"driver_id" binding:"required"`
}

// StartTripRequest is the HTTP request body for starting a trip.
type StartTripRequest struct {
	Odometer        float64          `json:"odometer" binding:"gte=0"`
	CurrentLocation *GeoPointRequest `json:"current_location"`
}

// FuelExpenseRequest is the fuel purchase in request bodies.
type FuelExpenseRequest struct {
	Amount        float64 `json:"amount"`
	Liters        float64 `json:"liters"`
	PricePerLiter float64 `json:"price_per_liter"`
	Location      string  `json:"location"`
}

// TollExpenseRequest is one toll charge in request bodies.
type TollExpenseRequest struct {
	Amount   float64 `json:"amount"`
	Location string  `json:"location"`
}

// ParkingExpenseRequest is one parking charge in request bodies.
type ParkingExpenseRequest struct {
	Amount          float64 `json:"amount"`
	Location        string  `json:"location"`
	DurationMinutes int     `json:"duration_minutes"`
}

// OtherExpenseRequest is a miscellaneous expense in request bodies.
type OtherExpenseRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

// ExpensesRequest aggregates reported expenses in request bodies.
type ExpensesRequest struct {
	Fuel    *FuelExpenseRequest     `json:"fuel"`
	Tolls   []TollExpenseRequest    `json:"tolls"`
	Parking []ParkingExpenseRequest `json:"parking"`
	Other   []OtherExpenseRequest   `json:"other"`
}

// RatingRequest carries ratings in request bodies.
type RatingRequest struct {
	ByCustomer      float64 `json:"by_customer"`
	ByDriver        float64 `json:"by_driver"`
	CustomerComment string  `json:"customer_comment"`
	DriverComment   string  `json:"driver_comment"`
}

// CompleteTripRequest is the HTTP request body for completing a trip.
type CompleteTripRequest struct {
	Odometer        float64          `json:"odometer" binding:"gte=0"`
	CurrentLocation *GeoPointRequest `json:"current_location"`
	Expenses        *ExpensesRequest `json:"expenses"`
	Rating          *RatingRequest   `json:"rating"`
	Notes           string           `json:"notes"`
}

// UpdateTripRequest is the HTTP request body for the driver's correction
// endpoint. Absent fields are left untouched.
type UpdateTripRequest struct {
	StartOdometer *float64         `json:"start_odometer"`
	EndOdometer   *float64         `json:"end_odometer"`
	Expenses      *ExpensesRequest `json:"expenses"`
	Rating        *RatingRequest   `json:"rating"`
	Notes         *string          `json:"notes"`
}

// RoutePointResponse is a recorded route location in response bodies.
type RoutePointResponse struct {
	Lng       float64 `json:"lng"`
	Lat       float64 `json:"lat"`
	Address   string  `json:"address"`
	Timestamp string  `json:"timestamp"`
}

// RouteResponse is the captured route in response bodies.
type RouteResponse struct {
	StartLocation *RoutePointResponse `json:"start_location,omitempty"`
	EndLocation   *RoutePointResponse `json:"end_location,omitempty"`
}

// FuelExpenseResponse is the fuel purchase in response bodies.
type FuelExpenseResponse struct {
	Amount        float64 `json:"amount"`
	Liters        float64 `json:"liters"`
	PricePerLiter float64 `json:"price_per_liter"`
	Location      string  `json:"location"`
}

// TollExpenseResponse is one toll charge in response bodies.
type TollExpenseResponse struct {
	Amount   float64 `json:"amount"`
	Location string  `json:"location"`
}

// ParkingExpenseResponse is one parking charge in response bodies.
type ParkingExpenseResponse struct {
	Amount          float64 `json:"amount"`
	Location        string  `json:"location"`
	DurationMinutes int     `json:"duration_minutes"`
}

// OtherExpenseResponse is a miscellaneous expense in response bodies.
type OtherExpenseResponse struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

// ExpensesResponse aggregates trip expenses in response bodies.
type ExpensesResponse struct {
	Fuel    *FuelExpenseResponse     `json:"fuel,omitempty"`
	Tolls   []TollExpenseResponse    `json:"tolls"`
	Parking []ParkingExpenseResponse `json:"parking"`
	Other   []OtherExpenseResponse   `json:"other"`
}

// EarningsResponse is the derived earnings breakdown in response bodies.
type EarningsResponse struct {
	BaseAmount  float64 `json:"base_amount"`
	Bonuses     float64 `json:"bonuses"`
	Deductions  float64 `json:"deductions"`
	TotalAmount float64 `json:"total_amount"`
}

// RatingResponse carries ratings in response bodies.
type RatingResponse struct {
	ByCustomer      float64 `json:"by_customer,omitempty"`
	ByDriver        float64 `json:"by_driver,omitempty"`
	CustomerComment string  `json:"customer_comment,omitempty"`
	DriverComment   string  `json:"driver_comment,omitempty"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	ID            string           `json:"id"`
	BookingID     string           `json:"booking_id"`
	DriverID      string           `json:"driver_id"`
	Status        string           `json:"status"`
	StartTime     string           `json:"start_time,omitempty"`
	EndTime       string           `json:"end_time,omitempty"`
	StartOdometer float64          `json:"start_odometer"`
	EndOdometer   float64          `json:"end_odometer"`
	Distance      float64          `json:"distance"`
	Route         RouteResponse    `json:"route"`
	Expenses      ExpensesResponse `json:"expenses"`
	Earnings      EarningsResponse `json:"earnings"`
	Rating        RatingResponse   `json:"rating"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     string           `json:"created_at"`
}

// TripSummaryResponse is the aggregate trip view for dashboards.
type TripSummaryResponse struct {
	TotalTrips      int64   `json:"total_trips"`
	ScheduledTrips  int64   `json:"scheduled_trips"`
	InProgressTrips int64   `json:"in_progress_trips"`
	CompletedTrips  int64   `json:"completed_trips"`
	CancelledTrips  int64   `json:"cancelled_trips"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationErrors(c, err.Error())
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), service.CreateTripRequest{
		BookingID: req.BookingID,
		DriverID:  req.DriverID,
		CallerID:  middleware.CallerID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toTripResponse(trip))
}

// GetAllTrips handles GET /v1/trips
func (h *TripHandler) GetAllTrips(c *gin.Context) {
	status := domain.TripStatus(c.Query("status"))
	trips, err := h.tripService.GetAllTrips(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toTripResponses(trips))
}

// GetDriverTrips handles GET /v1/trips/driver/trips
func (h *TripHandler) GetDriverTrips(c *gin.Context) {
	trips, err := h.tripService.GetDriverTrips(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toTripResponses(trips))
}

// GetSummary handles GET /v1/trips/summary
func (h *TripHandler) GetSummary(c *gin.Context) {
	summary, err := h.tripService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, TripSummaryResponse{
		TotalTrips:      summary.TotalTrips,
		ScheduledTrips:  summary.ScheduledTrips,
		InProgressTrips: summary.InProgressTrips,
		CompletedTrips:  summary.CompletedTrips,
		CancelledTrips:  summary.CancelledTrips,
		TotalRevenue:    summary.TotalRevenue,
	})
}

// StartTrip handles PUT /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationErrors(c, err.Error())
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), service.StartTripRequest{
		TripID:          c.Param("id"),
		DriverID:        middleware.CallerID(c),
		Odometer:        req.Odometer,
		CurrentLocation: toGeoPointPtr(req.CurrentLocation),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toTripResponse(trip))
}

// CompleteTrip handles PUT /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	var req CompleteTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationErrors(c, err.Error())
		return
	}

	trip, err := h.tripService.CompleteTrip(c.Request.Context(), service.CompleteTripRequest{
		TripID:          c.Param("id"),
		DriverID:        middleware.CallerID(c),
		Odometer:        req.Odometer,
		CurrentLocation: toGeoPointPtr(req.CurrentLocation),
		Expenses:        toExpenses(req.Expenses),
		Rating:          toRating(req.Rating),
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toTripResponse(trip))
}

// CancelTrip handles PUT /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	trip, err := h.tripService.CancelTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "trip cancelled", toTripResponse(trip))
}

// UpdateTrip handles PUT /v1/trips/:id
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationErrors(c, err.Error())
		return
	}

	trip, err := h.tripService.UpdateTrip(c.Request.Context(), c.Param("id"), middleware.CallerID(c), service.TripPatch{
		StartOdometer: req.StartOdometer,
		EndOdometer:   req.EndOdometer,
		Expenses:      toExpenses(req.Expenses),
		Rating:        toRating(req.Rating),
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toTripResponse(trip))
}

func toGeoPointPtr(p *GeoPointRequest) *domain.GeoPoint {
	if p == nil {
		return nil
	}
	return &domain.GeoPoint{Lng: p.Lng, Lat: p.Lat, Address: p.Address}
}

func toExpenses(req *ExpensesRequest) *domain.Expenses {
	if req == nil {
		return nil
	}

	expenses := &domain.Expenses{}
	if req.Fuel != nil {
		expenses.Fuel = &domain.FuelExpense{
			Amount:        req.Fuel.Amount,
			Liters:        req.Fuel.Liters,
			PricePerLiter: req.Fuel.PricePerLiter,
			Location:      req.Fuel.Location,
		}
	}
	for _, toll := range req.Tolls {
		expenses.Tolls = append(expenses.Tolls, domain.TollExpense{
			Amount:   toll.Amount,
			Location: toll.Location,
		})
	}
	for _, parking := range req.Parking {
		expenses.Parking = append(expenses.Parking, domain.ParkingExpense{
			Amount:          parking.Amount,
			Location:        parking.Location,
			DurationMinutes: parking.DurationMinutes,
		})
	}
	for _, other := range req.Other {
		expenses.Other = append(expenses.Other, domain.OtherExpense{
			Description: other.Description,
			Amount:      other.Amount,
			Category:    other.Category,
		})
	}
	return expenses
}

func toRating(req *RatingRequest) *domain.Rating {
	if req == nil {
		return nil
	}
	return &domain.Rating{
		ByCustomer:      req.ByCustomer,
		ByDriver:        req.ByDriver,
		CustomerComment: req.CustomerComment,
		DriverComment:   req.DriverComment,
	}
}

func toTripResponses(trips []*domain.Trip) []*TripResponse {
	responses := make([]*TripResponse, 0, len(trips))
	for _, trip := range trips {
		responses = append(responses, toTripResponse(trip))
	}
	return responses
}

func toRoutePointResponse(p *domain.RoutePoint) *RoutePointResponse {
	if p == nil {
		return nil
	}
	return &RoutePointResponse{
		Lng:       p.Lng,
		Lat:       p.Lat,
		Address:   p.Address,
		Timestamp: p.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toTripResponse(t *domain.Trip) *TripResponse {
	response := &TripResponse{
		ID:            t.ID,
		BookingID:     t.BookingID,
		DriverID:      t.DriverID,
		Status:        string(t.Status),
		StartOdometer: t.StartOdometer,
		EndOdometer:   t.EndOdometer,
		Distance:      t.Distance,
		Route: RouteResponse{
			StartLocation: toRoutePointResponse(t.Route.StartLocation),
			EndLocation:   toRoutePointResponse(t.Route.EndLocation),
		},
		Expenses: toExpensesResponse(t.Expenses),
		Earnings: EarningsResponse{
			BaseAmount:  t.Earnings.BaseAmount,
			Bonuses:     t.Earnings.Bonuses,
			Deductions:  t.Earnings.Deductions,
			TotalAmount: t.Earnings.TotalAmount,
		},
		Rating: RatingResponse{
			ByCustomer:      t.Rating.ByCustomer,
			ByDriver:        t.Rating.ByDriver,
			CustomerComment: t.Rating.CustomerComment,
			DriverComment:   t.Rating.DriverComment,
		},
		Notes:     t.Notes,
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if !t.StartTime.IsZero() {
		response.StartTime = t.StartTime.Format("2006-01-02T15:04:05Z07:00")
	}
	if !t.EndTime.IsZero() {
		response.EndTime = t.EndTime.Format("2006-01-02T15:04:05Z07:00")
	}
	return response
}

func toExpensesResponse(e domain.Expenses) ExpensesResponse {
	response := ExpensesResponse{
		Tolls:   []TollExpenseResponse{},
		Parking: []ParkingExpenseResponse{},
		Other:   []OtherExpenseResponse{},
	}
	if e.Fuel != nil {
		response.Fuel = &FuelExpenseResponse{
			Amount:        e.Fuel.Amount,
			Liters:        e.Fuel.Liters,
			PricePerLiter: e.Fuel.PricePerLiter,
			Location:      e.Fuel.Location,
		}
	}
	for _, toll := range e.Tolls {
		response.Tolls = append(response.Tolls, TollExpenseResponse(toll))
	}
	for _, parking := range e.Parking {
		response.Parking = append(response.Parking, ParkingExpenseResponse(parking))
	}
	for _, other := range e.Other {
		response.Other = append(response.Other, OtherExpenseResponse(other))
	}
	return response
}
