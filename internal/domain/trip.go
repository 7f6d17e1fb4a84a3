package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusScheduled  TripStatus = "scheduled"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle transitions are allowed.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// RoutePoint is a recorded location on the trip route.
type RoutePoint struct {
	Lng       float64
	Lat       float64
	Address   string
	Timestamp time.Time
}

// Route holds the captured start and end locations of a trip.
// StartLocation is set when the trip starts, EndLocation on completion.
type Route struct {
	StartLocation *RoutePoint
	EndLocation   *RoutePoint
}

// FuelExpense is the single fuel purchase recorded against a trip.
type FuelExpense struct {
	Amount        float64
	Liters        float64
	PricePerLiter float64
	Location      string
}

// TollExpense is one toll charge.
type TollExpense struct {
	Amount   float64
	Location string
}

// ParkingExpense is one parking charge.
type ParkingExpense struct {
	Amount          float64
	Location        string
	DurationMinutes int
}

// OtherExpense is a miscellaneous expense. Stored for the record but
// excluded from the earnings deduction sum.
type OtherExpense struct {
	Description string
	Amount      float64
	Category    string
}

// Expenses aggregates all expenses recorded against a trip.
type Expenses struct {
	Fuel    *FuelExpense
	Tolls   []TollExpense
	Parking []ParkingExpense
	Other   []OtherExpense
}

// Earnings is the driver's derived earnings breakdown. All components
// are clamped to zero before persistence.
type Earnings struct {
	BaseAmount  float64
	Bonuses     float64
	Deductions  float64
	TotalAmount float64
}

// Rating holds optional 1-5 ratings exchanged after a trip.
type Rating struct {
	ByCustomer      float64
	ByDriver        float64
	CustomerComment string
	DriverComment   string
}

// Trip is the operational execution record of a confirmed booking.
// Exactly one trip exists per booking; BookingID and DriverID are
// immutable after creation.
type Trip struct {
	ID            string
	BookingID     string
	DriverID      string
	Status        TripStatus
	StartTime     time.Time
	EndTime       time.Time
	StartOdometer float64
	EndOdometer   float64
	Distance      float64 // max(0, EndOdometer - StartOdometer), set at completion
	Route         Route
	Expenses      Expenses
	Earnings      Earnings
	Rating        Rating
	Notes         string
	CreatedAt     time.Time
}

// TripSummary is the aggregate view returned by the summary endpoint.
type TripSummary struct {
	TotalTrips      int64
	ScheduledTrips  int64
	InProgressTrips int64
	CompletedTrips  int64
	CancelledTrips  int64
	TotalRevenue    float64
}
