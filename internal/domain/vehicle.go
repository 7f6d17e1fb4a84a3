package domain

import "time"

// VehicleStatus represents the operational status of a vehicle.
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "active"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusInactive    VehicleStatus = "inactive"
)

// RateType determines how the base rate is applied when pricing a booking.
type RateType string

const (
	RateTypeDaily  RateType = "daily"
	RateTypeHourly RateType = "hourly"
)

// Vehicle is a listed vehicle owned by a vehicle_owner user.
type Vehicle struct {
	ID           string
	OwnerID      string
	Make         string
	Model        string
	Year         int
	LicensePlate string
	BaseRate     float64
	RateType     RateType
	Currency     string
	Availability bool
	Status       VehicleStatus
	CreatedAt    time.Time
	IsDeleted    bool
}

// Bookable reports whether the vehicle can accept new bookings.
func (v *Vehicle) Bookable() bool {
	return v.Availability && v.Status == VehicleStatusActive && !v.IsDeleted
}
