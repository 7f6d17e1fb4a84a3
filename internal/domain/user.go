package domain

import "time"

// Role is the authorization role carried in the access token.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleVehicleOwner Role = "vehicle_owner"
	RoleDriver       Role = "driver"
	RoleAdmin        Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleVehicleOwner, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// User represents any account in the system. Drivers additionally carry
// the list of vehicle ids they have self-registered to; that list is the
// eligibility index consulted when an owner assigns them to a booking.
type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	DriverVehicleIDs []string
	CreatedAt        time.Time
	IsDeleted        bool
}
