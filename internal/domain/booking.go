package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle transitions are allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// ValidBookingStatus reports whether s is one of the known statuses.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentStatus tracks the payment flag on a booking. No money movement
// happens in this system; the flag mirrors the booking lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// GeoPoint is a located address used for pickup and dropoff.
type GeoPoint struct {
	Lng     float64
	Lat     float64
	Address string
}

// Pricing is the booking price breakdown, computed once at creation from
// the vehicle's rate and never re-derived.
type Pricing struct {
	BaseAmount  float64
	Taxes       float64
	Fees        float64
	TotalAmount float64
	Currency    string
}

// Payment carries the method and status flag for a booking.
type Payment struct {
	Method PaymentMethod
	Status PaymentStatus
}

// Booking is a customer's reservation of a vehicle for a date range.
// TripID is the back-reference to the single trip executing the booking.
type Booking struct {
	ID              string
	CustomerID      string
	VehicleID       string
	DriverID        string
	TripID          string
	Status          BookingStatus
	ScheduledStart  time.Time
	ScheduledEnd    time.Time
	PickupLocation  GeoPoint
	DropoffLocation GeoPoint
	Pricing         Pricing
	Payment         Payment
	CustomerNotes   string
	CancelReason    string
	CancelledBy     string
	CancelledAt     time.Time
	CreatedAt       time.Time
	IsDeleted       bool
}
