package service

import "errors"

// Validation errors (malformed input) → 400.
var (
	// ErrInvalidDateRange is returned when dropoff is not after pickup.
	ErrInvalidDateRange = errors.New("dropoff date must be after pickup date")

	// ErrPickupInPast is returned when the pickup date is in the past.
	ErrPickupInPast = errors.New("pickup date cannot be in the past")

	// ErrInvalidPickupLocation is returned when pickup coordinates are out
	// of range or the address is empty.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDropoffLocation is returned when dropoff coordinates are
	// out of range or the address is empty.
	ErrInvalidDropoffLocation = errors.New("invalid dropoff location")

	// ErrOdometerRegression is returned when the ending odometer is below
	// the starting odometer.
	ErrOdometerRegression = errors.New("ending odometer must be greater than or equal to starting odometer")

	// ErrInvalidPaymentMethod is returned for an unknown payment method.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrNoUpdatableFields is returned when a trip patch carries no
	// whitelisted fields.
	ErrNoUpdatableFields = errors.New("no updatable fields supplied")

	// ErrInvalidRateType is returned for an unknown vehicle rate type.
	ErrInvalidRateType = errors.New("invalid rate type")

	// ErrInvalidBookingStatus is returned for an unknown booking status.
	ErrInvalidBookingStatus = errors.New("invalid booking status")
)

// Authorization errors (caller lacks ownership of the target) → 403.
var (
	// ErrNotVehicleOwner is returned when the caller does not own the
	// booking's vehicle.
	ErrNotVehicleOwner = errors.New("caller does not own this vehicle")

	// ErrNotBookingCustomer is returned when the caller is not the
	// customer who made the booking.
	ErrNotBookingCustomer = errors.New("caller is not the booking customer")

	// ErrNotAssignedDriver is returned when the caller is not the driver
	// assigned to the booking or trip.
	ErrNotAssignedDriver = errors.New("caller is not the assigned driver")
)

// Lifecycle errors (operation illegal in current state) → 400.
var (
	// ErrVehicleUnavailable is returned when the vehicle is not active
	// and available for booking.
	ErrVehicleUnavailable = errors.New("vehicle is not available for booking")

	// ErrConfirmWithoutDriver is returned when confirming a booking with
	// no driver assigned or incoming.
	ErrConfirmWithoutDriver = errors.New("cannot confirm booking without assigning an eligible driver")

	// ErrNotADriver is returned when the assigned user does not hold the
	// driver role.
	ErrNotADriver = errors.New("selected user is not a driver")

	// ErrDriverNotRegistered is returned when the driver has not
	// self-registered to the booking's vehicle.
	ErrDriverNotRegistered = errors.New("driver is not registered for this vehicle")

	// ErrBookingNotCancellable is returned when cancelling a booking that
	// is neither pending nor confirmed.
	ErrBookingNotCancellable = errors.New("cannot cancel booking in current status")

	// ErrBookingNotStartable is returned when starting a booking that is
	// not confirmed.
	ErrBookingNotStartable = errors.New("cannot start trip in current booking status")

	// ErrBookingNotCompletable is returned when completing a booking that
	// is not in progress.
	ErrBookingNotCompletable = errors.New("cannot complete trip in current booking status")

	// ErrTripExists is returned when a trip already exists for the booking.
	ErrTripExists = errors.New("trip already exists for this booking")

	// ErrTripNotStartable is returned when starting a trip that is not
	// scheduled.
	ErrTripNotStartable = errors.New("trip cannot be started in current status")

	// ErrTripNotCompletable is returned when completing a trip that is
	// not in progress.
	ErrTripNotCompletable = errors.New("trip cannot be completed in current status")

	// ErrTripNotCancellable is returned when cancelling a trip already in
	// a terminal state.
	ErrTripNotCancellable = errors.New("trip cannot be cancelled in current status")
)

// Auth errors.
var (
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidRole is returned when registering with an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)
