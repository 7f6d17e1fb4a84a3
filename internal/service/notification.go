package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleet/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingConfirmation NotificationType = "BOOKING_CONFIRMATION"
	NotificationBookingCancelled    NotificationType = "BOOKING_CANCELLED"
	NotificationTripCompleted       NotificationType = "TRIP_COMPLETED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Subject     string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService delivers customer-facing emails for booking state
// transitions. The contract is fire-and-forget: callers dispatch in a
// goroutine and never observe failures; there are no retries.
type NotificationService struct {
	// A real deployment would hold an SMTP or provider client here
	// (the platform's templates: booking confirmation, trip completion,
	// trip cancellation).
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyBookingConfirmation tells the customer their booking was received.
func (s *NotificationService) NotifyBookingConfirmation(ctx context.Context, booking *domain.Booking) error {
	return s.send(ctx, Notification{
		Type:        NotificationBookingConfirmation,
		RecipientID: booking.CustomerID,
		Subject:     "Booking Confirmation - Your Vehicle is Reserved!",
		Message: fmt.Sprintf("Your booking from %s to %s is confirmed. Total: %.2f %s",
			booking.PickupLocation.Address, booking.DropoffLocation.Address,
			booking.Pricing.TotalAmount, booking.Pricing.Currency),
		Data: map[string]interface{}{
			"booking_id":   booking.ID,
			"total_amount": booking.Pricing.TotalAmount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingCancelled tells the customer their booking was cancelled.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, reason string) error {
	return s.send(ctx, Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: booking.CustomerID,
		Subject:     "Booking Cancelled",
		Message:     fmt.Sprintf("Your booking has been cancelled. Reason: %s", reason),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"reason":     reason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyTripCompleted tells the customer their trip finished. The trip
// is optional: booking-level completion has no trip record in hand.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, booking *domain.Booking, trip *domain.Trip) error {
	message := "Your trip has completed."
	data := map[string]interface{}{
		"booking_id": booking.ID,
	}
	if trip != nil {
		message = fmt.Sprintf("Your trip has completed. Distance: %.0fkm", trip.Distance)
		data["trip_id"] = trip.ID
		data["distance"] = trip.Distance
	}
	return s.send(ctx, Notification{
		Type:        NotificationTripCompleted,
		RecipientID: booking.CustomerID,
		Subject:     "Trip Completed - Thank You for Your Business!",
		Message:     message,
		Data:        data,
		CreatedAt:   time.Now(),
	})
}

// send delivers a notification (log-backed implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Subject=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Subject, notification.Message)
	return nil
}
