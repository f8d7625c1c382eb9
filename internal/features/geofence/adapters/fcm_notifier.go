package adapters

import (
	"context"
	"fmt"
	"strconv"

	"geofence-tracker/internal/features/geofence/domain"

	"firebase.google.com/go/v4/messaging"
)

// MessageSender is the part of *messaging.Client the notifier needs.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMNotifier delivers geofence notifications as FCM messages to the booking's
// topic, which the mobile app subscribes to when the booking starts.
type FCMNotifier struct {
	sender MessageSender
}

// NewFCMNotifier creates an FCMNotifier.
func NewFCMNotifier(sender MessageSender) *FCMNotifier {
	return &FCMNotifier{sender: sender}
}

// BookingTopic returns the FCM topic of a booking.
func BookingTopic(bookingID string) string {
	return "booking-" + bookingID
}

var notificationText = map[domain.NotificationKind][2]string{
	domain.NotifyApproaching:  {"Almost there", "You are close to your parking space."},
	domain.NotifyArrived:      {"You have arrived", "Check in to start your parking session."},
	domain.NotifyDeparting:    {"Leaving the lot?", "Your parking session ends automatically once you leave."},
	domain.NotifyAutoCheckout: {"Checked out", "We detected that you left and ended your parking session."},
}

// Notify sends the notification.
func (f *FCMNotifier) Notify(ctx context.Context, n domain.Notification) error {
	text, ok := notificationText[n.Kind]
	if !ok {
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	msg := &messaging.Message{
		Topic: BookingTopic(n.BookingID),
		Data: map[string]string{
			"type":       string(n.Kind),
			"booking_id": n.BookingID,
			"session_id": n.SessionID,
			"status":     string(n.Status),
			"distance_m": strconv.FormatFloat(n.DistanceM, 'f', 1, 64),
		},
		Notification: &messaging.Notification{
			Title: text[0],
			Body:  text[1],
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	if _, err := f.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending FCM %s for booking %s: %w", n.Kind, n.BookingID, err)
	}
	return nil
}
