package domain

import "time"

type NotificationKind string

const (
	NotificationBookingConfirmation NotificationKind = "BOOKING_CONFIRMATION"
	NotificationBookingCancellation NotificationKind = "BOOKING_CANCELLATION"
	NotificationBookingExpired      NotificationKind = "BOOKING_EXPIRED"
	NotificationPaymentReceived     NotificationKind = "PAYMENT_RECEIVED"
	NotificationPaymentFailed       NotificationKind = "PAYMENT_FAILED"
	NotificationRefundProcessed     NotificationKind = "REFUND_PROCESSED"
)

// Notification is a fire-and-forget message for the booking owner.
type Notification struct {
	Kind      NotificationKind       `json:"kind"`
	UserID    string                 `json:"user_id"`
	Email     string                 `json:"email"`
	Reference string                 `json:"reference"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
