package kafka

import "time"

// BookingEvent is published on every booking lifecycle transition.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	Reference  string    `json:"reference"`
	FlightID   int64     `json:"flight_id"`
	Class      string    `json:"class"`
	Seats      int       `json:"seats"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RefundRequest asks the payment side to return money for a booking.
type RefundRequest struct {
	BookingID   string    `json:"booking_id"`
	Reference   string    `json:"reference"`
	PaymentRef  string    `json:"payment_ref"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
