package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "INITIATED"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusInitiated: {PaymentStatusCompleted, PaymentStatusFailed},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0
}

// PaymentResult is the outcome a gateway reports for one attempt.
type PaymentResult string

const (
	PaymentResultSuccess PaymentResult = "success"
	PaymentResultFailure PaymentResult = "failure"
)

type PaymentAttempt struct {
	ID          uuid.UUID     `json:"id"`
	BookingID   uuid.UUID     `json:"booking_id"`
	GatewayRef  string        `json:"gateway_ref"`
	Amount      int64         `json:"amount"`
	PaidAmount  int64         `json:"paid_amount"`
	Currency    string        `json:"currency"`
	Status      PaymentStatus `json:"status"`
	AuthURL     string        `json:"authorization_url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

func (p *PaymentAttempt) Transition(next PaymentStatus, at time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return errors.Wrapf(ErrInvalidTransition, "payment %s: %s -> %s", p.GatewayRef, p.Status, next)
	}
	p.Status = next
	p.UpdatedAt = at
	if next == PaymentStatusCompleted {
		p.CompletedAt = &at
	}
	return nil
}

// Covers reports whether the captured amount settles the booking total exactly.
func (p PaymentAttempt) Covers(b Booking) bool {
	return p.PaidAmount == b.Pricing.Total && p.Currency == b.Currency
}

type PaymentLogEvent string

const (
	PaymentLogInitiated       PaymentLogEvent = "INITIATED"
	PaymentLogWebhook         PaymentLogEvent = "WEBHOOK"
	PaymentLogVerified        PaymentLogEvent = "VERIFIED"
	PaymentLogCompleted       PaymentLogEvent = "COMPLETED"
	PaymentLogFailed          PaymentLogEvent = "FAILED"
	PaymentLogRefundInitiated PaymentLogEvent = "REFUND_INITIATED"
	PaymentLogRefundCompleted PaymentLogEvent = "REFUND_COMPLETED"
)

// PaymentLog is an append-only audit record of one step of a payment.
type PaymentLog struct {
	BookingID  uuid.UUID              `json:"booking_id" bson:"booking_id"`
	GatewayRef string                 `json:"gateway_ref" bson:"gateway_ref"`
	Event      PaymentLogEvent        `json:"event" bson:"event"`
	Amount     int64                  `json:"amount" bson:"amount"`
	Currency   string                 `json:"currency" bson:"currency"`
	Message    string                 `json:"message,omitempty" bson:"message,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty" bson:"payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}
