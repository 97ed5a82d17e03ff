package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
	BookingStatusRefunded  BookingStatus = "REFUNDED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusExpired},
	BookingStatusConfirmed: {BookingStatusCancelled},
	// Only a booking cancelled after confirmation has money to give back.
	BookingStatusCancelled: {BookingStatusRefunded},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

type PassengerType string

const (
	PassengerAdult  PassengerType = "ADULT"
	PassengerChild  PassengerType = "CHILD"
	PassengerInfant PassengerType = "INFANT"
)

type Passenger struct {
	Title          string        `json:"title"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	DateOfBirth    *time.Time    `json:"date_of_birth,omitempty"`
	Type           PassengerType `json:"passenger_type"`
	PassportNumber string        `json:"passport_number,omitempty"`
	SeatNumber     string        `json:"seat_number,omitempty"`
}

func (p Passenger) Validate() error {
	if p.FirstName == "" || p.LastName == "" {
		return errors.Wrap(ErrInvalidInput, "passenger name is required")
	}
	switch p.Type {
	case "", PassengerAdult, PassengerChild, PassengerInfant:
	default:
		return errors.Wrapf(ErrInvalidInput, "unknown passenger type %q", p.Type)
	}
	return nil
}

// Pricing amounts are minor currency units.
type Pricing struct {
	BasePrice int64 `json:"base_price"`
	Taxes     int64 `json:"taxes"`
	Fees      int64 `json:"fees"`
	Discount  int64 `json:"discount"`
	Total     int64 `json:"total"`
}

// NewPricing computes Total = base + taxes + fees - discount.
func NewPricing(base, taxes, fees, discount int64) (Pricing, error) {
	if base < 0 || taxes < 0 || fees < 0 || discount < 0 {
		return Pricing{}, errors.Wrap(ErrInvalidInput, "price components must not be negative")
	}
	total := base + taxes + fees - discount
	if total <= 0 {
		return Pricing{}, errors.Wrap(ErrInvalidInput, "total must be positive")
	}
	return Pricing{BasePrice: base, Taxes: taxes, Fees: fees, Discount: discount, Total: total}, nil
}

const (
	TaxRatePercent = 10
	ServiceFee     = int64(200000)
)

// QuotePricing prices a booking of pax seats at the given unit fare.
func QuotePricing(unitFare int64, pax int, discount int64) (Pricing, error) {
	if pax <= 0 {
		return Pricing{}, ErrInvalidQuantity
	}
	base := unitFare * int64(pax)
	taxes := base * TaxRatePercent / 100
	return NewPricing(base, taxes, ServiceFee, discount)
}

type Booking struct {
	ID                 uuid.UUID     `json:"id"`
	Reference          string        `json:"reference"`
	UserID             string        `json:"user_id"`
	FlightID           int64         `json:"flight_id"`
	Class              SeatClass     `json:"class"`
	HoldID             uuid.UUID     `json:"hold_id"`
	Passengers         []Passenger   `json:"passengers"`
	Pricing            Pricing       `json:"pricing"`
	Currency           string        `json:"currency"`
	ContactEmail       string        `json:"contact_email"`
	Status             BookingStatus `json:"status"`
	PaymentRef         string        `json:"payment_ref,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	RefundRequested    bool          `json:"refund_requested"`
	RefundAmount       int64         `json:"refund_amount"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	ConfirmedAt        *time.Time    `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	RefundedAt         *time.Time    `json:"refunded_at,omitempty"`
}

func (b *Booking) Transition(next BookingStatus, at time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return errors.Wrapf(ErrInvalidTransition, "booking %s: %s -> %s", b.Reference, b.Status, next)
	}
	if next == BookingStatusRefunded && !b.RefundRequested {
		return errors.Wrapf(ErrRefundNotRequested, "booking %s", b.Reference)
	}
	b.Status = next
	b.UpdatedAt = at
	switch next {
	case BookingStatusConfirmed:
		b.ConfirmedAt = &at
	case BookingStatusCancelled:
		b.CancelledAt = &at
	case BookingStatusRefunded:
		b.RefundedAt = &at
	}
	return nil
}

// Resolved reports whether the booking left PENDING.
func (b Booking) Resolved() bool {
	return b.Status != BookingStatusPending
}
