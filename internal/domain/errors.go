package domain

import "github.com/cockroachdb/errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConflict             = errors.New("conflict")
	ErrSerializationFailure = errors.New("serialization failure")

	ErrFlightNotFound    = errors.Wrap(ErrNotFound, "flight")
	ErrInventoryNotFound = errors.Wrap(ErrNotFound, "inventory")
	ErrHoldNotFound      = errors.Wrap(ErrNotFound, "hold")
	ErrBookingNotFound   = errors.Wrap(ErrNotFound, "booking")
	ErrAttemptNotFound   = errors.Wrap(ErrNotFound, "payment attempt")

	ErrInvalidQuantity   = errors.Wrap(ErrInvalidInput, "quantity must be positive")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Inventory ledger.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInsufficientHeld = errors.New("insufficient held seats")

	// Holds.
	ErrHoldExpired         = errors.New("hold expired")
	ErrHoldAlreadyResolved = errors.New("hold already resolved")
	ErrInvalidHold         = errors.New("invalid hold")

	// Bookings.
	ErrAlreadyResolved       = errors.New("booking already resolved")
	ErrFlightDeparted        = errors.New("flight already departed")
	ErrReferenceExhausted    = errors.New("could not allocate booking reference")
	ErrPaymentNotCompleted   = errors.New("payment not completed")
	ErrPaymentMismatch       = errors.New("payment mismatch")
	ErrAlreadyPaid           = errors.New("booking already paid")
	ErrGatewayTimeout        = errors.New("payment gateway timeout")
	ErrGatewayRejected       = errors.New("payment gateway rejected request")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrUnsupportedCurrency   = errors.New("unsupported currency")
	ErrRefundNotRequested    = errors.New("refund was not requested for booking")
	ErrBookingNotPayable     = errors.New("booking is not awaiting payment")
	ErrPassengerCountInvalid = errors.Wrap(ErrInvalidInput, "passenger count must match held seats")
)

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrGatewayTimeout) || errors.Is(err, ErrSerializationFailure)
}
