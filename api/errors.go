package api

import (
	"net/http"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrHoldExpired), errors.Is(err, domain.ErrHoldAlreadyResolved):
		return http.StatusGone
	case errors.Is(err, domain.ErrInvalidHold):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPaymentMismatch), errors.Is(err, domain.ErrPaymentNotCompleted):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrAlreadyResolved),
		errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrBookingNotPayable),
		errors.Is(err, domain.ErrFlightDeparted),
		errors.Is(err, domain.ErrRefundNotRequested),
		errors.Is(err, domain.ErrInsufficientHeld):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedCurrency):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrGatewayTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrGatewayRejected):
		return http.StatusBadGateway
	case domain.IsRetryable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError hides internal failure details from the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	if status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout {
		body["retryable"] = true
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
