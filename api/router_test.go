package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/service/payment"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString(key)
	require.NoError(t, err)
	return raw
}

func newTestRouter(secret string) (*gin.Engine, *MockBookingUseCase, *MockReconciler) {
	gin.SetMode(gin.TestMode)
	bookings := &MockBookingUseCase{}
	reconciler := &MockReconciler{}
	r := NewRouter(Handlers{
		Bookings: NewBookingHandler(bookings, reconciler),
		Payments: NewPaymentHandler(reconciler),
	}, RouterConfig{JWTSecret: secret})
	return r, bookings, reconciler
}

func TestAuthMiddleware_Bearer(t *testing.T) {
	r, bookings, _ := newTestRouter(testSecret)
	bookings.On("ListByUser", mock.Anything, "user-42").Return([]domain.Booking{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(testSecret), "user-42"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	bookings.AssertExpectations(t)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"wrong secret", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), "user-42")},
		{"wrong algorithm", "Bearer " + signToken(t, jwt.SigningMethodHS384, []byte(testSecret), "user-42")},
		{"no subject", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, bookings, _ := newTestRouter(testSecret)

			req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			bookings.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthMiddleware_DevelopmentHeader(t *testing.T) {
	r, bookings, _ := newTestRouter("")
	bookings.On("ListByUser", mock.Anything, "dev-user").Return([]domain.Booking{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	req.Header.Set(userIDHeader, "dev-user")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/bookings", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_WebhookIsPublic(t *testing.T) {
	r, _, reconciler := newTestRouter(testSecret)
	body := `{"event":"charge.success","data":{"reference":"PAY-1"}}`
	reconciler.On("HandleWebhook", mock.Anything, []byte(body), "bad").Return(nil, domain.ErrInvalidSignature)

	req := httptest.NewRequest("POST", "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set(signatureHeader, "bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	reconciler.AssertExpectations(t)
}

func TestRouter_Callback(t *testing.T) {
	r, _, reconciler := newTestRouter(testSecret)
	reconciler.On("Verify", mock.Anything, "NAIA-0123456789AB").Return(&payment.Outcome{Kind: payment.OutcomeConfirmed}, nil)

	req := httptest.NewRequest("GET", "/api/v1/payments/callback?trxref=NAIA-0123456789AB", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"confirmed"`)

	req = httptest.NewRequest("GET", "/api/v1/payments/callback", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewRouter(Handlers{}, RouterConfig{HealthChecks: map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return nil },
	}})
	w := httptest.NewRecorder()
	healthy.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	broken := NewRouter(Handlers{}, RouterConfig{HealthChecks: map[string]HealthCheck{
		"postgres": func(ctx context.Context) error { return errors.New("refused") },
	}})
	w = httptest.NewRecorder()
	broken.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "postgres")
}

func TestRouter_Metrics(t *testing.T) {
	r, _, _ := newTestRouter(testSecret)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "airbooking_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrCapacityExceeded, http.StatusConflict},
		{errors.Wrap(domain.ErrHoldExpired, "consume"), http.StatusGone},
		{domain.ErrHoldAlreadyResolved, http.StatusGone},
		{domain.ErrInvalidHold, http.StatusUnprocessableEntity},
		{domain.ErrPaymentMismatch, http.StatusPaymentRequired},
		{domain.ErrAlreadyResolved, http.StatusConflict},
		{domain.ErrAlreadyPaid, http.StatusConflict},
		{domain.ErrBookingNotFound, http.StatusNotFound},
		{domain.ErrInvalidQuantity, http.StatusBadRequest},
		{domain.ErrGatewayTimeout, http.StatusGatewayTimeout},
		{domain.ErrInvalidSignature, http.StatusUnauthorized},
		{domain.ErrSerializationFailure, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, statusFor(tt.err))
		})
	}
}
