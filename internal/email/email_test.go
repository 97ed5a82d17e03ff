package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	m, err := Compose(domain.Notification{
		Kind:      domain.NotificationBookingConfirmation,
		Email:     "ade@example.com",
		Reference: "ABC234",
		Payload:   map[string]interface{}{"amount": float64(4050050), "currency": "NGN"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ade@example.com", m.To)
	assert.Equal(t, "Booking confirmed - ABC234", m.Subject)
	assert.Contains(t, m.Body, "Amount: NGN 40500.50")
}

func TestCompose_Invalid(t *testing.T) {
	_, err := Compose(domain.Notification{Kind: domain.NotificationBookingExpired})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = Compose(domain.Notification{Kind: "SMS_ONLY", Email: "a@b.c"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSender_Send(t *testing.T) {
	s := NewSender(observability.NewNop())
	var sent []Message
	s.deliver = func(ctx context.Context, m Message) error {
		sent = append(sent, m)
		return nil
	}

	err := s.Send(context.Background(), domain.Notification{Kind: domain.NotificationRefundProcessed, Email: "ade@example.com", Reference: "ABC234"})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "Refund processed - ABC234", sent[0].Subject)
}
