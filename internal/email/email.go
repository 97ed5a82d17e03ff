package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/cockroachdb/errors"
)

var subjects = map[domain.NotificationKind]string{
	domain.NotificationBookingConfirmation: "Booking confirmed",
	domain.NotificationBookingCancellation: "Booking cancelled",
	domain.NotificationBookingExpired:      "Booking expired",
	domain.NotificationPaymentReceived:     "Payment received",
	domain.NotificationPaymentFailed:       "Payment failed",
	domain.NotificationRefundProcessed:     "Refund processed",
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers notifications as plain emails. Delivery is a log line;
// a real mail transport plugs in through deliver.
type Sender struct {
	logger  observability.Logger
	deliver func(ctx context.Context, m Message) error
}

func NewSender(logger observability.Logger) *Sender {
	s := &Sender{logger: logger}
	s.deliver = s.logDelivery
	return s
}

func (s *Sender) Send(ctx context.Context, n domain.Notification) error {
	m, err := Compose(n)
	if err != nil {
		return err
	}
	return s.deliver(ctx, m)
}

func Compose(n domain.Notification) (Message, error) {
	if n.Email == "" {
		return Message{}, errors.Wrapf(domain.ErrInvalidInput, "no email for %s notification", n.Kind)
	}
	subject, ok := subjects[n.Kind]
	if !ok {
		return Message{}, errors.Wrapf(domain.ErrInvalidInput, "unknown notification kind %q", n.Kind)
	}

	body := fmt.Sprintf("Booking reference: %s\n", n.Reference)
	currency, _ := n.Payload["currency"].(string)
	if amount, ok := minorUnits(n.Payload["amount"]); ok {
		body += fmt.Sprintf("Amount: %s\n", formatAmount(amount, currency))
	}
	if reason, ok := n.Payload["reason"].(string); ok && reason != "" {
		body += fmt.Sprintf("Reason: %s\n", reason)
	}
	if refund, ok := minorUnits(n.Payload["refund_amount"]); ok && refund > 0 {
		body += fmt.Sprintf("Refund: %s\n", formatAmount(refund, currency))
	}

	return Message{
		To:      n.Email,
		Subject: fmt.Sprintf("%s - %s", subject, n.Reference),
		Body:    body,
	}, nil
}

func (s *Sender) logDelivery(ctx context.Context, m Message) error {
	s.logger.Info("send email", "to", m.To, "subject", m.Subject)
	return nil
}

// minorUnits accepts the numeric shapes a payload has before and after a
// JSON round trip.
func minorUnits(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func formatAmount(minor int64, currency string) string {
	if currency == "" {
		currency = "NGN"
	}
	return fmt.Sprintf("%s %d.%02d", currency, minor/100, minor%100)
}
