package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/kafka"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/Domenick1991/airbooking-core/internal/paystack"
	"github.com/Domenick1991/airbooking-core/internal/repository"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultGatewayTimeout = 30 * time.Second

type ReconcilerUseCase interface {
	RecordAttempt(ctx context.Context, bookingID uuid.UUID, gatewayRef string, amount int64, currency string) (*domain.PaymentAttempt, error)
	ApplyResult(ctx context.Context, gatewayRef string, result domain.PaymentResult, paidAmount int64, currency string) (*Outcome, error)
	Initiate(ctx context.Context, bookingID uuid.UUID, email string) (*domain.PaymentAttempt, error)
	Verify(ctx context.Context, gatewayRef string) (*Outcome, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*Outcome, error)
	ProcessRefund(ctx context.Context, req kafka.RefundRequest) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentAttempt, error)
}

type Gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
	Refund(ctx context.Context, req paystack.RefundRequest) (*paystack.Refund, error)
}

// Bookings is the booking engine as seen by payment reconciliation.
type Bookings interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, id uuid.UUID, paymentRef string) (*domain.Booking, error)
	ExpireBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	CompleteRefund(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	RequestFullRefund(ctx context.Context, b *domain.Booking, paymentRef string, amount int64, reason string)
}

type Holds interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
}

type AuditLog interface {
	Record(ctx context.Context, entry domain.PaymentLog) error
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type OutcomeKind string

const (
	OutcomeConfirmed       OutcomeKind = "confirmed"
	OutcomeFailed          OutcomeKind = "failed"
	OutcomeDuplicate       OutcomeKind = "duplicate"
	OutcomeRefundRequested OutcomeKind = "refund_requested"
	OutcomePending         OutcomeKind = "pending"
	OutcomeRefunded        OutcomeKind = "refunded"
	OutcomeIgnored         OutcomeKind = "ignored"
)

type Outcome struct {
	Kind    OutcomeKind            `json:"outcome"`
	Attempt *domain.PaymentAttempt `json:"attempt,omitempty"`
	Booking *domain.Booking        `json:"booking,omitempty"`
}

type Reconciler struct {
	tx             repository.Transactor
	payments       repository.PaymentRepository
	bookings       Bookings
	holds          Holds
	gateway        Gateway
	audit          AuditLog
	notifier       Notifier
	webhookSecret  string
	callbackURL    string
	gatewayTimeout time.Duration
	now            func() time.Time
	logger         observability.Logger
}

type Option func(*Reconciler)

func WithAuditLog(audit AuditLog) Option {
	return func(r *Reconciler) {
		r.audit = audit
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(r *Reconciler) {
		r.notifier = notifier
	}
}

func WithWebhookSecret(secret string) Option {
	return func(r *Reconciler) {
		r.webhookSecret = secret
	}
}

func WithCallbackURL(url string) Option {
	return func(r *Reconciler) {
		r.callbackURL = url
	}
}

func WithGatewayTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.gatewayTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

func WithLogger(logger observability.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func NewReconciler(tx repository.Transactor, payments repository.PaymentRepository, bookings Bookings, holds Holds, gateway Gateway, opts ...Option) *Reconciler {
	r := &Reconciler{
		tx:             tx,
		payments:       payments,
		bookings:       bookings,
		holds:          holds,
		gateway:        gateway,
		gatewayTimeout: DefaultGatewayTimeout,
		now:            time.Now,
		logger:         observability.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordAttempt stores an INITIATED attempt. Recording the same gateway
// reference again for the same booking returns the stored attempt.
func (r *Reconciler) RecordAttempt(ctx context.Context, bookingID uuid.UUID, gatewayRef string, amount int64, currency string) (attempt *domain.PaymentAttempt, err error) {
	if gatewayRef == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "gateway reference is required")
	}
	if amount <= 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "amount must be positive")
	}

	var created bool
	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		created = false
		existing, err := r.payments.GetByRef(ctx, gatewayRef)
		switch {
		case err == nil:
			if existing.BookingID != bookingID {
				return errors.Wrapf(domain.ErrConflict, "reference %s belongs to another booking", gatewayRef)
			}
			attempt = existing
			return nil
		case !errors.Is(err, domain.ErrAttemptNotFound):
			return err
		}

		if _, err := r.bookings.Get(ctx, bookingID); err != nil {
			return err
		}
		if err := r.ensureUnpaid(ctx, bookingID); err != nil {
			return err
		}

		now := r.now()
		attempt = &domain.PaymentAttempt{
			ID:         uuid.New(),
			BookingID:  bookingID,
			GatewayRef: gatewayRef,
			Amount:     amount,
			Currency:   currency,
			Status:     domain.PaymentStatusInitiated,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		created = true
		return r.payments.Create(ctx, attempt)
	})
	if err != nil {
		return nil, err
	}
	if created {
		r.record(ctx, attempt, domain.PaymentLogInitiated, "payment attempt recorded", nil)
	}
	return attempt, nil
}

// ApplyResult applies a gateway result to the stored attempt. The outcome
// depends only on the stored state, so redelivered results are harmless.
func (r *Reconciler) ApplyResult(ctx context.Context, gatewayRef string, result domain.PaymentResult, paidAmount int64, currency string) (out *Outcome, err error) {
	ctx, span := observability.StartSpan(ctx, "payment.apply_result", trace.WithAttributes(
		attribute.String("payment.ref", gatewayRef),
		attribute.String("payment.result", string(result)),
	))
	defer func() { observability.EndSpan(span, err) }()

	if result != domain.PaymentResultSuccess && result != domain.PaymentResultFailure {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown payment result %q", result)
	}

	var (
		attempt    *domain.PaymentAttempt
		duplicate  bool
		mismatched *domain.Booking
	)
	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		duplicate, mismatched = false, nil
		a, err := r.payments.GetByRefForUpdate(ctx, gatewayRef)
		if err != nil {
			return err
		}
		attempt = a

		if a.Status != domain.PaymentStatusInitiated {
			duplicate = true
			return nil
		}

		now := r.now()
		a.PaidAmount = paidAmount
		if currency != "" {
			a.Currency = currency
		}
		if result == domain.PaymentResultFailure {
			if err := a.Transition(domain.PaymentStatusFailed, now); err != nil {
				return err
			}
			return r.payments.Update(ctx, a)
		}

		if err := r.ensureUnpaid(ctx, a.BookingID); err != nil {
			return err
		}
		b, err := r.bookings.Get(ctx, a.BookingID)
		if err != nil {
			return err
		}
		if !a.Covers(*b) {
			// A capture that cannot settle the booking never counts as paid.
			mismatched = b
			if err := a.Transition(domain.PaymentStatusFailed, now); err != nil {
				return err
			}
			return r.payments.Update(ctx, a)
		}
		if err := a.Transition(domain.PaymentStatusCompleted, now); err != nil {
			return err
		}
		return r.payments.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	switch {
	case mismatched != nil:
		return nil, r.mismatch(ctx, attempt, mismatched)
	case result == domain.PaymentResultSuccess && attempt.Status == domain.PaymentStatusCompleted:
		out, err = r.confirm(ctx, attempt, duplicate)
	case duplicate:
		out = &Outcome{Kind: OutcomeDuplicate, Attempt: attempt}
	default:
		out, err = r.fail(ctx, attempt)
	}
	if out != nil {
		observability.PaymentResults.WithLabelValues(string(out.Kind)).Inc()
	}
	return out, err
}

func (r *Reconciler) confirm(ctx context.Context, attempt *domain.PaymentAttempt, duplicate bool) (*Outcome, error) {
	if !duplicate {
		r.record(ctx, attempt, domain.PaymentLogCompleted, "payment completed", nil)
	}

	booking, err := r.bookings.ConfirmBooking(ctx, attempt.BookingID, attempt.GatewayRef)
	switch {
	case err == nil:
		if duplicate {
			return &Outcome{Kind: OutcomeDuplicate, Attempt: attempt, Booking: booking}, nil
		}
		r.notify(ctx, domain.NotificationPaymentReceived, booking, attempt)
		return &Outcome{Kind: OutcomeConfirmed, Attempt: attempt, Booking: booking}, nil
	case errors.Is(err, domain.ErrHoldExpired), errors.Is(err, domain.ErrAlreadyResolved):
		if !duplicate {
			return r.refundUnheld(ctx, attempt, err)
		}
		if errors.Is(err, domain.ErrHoldExpired) {
			return r.refundRedelivered(ctx, attempt, err)
		}
		return &Outcome{Kind: OutcomeDuplicate, Attempt: attempt}, nil
	default:
		return nil, err
	}
}

// mismatch refunds a capture whose amount or currency differs from the
// booking. The booking stays as it was and may take a new attempt.
func (r *Reconciler) mismatch(ctx context.Context, attempt *domain.PaymentAttempt, booking *domain.Booking) error {
	observability.PaymentMismatches.Inc()
	observability.PaymentResults.WithLabelValues("mismatch").Inc()
	r.logger.Error("payment does not match booking total",
		"booking_id", booking.ID, "payment_ref", attempt.GatewayRef,
		"paid", attempt.PaidAmount, "paid_currency", attempt.Currency,
		"total", booking.Pricing.Total, "currency", booking.Currency)

	details := map[string]interface{}{
		"paid":     attempt.PaidAmount,
		"expected": booking.Pricing.Total,
		"currency": booking.Currency,
	}
	r.record(ctx, attempt, domain.PaymentLogFailed, "captured amount does not match booking", details)
	if attempt.PaidAmount > 0 {
		r.bookings.RequestFullRefund(ctx, booking, attempt.GatewayRef, attempt.PaidAmount, "captured amount does not match booking total")
		r.record(ctx, attempt, domain.PaymentLogRefundInitiated, "full refund requested", details)
	}
	r.notify(ctx, domain.NotificationPaymentFailed, booking, attempt)

	return errors.Wrapf(domain.ErrPaymentMismatch, "paid %d %s, expected %d %s",
		attempt.PaidAmount, attempt.Currency, booking.Pricing.Total, booking.Currency)
}

// refundRedelivered covers a completed attempt whose confirmation failed and
// whose hold expired before the result came again. The booking is expired
// under the attempt lock, so only one delivery requests the refund.
func (r *Reconciler) refundRedelivered(ctx context.Context, attempt *domain.PaymentAttempt, cause error) (*Outcome, error) {
	var expired *domain.Booking
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		expired = nil
		if _, err := r.payments.GetByRefForUpdate(ctx, attempt.GatewayRef); err != nil {
			return err
		}
		b, err := r.bookings.Get(ctx, attempt.BookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusPending {
			return nil
		}
		expired, err = r.bookings.ExpireBooking(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired == nil {
		return &Outcome{Kind: OutcomeDuplicate, Attempt: attempt}, nil
	}
	r.requestUnheldRefund(ctx, attempt, expired, cause)
	return &Outcome{Kind: OutcomeRefundRequested, Attempt: attempt, Booking: expired}, nil
}

// refundUnheld handles money captured for seats the booking no longer holds.
func (r *Reconciler) refundUnheld(ctx context.Context, attempt *domain.PaymentAttempt, cause error) (*Outcome, error) {
	booking, err := r.bookings.Get(ctx, attempt.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusPending && errors.Is(cause, domain.ErrHoldExpired) {
		if booking, err = r.bookings.ExpireBooking(ctx, booking.ID); err != nil {
			return nil, err
		}
	}

	r.requestUnheldRefund(ctx, attempt, booking, cause)
	return &Outcome{Kind: OutcomeRefundRequested, Attempt: attempt, Booking: booking}, nil
}

func (r *Reconciler) requestUnheldRefund(ctx context.Context, attempt *domain.PaymentAttempt, booking *domain.Booking, cause error) {
	r.logger.Warn("payment captured for booking without seats", "booking_id", booking.ID, "status", booking.Status, "payment_ref", attempt.GatewayRef, "cause", cause)
	r.bookings.RequestFullRefund(ctx, booking, attempt.GatewayRef, attempt.PaidAmount, "payment arrived after seats were released")
	r.record(ctx, attempt, domain.PaymentLogRefundInitiated, "full refund requested", map[string]interface{}{"cause": cause.Error()})
}

func (r *Reconciler) fail(ctx context.Context, attempt *domain.PaymentAttempt) (*Outcome, error) {
	r.record(ctx, attempt, domain.PaymentLogFailed, "payment failed", nil)

	booking, err := r.bookings.Get(ctx, attempt.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusPending {
		h, err := r.holds.Get(ctx, booking.HoldID)
		if err != nil {
			return nil, err
		}
		if h.Status == domain.HoldStatusActive && h.ExpiredAt(r.now()) {
			if booking, err = r.bookings.ExpireBooking(ctx, booking.ID); err != nil {
				return nil, err
			}
		}
	}
	r.notify(ctx, domain.NotificationPaymentFailed, booking, attempt)
	return &Outcome{Kind: OutcomeFailed, Attempt: attempt, Booking: booking}, nil
}

// Initiate opens a checkout with the gateway for a PENDING booking. An open
// INITIATED attempt is reused so a retried request keeps its reference.
func (r *Reconciler) Initiate(ctx context.Context, bookingID uuid.UUID, email string) (attempt *domain.PaymentAttempt, err error) {
	ctx, span := observability.StartSpan(ctx, "payment.initiate", trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer func() { observability.EndSpan(span, err) }()

	booking, err := r.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, errors.Wrapf(domain.ErrBookingNotPayable, "booking %s is %s", booking.Reference, booking.Status)
	}
	if email == "" {
		email = booking.ContactEmail
	}

	attempts, err := r.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	for i := range attempts {
		a := attempts[i]
		switch {
		case a.Status == domain.PaymentStatusCompleted:
			return nil, errors.Wrapf(domain.ErrAlreadyPaid, "booking %s", booking.Reference)
		case a.Status == domain.PaymentStatusInitiated && a.Amount == booking.Pricing.Total:
			if a.AuthURL != "" {
				return &a, nil
			}
			attempt = &a
		}
	}

	if attempt == nil {
		ref, err := domain.NewGatewayReference()
		if err != nil {
			return nil, err
		}
		if attempt, err = r.RecordAttempt(ctx, bookingID, ref, booking.Pricing.Total, booking.Currency); err != nil {
			return nil, err
		}
	}

	gctx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
	defer cancel()
	resp, err := r.gateway.Initialize(gctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      attempt.Amount,
		Currency:    attempt.Currency,
		Reference:   attempt.GatewayRef,
		CallbackURL: r.callbackURL,
		Metadata: map[string]string{
			"booking_reference": booking.Reference,
			"booking_id":        booking.ID.String(),
			"user_id":           booking.UserID,
		},
	})
	if err != nil {
		if errors.Is(gctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrGatewayTimeout) {
			err = errors.Mark(err, domain.ErrGatewayTimeout)
		}
		r.logger.Warn("initialize payment", "booking_id", bookingID, "payment_ref", attempt.GatewayRef, "error", err)
		return nil, err
	}

	attempt.AuthURL = resp.AuthorizationURL
	attempt.UpdatedAt = r.now()
	if err := r.payments.Update(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// Verify asks the gateway for the transaction state and applies it. A
// transaction that is still open leaves the attempt untouched.
func (r *Reconciler) Verify(ctx context.Context, gatewayRef string) (*Outcome, error) {
	attempt, err := r.payments.GetByRef(ctx, gatewayRef)
	if err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
	defer cancel()
	tx, err := r.gateway.Verify(gctx, gatewayRef)
	if err != nil {
		if errors.Is(gctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrGatewayTimeout) {
			err = errors.Mark(err, domain.ErrGatewayTimeout)
		}
		return nil, err
	}
	r.record(ctx, attempt, domain.PaymentLogVerified, "transaction verification: "+tx.Status, map[string]interface{}{
		"status":           tx.Status,
		"amount":           tx.Amount,
		"gateway_response": tx.GatewayResponse,
	})

	switch {
	case tx.Succeeded():
		return r.ApplyResult(ctx, gatewayRef, domain.PaymentResultSuccess, tx.Amount, tx.Currency)
	case tx.Failed():
		return r.ApplyResult(ctx, gatewayRef, domain.PaymentResultFailure, tx.Amount, tx.Currency)
	default:
		return &Outcome{Kind: OutcomePending, Attempt: attempt}, nil
	}
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference            string `json:"reference"`
		TransactionReference string `json:"transaction_reference"`
		Status               string `json:"status"`
		Amount               int64  `json:"amount"`
		Currency             string `json:"currency"`
	} `json:"data"`
}

// HandleWebhook authenticates and applies a gateway callback. Unknown events
// are acknowledged and ignored.
func (r *Reconciler) HandleWebhook(ctx context.Context, body []byte, signature string) (*Outcome, error) {
	if !paystack.ValidSignature(r.webhookSecret, body, signature) {
		return nil, domain.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, errors.Wrap(domain.ErrInvalidInput, "malformed webhook payload")
	}
	ref := event.Data.Reference
	if event.Event == "refund.processed" && event.Data.TransactionReference != "" {
		ref = event.Data.TransactionReference
	}

	var result domain.PaymentResult
	switch event.Event {
	case "charge.success":
		result = domain.PaymentResultSuccess
	case "charge.failed":
		result = domain.PaymentResultFailure
	case "refund.processed":
	default:
		r.logger.Debug("ignoring webhook event", "event", event.Event)
		return &Outcome{Kind: OutcomeIgnored}, nil
	}
	if ref == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "webhook without reference")
	}

	attempt, err := r.payments.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	r.record(ctx, attempt, domain.PaymentLogWebhook, "webhook received: "+event.Event, map[string]interface{}{
		"status": event.Data.Status,
		"amount": event.Data.Amount,
	})

	if event.Event == "refund.processed" {
		booking, err := r.bookings.CompleteRefund(ctx, attempt.BookingID)
		if err != nil {
			return nil, err
		}
		r.record(ctx, attempt, domain.PaymentLogRefundCompleted, "refund processed", nil)
		return &Outcome{Kind: OutcomeRefunded, Attempt: attempt, Booking: booking}, nil
	}
	return r.ApplyResult(ctx, ref, result, event.Data.Amount, event.Data.Currency)
}

// ProcessRefund sends a refund request to the gateway. Completion arrives
// later as a refund.processed webhook.
func (r *Reconciler) ProcessRefund(ctx context.Context, req kafka.RefundRequest) error {
	if req.PaymentRef == "" || req.Amount <= 0 {
		return errors.Wrapf(domain.ErrInvalidInput, "refund for %s has no payment or amount", req.Reference)
	}
	attempt, err := r.payments.GetByRef(ctx, req.PaymentRef)
	if err != nil {
		return err
	}
	if req.Amount > attempt.PaidAmount {
		return errors.Wrapf(domain.ErrInvalidInput, "refund %d exceeds captured %d", req.Amount, attempt.PaidAmount)
	}

	gctx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
	defer cancel()
	if _, err := r.gateway.Refund(gctx, paystack.RefundRequest{Transaction: req.PaymentRef, Amount: req.Amount}); err != nil {
		return errors.Wrapf(err, "refund %s", req.PaymentRef)
	}

	r.record(ctx, attempt, domain.PaymentLogRefundInitiated, req.Reason, map[string]interface{}{"amount": req.Amount})
	r.logger.Info("refund sent to gateway", "booking_reference", req.Reference, "payment_ref", req.PaymentRef, "amount", req.Amount)
	return nil
}

func (r *Reconciler) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentAttempt, error) {
	return r.payments.ListByBooking(ctx, bookingID)
}

func (r *Reconciler) ensureUnpaid(ctx context.Context, bookingID uuid.UUID) error {
	attempts, err := r.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	for _, a := range attempts {
		if a.Status == domain.PaymentStatusCompleted {
			return errors.Wrapf(domain.ErrAlreadyPaid, "payment %s", a.GatewayRef)
		}
	}
	return nil
}

func (r *Reconciler) record(ctx context.Context, attempt *domain.PaymentAttempt, event domain.PaymentLogEvent, message string, payload map[string]interface{}) {
	if r.audit == nil {
		return
	}
	entry := domain.PaymentLog{
		BookingID:  attempt.BookingID,
		GatewayRef: attempt.GatewayRef,
		Event:      event,
		Amount:     attempt.Amount,
		Currency:   attempt.Currency,
		Message:    message,
		Payload:    payload,
		CreatedAt:  r.now(),
	}
	if err := r.audit.Record(ctx, entry); err != nil {
		r.logger.Warn("write payment audit log", "payment_ref", attempt.GatewayRef, "event", event, "error", err)
	}
}

func (r *Reconciler) notify(ctx context.Context, kind domain.NotificationKind, booking *domain.Booking, attempt *domain.PaymentAttempt) {
	if r.notifier == nil || booking == nil {
		return
	}
	n := domain.Notification{
		Kind:      kind,
		UserID:    booking.UserID,
		Email:     booking.ContactEmail,
		Reference: booking.Reference,
		Payload: map[string]interface{}{
			"payment_ref": attempt.GatewayRef,
			"amount":      attempt.PaidAmount,
			"currency":    attempt.Currency,
		},
		CreatedAt: r.now(),
	}
	if err := r.notifier.Notify(ctx, n); err != nil {
		r.logger.Warn("notify", "kind", kind, "reference", booking.Reference, "error", err)
	}
}

var _ ReconcilerUseCase = (*Reconciler)(nil)
