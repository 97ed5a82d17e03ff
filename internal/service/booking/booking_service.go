package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/kafka"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/Domenick1991/airbooking-core/internal/repository"
	"github.com/Domenick1991/airbooking-core/internal/service/hold"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID, paymentRef string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*domain.Booking, error)
	ExpireBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	CompleteRefund(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	Get(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	SweepExpired(ctx context.Context, now time.Time) (hold.SweepResult, error)
}

type HoldManager interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	Consume(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	Release(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Hold, bool, error)
	SweepExpired(ctx context.Context, now time.Time, onExpired hold.ExpiredHook) (hold.SweepResult, error)
}

type Ledger interface {
	Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.FlightInventory, error)
	Return(ctx context.Context, flightID int64, class domain.SeatClass, qty int) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Notifier delivers user notifications. Failures never affect booking state.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type BookingService struct {
	tx           repository.Transactor
	bookings     repository.BookingRepository
	payments     repository.PaymentRepository
	flights      repository.FlightRepository
	holds        HoldManager
	ledger       Ledger
	producer     Producer
	notifier     Notifier
	bookingTopic string
	refundTopic  string
	refunds      RefundPolicy
	now          func() time.Time
	logger       observability.Logger
}

type CreateBookingInput struct {
	HoldID       uuid.UUID          `json:"hold_id"`
	UserID       string             `json:"user_id"`
	ContactEmail string             `json:"contact_email"`
	Passengers   []domain.Passenger `json:"passengers"`
	// Pricing overrides the quote computed from the fare when set.
	Pricing  *domain.Pricing `json:"pricing,omitempty"`
	Discount int64           `json:"discount"`
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, bookingTopic, refundTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
		s.refundTopic = refundTopic
	}
}

func WithNotifier(notifier Notifier) BookingServiceOption {
	return func(s *BookingService) {
		s.notifier = notifier
	}
}

func WithRefundPolicy(policy RefundPolicy) BookingServiceOption {
	return func(s *BookingService) {
		s.refunds = policy
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(logger observability.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func NewBookingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	flights repository.FlightRepository,
	holds HoldManager,
	ledger Ledger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tx:       tx,
		bookings: bookings,
		payments: payments,
		flights:  flights,
		holds:    holds,
		ledger:   ledger,
		refunds:  DefaultRefundPolicy(),
		now:      time.Now,
		logger:   observability.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (booking *domain.Booking, err error) {
	ctx, span := observability.StartSpan(ctx, "booking.create", trace.WithAttributes(attribute.String("hold.id", input.HoldID.String())))
	defer func() { observability.EndSpan(span, err) }()

	if input.UserID == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "user id is required")
	}
	if len(input.Passengers) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "at least one passenger is required")
	}
	for _, p := range input.Passengers {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()
		h, err := s.holds.Get(ctx, input.HoldID)
		if err != nil {
			if errors.Is(err, domain.ErrHoldNotFound) {
				return errors.Wrapf(domain.ErrInvalidHold, "hold %s not found", input.HoldID)
			}
			return err
		}
		if !h.Usable(now) {
			return errors.Wrapf(domain.ErrInvalidHold, "hold %s is %s or expired", h.ID, h.Status)
		}
		if h.Owner != input.UserID {
			return errors.Wrapf(domain.ErrInvalidHold, "hold %s belongs to another user", h.ID)
		}
		if len(input.Passengers) != h.Quantity {
			return errors.Wrapf(domain.ErrPassengerCountInvalid, "%d passengers for %d seats", len(input.Passengers), h.Quantity)
		}
		if _, err := s.bookings.GetByHold(ctx, h.ID); err == nil {
			return errors.Wrapf(domain.ErrInvalidHold, "hold %s already has a booking", h.ID)
		} else if !errors.Is(err, domain.ErrBookingNotFound) {
			return err
		}

		flight, err := s.flights.GetByID(ctx, h.FlightID)
		if err != nil {
			return err
		}
		if flight.Departed(now) {
			return errors.Wrapf(domain.ErrFlightDeparted, "flight %s", flight.FlightNumber)
		}

		pricing, err := s.price(ctx, h, input)
		if err != nil {
			return err
		}
		reference, err := s.allocateReference(ctx)
		if err != nil {
			return err
		}

		booking = &domain.Booking{
			ID:           uuid.New(),
			Reference:    reference,
			UserID:       input.UserID,
			FlightID:     h.FlightID,
			Class:        h.Class,
			HoldID:       h.ID,
			Passengers:   input.Passengers,
			Pricing:      pricing,
			Currency:     flight.Currency,
			ContactEmail: input.ContactEmail,
			Status:       domain.BookingStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created", "booking_id", booking.ID, "reference", booking.Reference, "total", booking.Pricing.Total, "currency", booking.Currency)
	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

// ConfirmBooking settles a PENDING booking with a completed payment. Repeating
// it with the same payment reference returns the confirmed booking unchanged.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID uuid.UUID, paymentRef string) (booking *domain.Booking, err error) {
	ctx, span := observability.StartSpan(ctx, "booking.confirm", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
		attribute.String("payment.ref", paymentRef),
	))
	defer func() { observability.EndSpan(span, err) }()

	var (
		changed  bool
		mismatch *domain.PaymentAttempt
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		changed, mismatch = false, nil
		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		switch b.Status {
		case domain.BookingStatusPending:
		case domain.BookingStatusConfirmed:
			if b.PaymentRef == paymentRef {
				booking = b
				return nil
			}
			return errors.Wrapf(domain.ErrAlreadyResolved, "booking %s confirmed with another payment", b.Reference)
		default:
			return errors.Wrapf(domain.ErrAlreadyResolved, "booking %s is %s", b.Reference, b.Status)
		}

		attempt, err := s.payments.GetByRef(ctx, paymentRef)
		if err != nil {
			if errors.Is(err, domain.ErrAttemptNotFound) {
				return errors.Wrapf(domain.ErrPaymentNotCompleted, "no payment %s", paymentRef)
			}
			return err
		}
		if attempt.BookingID != b.ID {
			return errors.Wrapf(domain.ErrPaymentNotCompleted, "payment %s belongs to another booking", paymentRef)
		}
		if attempt.Status != domain.PaymentStatusCompleted {
			return errors.Wrapf(domain.ErrPaymentNotCompleted, "payment %s is %s", paymentRef, attempt.Status)
		}
		if !attempt.Covers(*b) {
			mismatch = attempt
			return errors.Wrapf(domain.ErrPaymentMismatch, "paid %d %s, expected %d %s",
				attempt.PaidAmount, attempt.Currency, b.Pricing.Total, b.Currency)
		}

		if _, err := s.holds.Consume(ctx, b.HoldID); err != nil {
			return err
		}

		b.PaymentRef = paymentRef
		if err := b.Transition(domain.BookingStatusConfirmed, s.now()); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		booking, changed = b, true
		return nil
	})
	if mismatch != nil {
		observability.PaymentMismatches.Inc()
		s.logger.Error("payment does not match booking total",
			"booking_id", bookingID, "payment_ref", paymentRef,
			"paid", mismatch.PaidAmount, "paid_currency", mismatch.Currency)
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return booking, nil
	}

	observability.BookingTransitions.WithLabelValues(string(domain.BookingStatusConfirmed)).Inc()
	s.logger.Info("booking confirmed", "booking_id", booking.ID, "reference", booking.Reference, "payment_ref", paymentRef)
	s.publish(ctx, "booking_confirmed", booking)
	s.notify(ctx, domain.NotificationBookingConfirmation, booking, map[string]interface{}{
		"payment_ref": paymentRef,
		"amount":      booking.Pricing.Total,
		"currency":    booking.Currency,
	})
	return booking, nil
}

// CancelBooking cancels a PENDING or CONFIRMED booking. Cancelling a confirmed
// booking returns its seats and requests a refund.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (booking *domain.Booking, err error) {
	ctx, span := observability.StartSpan(ctx, "booking.cancel", trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer func() { observability.EndSpan(span, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		now := s.now()

		switch b.Status {
		case domain.BookingStatusPending:
			h, err := s.holds.Get(ctx, b.HoldID)
			if err != nil {
				return err
			}
			if h.Status == domain.HoldStatusActive {
				if _, err := s.holds.Release(ctx, h.ID); err != nil {
					return err
				}
			}
		case domain.BookingStatusConfirmed:
			flight, err := s.flights.GetByID(ctx, b.FlightID)
			if err != nil {
				return err
			}
			if flight.Departed(now) {
				return errors.Wrapf(domain.ErrFlightDeparted, "booking %s", b.Reference)
			}
			h, err := s.holds.Get(ctx, b.HoldID)
			if err != nil {
				return err
			}
			if err := s.ledger.Return(ctx, b.FlightID, b.Class, h.Quantity); err != nil {
				return err
			}
			b.RefundAmount = s.refunds.Refund(b.Pricing, flight.DepartureTime, now)
			b.RefundRequested = b.RefundAmount > 0
		default:
			return errors.Wrapf(domain.ErrAlreadyResolved, "booking %s is %s", b.Reference, b.Status)
		}

		b.CancellationReason = reason
		if err := b.Transition(domain.BookingStatusCancelled, now); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(string(domain.BookingStatusCancelled)).Inc()
	s.logger.Info("booking cancelled", "booking_id", booking.ID, "reference", booking.Reference, "refund", booking.RefundAmount)
	s.publish(ctx, "booking_cancelled", booking)
	if booking.RefundRequested {
		s.requestRefund(ctx, booking, booking.RefundAmount, "booking cancelled")
	}
	s.notify(ctx, domain.NotificationBookingCancellation, booking, map[string]interface{}{
		"reason":        reason,
		"refund_amount": booking.RefundAmount,
	})
	return booking, nil
}

// ExpireBooking moves a PENDING booking to EXPIRED and frees its hold.
func (s *BookingService) ExpireBooking(ctx context.Context, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	var changed bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		booking, changed = b, false
		switch b.Status {
		case domain.BookingStatusExpired:
			return nil
		case domain.BookingStatusPending:
		default:
			return errors.Wrapf(domain.ErrAlreadyResolved, "booking %s is %s", b.Reference, b.Status)
		}

		now := s.now()
		h, err := s.holds.Get(ctx, b.HoldID)
		if err != nil {
			return err
		}
		if h.Status == domain.HoldStatusActive {
			if h.ExpiredAt(now) {
				_, _, err = s.holds.Expire(ctx, h.ID, now)
			} else {
				_, err = s.holds.Release(ctx, h.ID)
			}
			if err != nil {
				return err
			}
		}
		if err := s.expire(ctx, b, now); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.expired(ctx, booking)
	}
	return booking, nil
}

// CompleteRefund records that the gateway returned the money.
func (s *BookingService) CompleteRefund(ctx context.Context, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	var changed bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		booking, changed = b, false
		if b.Status == domain.BookingStatusRefunded {
			return nil
		}
		if err := b.Transition(domain.BookingStatusRefunded, s.now()); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return booking, nil
	}

	observability.BookingTransitions.WithLabelValues(string(domain.BookingStatusRefunded)).Inc()
	s.logger.Info("booking refunded", "booking_id", booking.ID, "reference", booking.Reference, "amount", booking.RefundAmount)
	s.publish(ctx, "booking_refunded", booking)
	s.notify(ctx, domain.NotificationRefundProcessed, booking, map[string]interface{}{
		"amount":   booking.RefundAmount,
		"currency": booking.Currency,
	})
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.bookings.Get(ctx, bookingID)
}

func (s *BookingService) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, reference)
}

func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// SweepExpired expires stale holds and, in the same transaction, the
// PENDING booking attached to each.
func (s *BookingService) SweepExpired(ctx context.Context, now time.Time) (hold.SweepResult, error) {
	var expired []*domain.Booking
	result, err := s.holds.SweepExpired(ctx, now, func(ctx context.Context, h domain.Hold) error {
		b, err := s.bookings.GetByHold(ctx, h.ID)
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusPending {
			return nil
		}
		b, err = s.bookings.GetForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusPending {
			return nil
		}
		if err := s.expire(ctx, b, now); err != nil {
			return err
		}
		expired = append(expired, b)
		return nil
	})
	for _, b := range expired {
		s.expired(ctx, b)
	}
	return result, err
}

func (s *BookingService) expire(ctx context.Context, b *domain.Booking, now time.Time) error {
	if err := b.Transition(domain.BookingStatusExpired, now); err != nil {
		return err
	}
	return s.bookings.Update(ctx, b)
}

func (s *BookingService) expired(ctx context.Context, b *domain.Booking) {
	observability.BookingTransitions.WithLabelValues(string(domain.BookingStatusExpired)).Inc()
	s.logger.Info("booking expired", "booking_id", b.ID, "reference", b.Reference)
	s.publish(ctx, "booking_expired", b)
	s.notify(ctx, domain.NotificationBookingExpired, b, nil)
}

// RequestFullRefund asks for the whole captured amount back. It is used when
// money arrives for seats that are no longer held.
func (s *BookingService) RequestFullRefund(ctx context.Context, b *domain.Booking, paymentRef string, amount int64, reason string) {
	refund := *b
	refund.PaymentRef = paymentRef
	s.requestRefund(ctx, &refund, amount, reason)
}

func (s *BookingService) price(ctx context.Context, h *domain.Hold, input CreateBookingInput) (domain.Pricing, error) {
	if input.Pricing != nil {
		p := input.Pricing
		return domain.NewPricing(p.BasePrice, p.Taxes, p.Fees, p.Discount)
	}
	inv, err := s.ledger.Get(ctx, h.FlightID, h.Class)
	if err != nil {
		return domain.Pricing{}, err
	}
	return domain.QuotePricing(inv.Fare, h.Quantity, input.Discount)
}

func (s *BookingService) allocateReference(ctx context.Context) (string, error) {
	for i := 0; i < domain.MaxReferenceAttempts; i++ {
		ref, err := domain.NewBookingReference()
		if err != nil {
			return "", err
		}
		_, err = s.bookings.GetByReference(ctx, ref)
		if errors.Is(err, domain.ErrBookingNotFound) {
			return ref, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", domain.ErrReferenceExhausted
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID.String(),
		Reference:  booking.Reference,
		FlightID:   booking.FlightID,
		Class:      string(booking.Class),
		Seats:      len(booking.Passengers),
		UserID:     booking.UserID,
		Email:      booking.ContactEmail,
		Status:     string(booking.Status),
		Amount:     booking.Pricing.Total,
		Currency:   booking.Currency,
		OccurredAt: s.now(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		s.logger.Warn("publish booking event", "type", eventType, "reference", booking.Reference, "error", err)
	}
}

func (s *BookingService) requestRefund(ctx context.Context, booking *domain.Booking, amount int64, reason string) {
	s.logger.Info("refund requested", "booking_id", booking.ID, "payment_ref", booking.PaymentRef, "amount", amount, "reason", reason)
	if s.producer == nil || s.refundTopic == "" {
		return
	}
	req := kafka.RefundRequest{
		BookingID:   booking.ID.String(),
		Reference:   booking.Reference,
		PaymentRef:  booking.PaymentRef,
		Amount:      amount,
		Currency:    booking.Currency,
		Reason:      reason,
		RequestedAt: s.now(),
	}
	if err := s.producer.Publish(ctx, s.refundTopic, booking.Reference, req); err != nil {
		s.logger.Error("publish refund request", "reference", booking.Reference, "error", err)
	}
}

func (s *BookingService) notify(ctx context.Context, kind domain.NotificationKind, booking *domain.Booking, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	n := domain.Notification{
		Kind:      kind,
		UserID:    booking.UserID,
		Email:     booking.ContactEmail,
		Reference: booking.Reference,
		Payload:   payload,
		CreatedAt: s.now(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notify", "kind", kind, "reference", booking.Reference, "error", err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
