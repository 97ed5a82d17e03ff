package inventory

import (
	"context"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/Domenick1991/airbooking-core/internal/repository"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LedgerUseCase tracks held and confirmed seats per flight and class.
type LedgerUseCase interface {
	Reserve(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (domain.Reservation, error)
	Release(ctx context.Context, flightID int64, class domain.SeatClass, qty int) error
	Confirm(ctx context.Context, flightID int64, class domain.SeatClass, qty int) error
	Return(ctx context.Context, flightID int64, class domain.SeatClass, qty int) error
	Create(ctx context.Context, inv domain.FlightInventory) (*domain.FlightInventory, error)
	Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.FlightInventory, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.FlightInventory, error)
	Remove(ctx context.Context, flightID int64) error
}

// AvailabilityCache drops cached seat counts after a ledger change.
type AvailabilityCache interface {
	InvalidateAvailability(ctx context.Context, flightID int64) error
}

type Ledger struct {
	repo   repository.InventoryRepository
	cache  AvailabilityCache
	logger observability.Logger
}

type LedgerOption func(*Ledger)

func WithCache(cache AvailabilityCache) LedgerOption {
	return func(l *Ledger) {
		l.cache = cache
	}
}

func WithLogger(logger observability.Logger) LedgerOption {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func NewLedger(repo repository.InventoryRepository, opts ...LedgerOption) *Ledger {
	l := &Ledger{repo: repo, logger: observability.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reserve moves qty seats into held if and only if capacity remains.
func (l *Ledger) Reserve(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (res domain.Reservation, err error) {
	ctx, span := startSpan(ctx, "ledger.reserve", flightID, class, qty)
	defer func() { observability.EndSpan(span, err) }()

	inv, err := l.repo.Reserve(ctx, flightID, class, qty)
	l.record("reserve", err)
	if err != nil {
		return domain.Reservation{}, errors.Wrapf(err, "reserve %d %s seats on flight %d", qty, class, flightID)
	}
	l.invalidate(ctx, flightID)

	return domain.Reservation{
		Token:     uuid.NewString(),
		FlightID:  flightID,
		Class:     class,
		Quantity:  qty,
		Remaining: inv.Available(),
	}, nil
}

func (l *Ledger) Release(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (err error) {
	ctx, span := startSpan(ctx, "ledger.release", flightID, class, qty)
	defer func() { observability.EndSpan(span, err) }()

	_, err = l.repo.Release(ctx, flightID, class, qty)
	l.record("release", err)
	if err != nil {
		return errors.Wrapf(err, "release %d %s seats on flight %d", qty, class, flightID)
	}
	l.invalidate(ctx, flightID)
	return nil
}

// Confirm converts qty held seats into sold seats.
func (l *Ledger) Confirm(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (err error) {
	ctx, span := startSpan(ctx, "ledger.confirm", flightID, class, qty)
	defer func() { observability.EndSpan(span, err) }()

	_, err = l.repo.Confirm(ctx, flightID, class, qty)
	l.record("confirm", err)
	if err != nil {
		return errors.Wrapf(err, "confirm %d %s seats on flight %d", qty, class, flightID)
	}
	l.invalidate(ctx, flightID)
	return nil
}

// Return gives sold seats back after a confirmed booking is cancelled.
func (l *Ledger) Return(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (err error) {
	ctx, span := startSpan(ctx, "ledger.return", flightID, class, qty)
	defer func() { observability.EndSpan(span, err) }()

	_, err = l.repo.Return(ctx, flightID, class, qty)
	l.record("return", err)
	if err != nil {
		return errors.Wrapf(err, "return %d %s seats on flight %d", qty, class, flightID)
	}
	l.invalidate(ctx, flightID)
	return nil
}

func (l *Ledger) Create(ctx context.Context, inv domain.FlightInventory) (*domain.FlightInventory, error) {
	inv.Held, inv.Confirmed = 0, 0
	if err := inv.Validate(); err != nil {
		return nil, errors.Wrapf(err, "inventory for flight %d", inv.FlightID)
	}
	if err := l.repo.Create(ctx, &inv); err != nil {
		return nil, errors.Wrapf(err, "create %s inventory for flight %d", inv.Class, inv.FlightID)
	}
	l.invalidate(ctx, inv.FlightID)
	return &inv, nil
}

func (l *Ledger) Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.FlightInventory, error) {
	return l.repo.Get(ctx, flightID, class)
}

func (l *Ledger) ListByFlight(ctx context.Context, flightID int64) ([]domain.FlightInventory, error) {
	return l.repo.ListByFlight(ctx, flightID)
}

// Remove drops all inventory of a flight. It refuses while seats are held or sold.
func (l *Ledger) Remove(ctx context.Context, flightID int64) error {
	if err := l.repo.DeleteByFlight(ctx, flightID); err != nil {
		return errors.Wrapf(err, "remove inventory of flight %d", flightID)
	}
	l.invalidate(ctx, flightID)
	return nil
}

func (l *Ledger) record(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCapacityExceeded):
		outcome = "capacity_exceeded"
	case errors.Is(err, domain.ErrInsufficientHeld):
		outcome = "insufficient_held"
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	observability.LedgerOperations.WithLabelValues(op, outcome).Inc()
}

// invalidate drops the cached counts once the surrounding transaction has
// committed, so a concurrent reader cannot cache uncommitted numbers.
func (l *Ledger) invalidate(ctx context.Context, flightID int64) {
	if l.cache == nil {
		return
	}
	repository.AfterCommit(ctx, func(ctx context.Context) {
		if err := l.cache.InvalidateAvailability(ctx, flightID); err != nil {
			l.logger.Warn("invalidate availability cache", "flight_id", flightID, "error", err)
		}
	})
}

func startSpan(ctx context.Context, name string, flightID int64, class domain.SeatClass, qty int) (context.Context, trace.Span) {
	return observability.StartSpan(ctx, name, trace.WithAttributes(
		attribute.Int64("flight.id", flightID),
		attribute.String("seat.class", string(class)),
		attribute.Int("seat.quantity", qty),
	))
}

var _ LedgerUseCase = (*Ledger)(nil)
