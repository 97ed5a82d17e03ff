package hold

import (
	"context"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/Domenick1991/airbooking-core/internal/repository"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTTL       = 15 * time.Minute
	MaxTTL           = 2 * time.Hour
	DefaultBatchSize = 100
)

type ManagerUseCase interface {
	CreateHold(ctx context.Context, input CreateHoldInput) (*domain.Hold, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	Consume(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	Release(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Hold, bool, error)
	SweepExpired(ctx context.Context, now time.Time, onExpired ExpiredHook) (SweepResult, error)
}

// Ledger is the part of the inventory ledger a hold drives.
type Ledger interface {
	Reserve(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (domain.Reservation, error)
	Release(ctx context.Context, flightID int64, class domain.SeatClass, qty int) error
	Confirm(ctx context.Context, flightID int64, class domain.SeatClass, qty int) error
}

// ExpiredHook runs inside the transaction that expired the hold. An error
// rolls that hold back to ACTIVE.
type ExpiredHook func(ctx context.Context, hold domain.Hold) error

type CreateHoldInput struct {
	FlightID int64            `json:"flight_id"`
	Class    domain.SeatClass `json:"class"`
	Quantity int              `json:"quantity"`
	Owner    string           `json:"owner"`
	TTL      time.Duration    `json:"ttl"`
}

type SweepResult struct {
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Manager struct {
	tx        repository.Transactor
	holds     repository.HoldRepository
	ledger    Ledger
	ttl       time.Duration
	batchSize int
	now       func() time.Time
	logger    observability.Logger
}

type ManagerOption func(*Manager)

func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithBatchSize(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(logger observability.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(tx repository.Transactor, holds repository.HoldRepository, ledger Ledger, opts ...ManagerOption) *Manager {
	m := &Manager{
		tx:        tx,
		holds:     holds,
		ledger:    ledger,
		ttl:       DefaultTTL,
		batchSize: DefaultBatchSize,
		now:       time.Now,
		logger:    observability.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateHold reserves seats and records an ACTIVE hold in one transaction.
func (m *Manager) CreateHold(ctx context.Context, input CreateHoldInput) (hold *domain.Hold, err error) {
	ctx, span := observability.StartSpan(ctx, "hold.create", trace.WithAttributes(
		attribute.Int64("flight.id", input.FlightID),
		attribute.Int("seat.quantity", input.Quantity),
	))
	defer func() { observability.EndSpan(span, err) }()

	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if !input.Class.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown seat class %q", input.Class)
	}
	if input.Owner == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "hold owner is required")
	}
	ttl := input.TTL
	if ttl == 0 {
		ttl = m.ttl
	}
	if ttl < 0 || ttl > MaxTTL {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "hold ttl %s out of range", ttl)
	}

	now := m.now()
	hold = &domain.Hold{
		ID:        uuid.New(),
		FlightID:  input.FlightID,
		Class:     input.Class,
		Quantity:  input.Quantity,
		Owner:     input.Owner,
		Status:    domain.HoldStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	err = m.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := m.ledger.Reserve(ctx, hold.FlightID, hold.Class, hold.Quantity); err != nil {
			return err
		}
		return m.holds.Create(ctx, hold)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("hold created", "hold_id", hold.ID, "flight_id", hold.FlightID, "class", hold.Class, "quantity", hold.Quantity, "expires_at", hold.ExpiresAt)
	return hold, nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	return m.holds.Get(ctx, id)
}

// Consume turns an ACTIVE, unexpired hold into confirmed seats. An ACTIVE
// hold past its deadline is left for the sweep.
func (m *Manager) Consume(ctx context.Context, id uuid.UUID) (hold *domain.Hold, err error) {
	ctx, span := observability.StartSpan(ctx, "hold.consume", trace.WithAttributes(attribute.String("hold.id", id.String())))
	defer func() { observability.EndSpan(span, err) }()

	err = m.tx.WithinTx(ctx, func(ctx context.Context) error {
		h, err := m.holds.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := m.now()
		switch h.Status {
		case domain.HoldStatusExpired:
			return errors.Wrapf(domain.ErrHoldExpired, "hold %s", id)
		case domain.HoldStatusConsumed, domain.HoldStatusReleased:
			return errors.Wrapf(domain.ErrHoldAlreadyResolved, "hold %s is %s", id, h.Status)
		}
		if h.ExpiredAt(now) {
			return errors.Wrapf(domain.ErrHoldExpired, "hold %s expired at %s", id, h.ExpiresAt.Format(time.RFC3339))
		}
		if err := h.Transition(domain.HoldStatusConsumed, now); err != nil {
			return err
		}
		if err := m.holds.UpdateStatus(ctx, h); err != nil {
			return err
		}
		if err := m.ledger.Confirm(ctx, h.FlightID, h.Class, h.Quantity); err != nil {
			return err
		}
		hold = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// Release gives the seats of an ACTIVE hold back.
func (m *Manager) Release(ctx context.Context, id uuid.UUID) (hold *domain.Hold, err error) {
	ctx, span := observability.StartSpan(ctx, "hold.release", trace.WithAttributes(attribute.String("hold.id", id.String())))
	defer func() { observability.EndSpan(span, err) }()

	err = m.tx.WithinTx(ctx, func(ctx context.Context) error {
		h, err := m.holds.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if h.Status != domain.HoldStatusActive {
			return errors.Wrapf(domain.ErrHoldAlreadyResolved, "hold %s is %s", id, h.Status)
		}
		if err := h.Transition(domain.HoldStatusReleased, m.now()); err != nil {
			return err
		}
		if err := m.holds.UpdateStatus(ctx, h); err != nil {
			return err
		}
		if err := m.ledger.Release(ctx, h.FlightID, h.Class, h.Quantity); err != nil {
			return err
		}
		hold = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// Expire marks an ACTIVE hold past its deadline as EXPIRED. It reports false
// when the hold is no longer eligible.
func (m *Manager) Expire(ctx context.Context, id uuid.UUID, now time.Time) (hold *domain.Hold, expired bool, err error) {
	err = m.tx.WithinTx(ctx, func(ctx context.Context) error {
		h, err := m.holds.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		hold, expired = h, false
		if h.Status != domain.HoldStatusActive || !h.ExpiredAt(now) {
			return nil
		}
		if err := h.Transition(domain.HoldStatusExpired, now); err != nil {
			return err
		}
		if err := m.holds.UpdateStatus(ctx, h); err != nil {
			return err
		}
		if err := m.ledger.Release(ctx, h.FlightID, h.Class, h.Quantity); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return hold, expired, nil
}

// SweepExpired expires every ACTIVE hold past its deadline, one transaction
// per hold. A failing hold is logged and left for the next pass. Candidates
// are paged by (expires_at, id) so failures never hide later holds.
func (m *Manager) SweepExpired(ctx context.Context, now time.Time, onExpired ExpiredHook) (result SweepResult, err error) {
	ctx, span := observability.StartSpan(ctx, "hold.sweep_expired")
	defer func() { observability.EndSpan(span, err) }()

	var cursor repository.ExpiryCursor
	for {
		candidates, err := m.holds.ListExpiredActive(ctx, now, cursor, m.batchSize)
		if err != nil {
			return result, errors.Wrap(err, "list expired holds")
		}

		for _, candidate := range candidates {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			cursor = repository.ExpiryCursor{ExpiresAt: candidate.ExpiresAt, ID: candidate.ID}

			switch outcome := m.sweepOne(ctx, candidate.ID, now, onExpired); outcome {
			case "expired":
				result.Expired++
			case "skipped":
				result.Skipped++
			default:
				result.Failed++
			}
		}

		if len(candidates) < m.batchSize {
			break
		}
	}

	if result.Expired > 0 || result.Failed > 0 {
		m.logger.Info("hold sweep finished", "expired", result.Expired, "skipped", result.Skipped, "failed", result.Failed)
	}
	return result, nil
}

func (m *Manager) sweepOne(ctx context.Context, id uuid.UUID, now time.Time, onExpired ExpiredHook) string {
	outcome := "skipped"
	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		outcome = "skipped"
		h, expired, err := m.Expire(ctx, id, now)
		if err != nil {
			return err
		}
		if !expired {
			return nil
		}
		if onExpired != nil {
			if err := onExpired(ctx, *h); err != nil {
				return errors.Wrapf(err, "expired hook for hold %s", id)
			}
		}
		outcome = "expired"
		return nil
	})
	if err != nil {
		m.logger.Error("expire hold", "hold_id", id, "error", err)
		outcome = "failed"
	}
	observability.HoldsSwept.WithLabelValues(outcome).Inc()
	return outcome
}

var _ ManagerUseCase = (*Manager)(nil)
