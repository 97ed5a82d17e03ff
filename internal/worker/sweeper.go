package worker

import (
	"context"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/Domenick1991/airbooking-core/internal/service/hold"
)

const (
	lockName        = "hold-sweeper"
	DefaultInterval = time.Minute
)

type ExpirySweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (hold.SweepResult, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out a lease to one process at a time. A nil lease means
// another process holds it.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (Lease, error)
}

type LockerFunc func(ctx context.Context, name string, ttl time.Duration) (Lease, error)

func (f LockerFunc) TryLock(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	return f(ctx, name, ttl)
}

// Sweeper periodically expires stale holds and their bookings.
type Sweeper struct {
	target   ExpirySweeper
	locker   Locker
	interval time.Duration
	lockTTL  time.Duration
	now      func() time.Time
	logger   observability.Logger
}

type SweeperOption func(*Sweeper)

func WithLocker(locker Locker, ttl time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

func WithLogger(logger observability.Logger) SweeperOption {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func NewSweeper(target ExpirySweeper, interval time.Duration, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Sweeper{
		target:   target,
		interval: interval,
		lockTTL:  2 * interval,
		now:      time.Now,
		logger:   observability.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("expiration sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one sweep. ran is false when another instance holds the
// lease.
func (s *Sweeper) RunOnce(ctx context.Context) (result hold.SweepResult, ran bool, err error) {
	if s.locker != nil {
		lease, err := s.locker.TryLock(ctx, lockName, s.lockTTL)
		if err != nil {
			return result, false, err
		}
		if lease == nil {
			s.logger.Debug("sweep skipped, lease held elsewhere")
			return result, false, nil
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("release sweeper lease", "error", err)
			}
		}()
	}

	started := s.now()
	result, err = s.target.SweepExpired(ctx, started)
	if err != nil {
		return result, true, err
	}
	if result.Expired > 0 || result.Failed > 0 {
		s.logger.Info("expiration sweep finished",
			"expired", result.Expired,
			"skipped", result.Skipped,
			"failed", result.Failed,
			"took", time.Since(started))
	}
	return result, true, nil
}
