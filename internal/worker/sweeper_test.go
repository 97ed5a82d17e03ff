package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/service/hold"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepExpired(ctx context.Context, now time.Time) (hold.SweepResult, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(hold.SweepResult), args.Error(1)
}

type memLocker struct {
	mu       sync.Mutex
	held     bool
	released int
}

type memLease struct{ l *memLocker }

func (l memLease) Release(ctx context.Context) error {
	l.l.mu.Lock()
	defer l.l.mu.Unlock()
	l.l.held = false
	l.l.released++
	return nil
}

func (m *memLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held {
		return nil, nil
	}
	m.held = true
	return memLease{m}, nil
}

func TestSweeper_RunOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	target := &MockSweeper{}
	target.On("SweepExpired", mock.Anything, now).Return(hold.SweepResult{Expired: 3}, nil).Once()
	locker := &memLocker{}

	s := NewSweeper(target, time.Minute, WithLocker(locker, time.Minute), WithClock(func() time.Time { return now }))
	res, ran, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, ran)
	assert.Equal(t, 3, res.Expired)
	assert.Equal(t, 1, locker.released)
	target.AssertExpectations(t)
}

func TestSweeper_RunOnce_LeaseHeldElsewhere(t *testing.T) {
	target := &MockSweeper{}
	locker := &memLocker{held: true}

	s := NewSweeper(target, time.Minute, WithLocker(locker, time.Minute))
	_, ran, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, ran)
	target.AssertNotCalled(t, "SweepExpired", mock.Anything, mock.Anything)
}

func TestSweeper_RunOnce_ReleasesOnError(t *testing.T) {
	target := &MockSweeper{}
	target.On("SweepExpired", mock.Anything, mock.Anything).Return(hold.SweepResult{}, errors.New("db down")).Once()
	locker := &memLocker{}

	s := NewSweeper(target, time.Minute, WithLocker(locker, time.Minute))
	_, ran, err := s.RunOnce(context.Background())

	assert.Error(t, err)
	assert.True(t, ran)
	assert.False(t, locker.held)
}

func TestSweeper_Run_StopsOnCancel(t *testing.T) {
	target := &MockSweeper{}
	target.On("SweepExpired", mock.Anything, mock.Anything).Return(hold.SweepResult{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSweeper(target, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.GreaterOrEqual(t, len(target.Calls), 2)
}
