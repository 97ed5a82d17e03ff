package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/repository/memory"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateAvailability(ctx context.Context, flightID int64) error {
	args := m.Called(ctx, flightID)
	return args.Error(0)
}

func newLedger(t *testing.T, total int, opts ...LedgerOption) (*Ledger, int64) {
	t.Helper()
	store := memory.NewStore()
	f := &domain.Flight{FlightNumber: "NA101", DepartureTime: time.Now().Add(24 * time.Hour), Currency: "NGN"}
	require.NoError(t, store.Flights().Create(context.Background(), f))

	l := NewLedger(store.Inventory(), opts...)
	_, err := l.Create(context.Background(), domain.FlightInventory{FlightID: f.ID, Class: domain.SeatClassEconomy, Total: total, Fare: 3500000})
	require.NoError(t, err)
	return l, f.ID
}

func TestLedger_Reserve_Success(t *testing.T) {
	l, flightID := newLedger(t, 5)

	res, err := l.Reserve(context.Background(), flightID, domain.SeatClassEconomy, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 2, res.Quantity)
	assert.Equal(t, 3, res.Remaining)
}

func TestLedger_Reserve_CapacityExceeded(t *testing.T) {
	l, flightID := newLedger(t, 2)
	ctx := context.Background()

	_, err := l.Reserve(ctx, flightID, domain.SeatClassEconomy, 3)
	assert.True(t, errors.Is(err, domain.ErrCapacityExceeded))

	inv, err := l.Get(ctx, flightID, domain.SeatClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Held)
}

func TestLedger_ConcurrentReserveNeverExceedsCapacity(t *testing.T) {
	l, flightID := newLedger(t, 7)
	ctx := context.Background()

	var granted, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Reserve(ctx, flightID, domain.SeatClassEconomy, 1)
			switch {
			case err == nil:
				atomic.AddInt32(&granted, 1)
			case errors.Is(err, domain.ErrCapacityExceeded):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(7), granted)
	assert.Equal(t, int32(33), rejected)

	inv, err := l.Get(ctx, flightID, domain.SeatClassEconomy)
	require.NoError(t, err)
	assert.LessOrEqual(t, inv.Held+inv.Confirmed, inv.Total)
}

func TestLedger_ConfirmedSeatsReduceCapacity(t *testing.T) {
	l, flightID := newLedger(t, 3)
	ctx := context.Background()

	_, err := l.Reserve(ctx, flightID, domain.SeatClassEconomy, 2)
	require.NoError(t, err)
	require.NoError(t, l.Confirm(ctx, flightID, domain.SeatClassEconomy, 2))

	_, err = l.Reserve(ctx, flightID, domain.SeatClassEconomy, 2)
	assert.True(t, errors.Is(err, domain.ErrCapacityExceeded))

	require.NoError(t, l.Return(ctx, flightID, domain.SeatClassEconomy, 2))
	_, err = l.Reserve(ctx, flightID, domain.SeatClassEconomy, 2)
	assert.NoError(t, err)
}

func TestLedger_Confirm_InsufficientHeld(t *testing.T) {
	l, flightID := newLedger(t, 3)

	err := l.Confirm(context.Background(), flightID, domain.SeatClassEconomy, 1)
	assert.True(t, errors.Is(err, domain.ErrInsufficientHeld))
}

func TestLedger_Release(t *testing.T) {
	l, flightID := newLedger(t, 3)
	ctx := context.Background()

	_, err := l.Reserve(ctx, flightID, domain.SeatClassEconomy, 3)
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, flightID, domain.SeatClassEconomy, 3))

	inv, err := l.Get(ctx, flightID, domain.SeatClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, 3, inv.Available())
}

func TestLedger_InvalidatesCache(t *testing.T) {
	mockCache := &MockCache{}
	mockCache.On("InvalidateAvailability", mock.Anything, mock.AnythingOfType("int64")).Return(nil)

	l, flightID := newLedger(t, 3, WithCache(mockCache))
	_, err := l.Reserve(context.Background(), flightID, domain.SeatClassEconomy, 1)
	require.NoError(t, err)

	// one call for Create and one for Reserve
	mockCache.AssertNumberOfCalls(t, "InvalidateAvailability", 2)
}

func TestLedger_InvalidatesCacheAfterCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	f := &domain.Flight{FlightNumber: "NA101", DepartureTime: time.Now().Add(24 * time.Hour), Currency: "NGN"}
	require.NoError(t, store.Flights().Create(ctx, f))
	require.NoError(t, store.Inventory().Create(ctx, &domain.FlightInventory{FlightID: f.ID, Class: domain.SeatClassEconomy, Total: 3, Fare: 3500000}))

	mockCache := &MockCache{}
	mockCache.On("InvalidateAvailability", mock.Anything, f.ID).Return(nil)
	l := NewLedger(store.Inventory(), WithCache(mockCache))

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := l.Reserve(ctx, f.ID, domain.SeatClassEconomy, 1); err != nil {
			return err
		}
		mockCache.AssertNotCalled(t, "InvalidateAvailability", mock.Anything, f.ID)
		return nil
	})
	require.NoError(t, err)
	mockCache.AssertNumberOfCalls(t, "InvalidateAvailability", 1)

	err = store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := l.Reserve(ctx, f.ID, domain.SeatClassEconomy, 1); err != nil {
			return err
		}
		return errors.New("booking insert failed")
	})
	require.Error(t, err)
	mockCache.AssertNumberOfCalls(t, "InvalidateAvailability", 1)
}

func TestLedger_CacheFailureDoesNotFailReserve(t *testing.T) {
	mockCache := &MockCache{}
	mockCache.On("InvalidateAvailability", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	l, flightID := newLedger(t, 3, WithCache(mockCache))
	_, err := l.Reserve(context.Background(), flightID, domain.SeatClassEconomy, 1)
	assert.NoError(t, err)
}

func TestLedger_Create_RejectsInvalid(t *testing.T) {
	l, flightID := newLedger(t, 3)

	_, err := l.Create(context.Background(), domain.FlightInventory{FlightID: flightID, Class: "COACH", Total: 3})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = l.Create(context.Background(), domain.FlightInventory{FlightID: flightID, Class: domain.SeatClassEconomy, Total: 3})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestLedger_Remove(t *testing.T) {
	l, flightID := newLedger(t, 3)
	ctx := context.Background()

	_, err := l.Reserve(ctx, flightID, domain.SeatClassEconomy, 1)
	require.NoError(t, err)
	assert.True(t, errors.Is(l.Remove(ctx, flightID), domain.ErrConflict))

	require.NoError(t, l.Release(ctx, flightID, domain.SeatClassEconomy, 1))
	require.NoError(t, l.Remove(ctx, flightID))

	_, err = l.Get(ctx, flightID, domain.SeatClassEconomy)
	assert.True(t, errors.Is(err, domain.ErrInventoryNotFound))
}
