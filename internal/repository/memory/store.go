// Package memory keeps the booking state in process. It implements the
// repository interfaces for single-instance runs and service tests.
package memory

import (
	"context"
	"sync"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/repository"
	"github.com/google/uuid"
)

type txKey struct{}

type inventoryKey struct {
	flightID int64
	class    domain.SeatClass
}

// Store serializes transactions with txMu and guards data with mu. A failed
// transaction restores the snapshot taken when it began.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	flightSeq int64
	flights   map[int64]domain.Flight
	inventory map[inventoryKey]domain.FlightInventory
	holds     map[uuid.UUID]domain.Hold
	bookings  map[uuid.UUID]domain.Booking
	payments  map[string]domain.PaymentAttempt
}

func NewStore() *Store {
	return &Store{
		flights:   make(map[int64]domain.Flight),
		inventory: make(map[inventoryKey]domain.FlightInventory),
		holds:     make(map[uuid.UUID]domain.Hold),
		bookings:  make(map[uuid.UUID]domain.Booking),
		payments:  make(map[string]domain.PaymentAttempt),
	}
}

func (s *Store) Flights() repository.FlightRepository { return &flightRepo{s} }
func (s *Store) Inventory() repository.InventoryRepository { return &inventoryRepo{s} }
func (s *Store) Holds() repository.HoldRepository { return &holdRepo{s} }
func (s *Store) Bookings() repository.BookingRepository { return &bookingRepo{s} }
func (s *Store) Payments() repository.PaymentRepository { return &paymentRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	txCtx, committed := repository.WithCommitHooks(context.WithValue(ctx, txKey{}, s))
	if err := s.exclusive(txCtx, fn); err != nil {
		return err
	}
	committed(ctx)
	return nil
}

func (s *Store) exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.snapshot()
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// write runs fn under the data lock. Outside a transaction it also takes the
// transaction lock so that a rollback never discards a concurrent write.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

type snapshot struct {
	flightSeq int64
	flights   map[int64]domain.Flight
	inventory map[inventoryKey]domain.FlightInventory
	holds     map[uuid.UUID]domain.Hold
	bookings  map[uuid.UUID]domain.Booking
	payments  map[string]domain.PaymentAttempt
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		flightSeq: s.flightSeq,
		flights:   cloneMap(s.flights),
		inventory: cloneMap(s.inventory),
		holds:     cloneMap(s.holds),
		bookings:  cloneMap(s.bookings),
		payments:  cloneMap(s.payments),
	}
}

func (s *Store) restore(snap snapshot) {
	s.flightSeq = snap.flightSeq
	s.flights = snap.flights
	s.inventory = snap.inventory
	s.holds = snap.holds
	s.bookings = snap.bookings
	s.payments = snap.payments
}

// Stored values are never mutated in place, so a shallow copy is enough.
func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ repository.Transactor = (*Store)(nil)
