package repository

import (
	"bytes"
	"context"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/google/uuid"
)

// Transactor runs fn in a transaction carried by the context. A nested call
// joins the outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ExpiryCursor marks the last hold seen when paging expired holds. The zero
// value starts from the beginning.
type ExpiryCursor struct {
	ExpiresAt time.Time
	ID        uuid.UUID
}

// After reports whether h sorts after the cursor in (expires_at, id) order.
func (c ExpiryCursor) After(h domain.Hold) bool {
	if !h.ExpiresAt.Equal(c.ExpiresAt) {
		return h.ExpiresAt.After(c.ExpiresAt)
	}
	return bytes.Compare(h.ID[:], c.ID[:]) > 0
}

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error)
}

// InventoryRepository mutates counters with single conditional statements.
type InventoryRepository interface {
	Create(ctx context.Context, inv *domain.FlightInventory) error
	Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.FlightInventory, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.FlightInventory, error)
	Reserve(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error)
	Release(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error)
	Confirm(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error)
	Return(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error)
	DeleteByFlight(ctx context.Context, flightID int64) error
}

type HoldRepository interface {
	Create(ctx context.Context, hold *domain.Hold) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	UpdateStatus(ctx context.Context, hold *domain.Hold) error
	ListExpiredActive(ctx context.Context, now time.Time, after ExpiryCursor, limit int) ([]domain.Hold, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	GetByHold(ctx context.Context, holdID uuid.UUID) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
}

type PaymentRepository interface {
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error
	GetByRef(ctx context.Context, gatewayRef string) (*domain.PaymentAttempt, error)
	GetByRefForUpdate(ctx context.Context, gatewayRef string) (*domain.PaymentAttempt, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentAttempt, error)
	Update(ctx context.Context, attempt *domain.PaymentAttempt) error
}
