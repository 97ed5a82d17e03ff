package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/repository"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type flightRepo struct{ s *Store }

func (r *flightRepo) List(ctx context.Context) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	_ = r.s.read(func() error {
		for _, f := range r.s.flights {
			if f.Status == domain.FlightStatusScheduled {
				flights = append(flights, f)
			}
		}
		return nil
	})
	sort.Slice(flights, func(i, j int) bool { return flights[i].DepartureTime.Before(flights[j].DepartureTime) })
	return flights, nil
}

func (r *flightRepo) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var out *domain.Flight
	err := r.s.read(func() error {
		f, ok := r.s.flights[id]
		if !ok {
			return domain.ErrFlightNotFound
		}
		out = &f
		return nil
	})
	return out, err
}

func (r *flightRepo) Create(ctx context.Context, flight *domain.Flight) error {
	return r.s.write(ctx, func() error {
		r.s.flightSeq++
		now := time.Now()
		flight.ID = r.s.flightSeq
		if flight.Status == "" {
			flight.Status = domain.FlightStatusScheduled
		}
		flight.CreatedAt, flight.UpdatedAt = now, now
		r.s.flights[flight.ID] = *flight
		return nil
	})
}

func (r *flightRepo) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error) {
	var out *domain.Flight
	err := r.s.write(ctx, func() error {
		f, ok := r.s.flights[id]
		if !ok {
			return domain.ErrFlightNotFound
		}
		f.Status = status
		f.UpdatedAt = time.Now()
		r.s.flights[id] = f
		out = &f
		return nil
	})
	return out, err
}

type inventoryRepo struct{ s *Store }

func (r *inventoryRepo) Create(ctx context.Context, inv *domain.FlightInventory) error {
	return r.s.write(ctx, func() error {
		key := inventoryKey{inv.FlightID, inv.Class}
		if _, ok := r.s.inventory[key]; ok {
			return errors.Wrapf(domain.ErrConflict, "inventory %d/%s exists", inv.FlightID, inv.Class)
		}
		if _, ok := r.s.flights[inv.FlightID]; !ok {
			return domain.ErrFlightNotFound
		}
		inv.UpdatedAt = time.Now()
		r.s.inventory[key] = *inv
		return nil
	})
}

func (r *inventoryRepo) Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.FlightInventory, error) {
	var out *domain.FlightInventory
	err := r.s.read(func() error {
		inv, ok := r.s.inventory[inventoryKey{flightID, class}]
		if !ok {
			return domain.ErrInventoryNotFound
		}
		out = &inv
		return nil
	})
	return out, err
}

func (r *inventoryRepo) ListByFlight(ctx context.Context, flightID int64) ([]domain.FlightInventory, error) {
	result := make([]domain.FlightInventory, 0, 3)
	_ = r.s.read(func() error {
		for key, inv := range r.s.inventory {
			if key.flightID == flightID {
				result = append(result, inv)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Class < result[j].Class })
	return result, nil
}

func (r *inventoryRepo) Reserve(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error) {
	return r.mutate(ctx, flightID, class, qty, func(inv *domain.FlightInventory) error {
		if inv.Held+inv.Confirmed+qty > inv.Total {
			return domain.ErrCapacityExceeded
		}
		inv.Held += qty
		return nil
	})
}

func (r *inventoryRepo) Release(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error) {
	return r.mutate(ctx, flightID, class, qty, func(inv *domain.FlightInventory) error {
		inv.Held = max(inv.Held-qty, 0)
		return nil
	})
}

func (r *inventoryRepo) Confirm(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error) {
	return r.mutate(ctx, flightID, class, qty, func(inv *domain.FlightInventory) error {
		if inv.Held < qty {
			return domain.ErrInsufficientHeld
		}
		inv.Held -= qty
		inv.Confirmed += qty
		return nil
	})
}

func (r *inventoryRepo) Return(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error) {
	return r.mutate(ctx, flightID, class, qty, func(inv *domain.FlightInventory) error {
		inv.Confirmed = max(inv.Confirmed-qty, 0)
		return nil
	})
}

func (r *inventoryRepo) DeleteByFlight(ctx context.Context, flightID int64) error {
	return r.s.write(ctx, func() error {
		for key, inv := range r.s.inventory {
			if key.flightID == flightID && (inv.Held > 0 || inv.Confirmed > 0) {
				return errors.Wrapf(domain.ErrConflict, "flight %d still has seats held or sold", flightID)
			}
		}
		for key := range r.s.inventory {
			if key.flightID == flightID {
				delete(r.s.inventory, key)
			}
		}
		return nil
	})
}

func (r *inventoryRepo) mutate(ctx context.Context, flightID int64, class domain.SeatClass, qty int, apply func(*domain.FlightInventory) error) (*domain.FlightInventory, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	var out *domain.FlightInventory
	err := r.s.write(ctx, func() error {
		key := inventoryKey{flightID, class}
		inv, ok := r.s.inventory[key]
		if !ok {
			return domain.ErrInventoryNotFound
		}
		if err := apply(&inv); err != nil {
			return err
		}
		inv.Version++
		inv.UpdatedAt = time.Now()
		r.s.inventory[key] = inv
		out = &inv
		return nil
	})
	return out, err
}

type holdRepo struct{ s *Store }

func (r *holdRepo) Create(ctx context.Context, hold *domain.Hold) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.holds[hold.ID]; ok {
			return domain.ErrConflict
		}
		r.s.holds[hold.ID] = *hold
		return nil
	})
}

func (r *holdRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	var out *domain.Hold
	err := r.s.read(func() error {
		h, ok := r.s.holds[id]
		if !ok {
			return domain.ErrHoldNotFound
		}
		out = &h
		return nil
	})
	return out, err
}

// GetForUpdate relies on the transaction lock for exclusivity.
func (r *holdRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	return r.Get(ctx, id)
}

func (r *holdRepo) UpdateStatus(ctx context.Context, hold *domain.Hold) error {
	return r.s.write(ctx, func() error {
		h, ok := r.s.holds[hold.ID]
		if !ok {
			return domain.ErrHoldNotFound
		}
		h.Status = hold.Status
		h.ResolvedAt = hold.ResolvedAt
		r.s.holds[hold.ID] = h
		return nil
	})
}

func (r *holdRepo) ListExpiredActive(ctx context.Context, now time.Time, after repository.ExpiryCursor, limit int) ([]domain.Hold, error) {
	var holds []domain.Hold
	_ = r.s.read(func() error {
		for _, h := range r.s.holds {
			if h.Status == domain.HoldStatusActive && h.ExpiredAt(now) && after.After(h) {
				holds = append(holds, h)
			}
		}
		return nil
	})
	sort.Slice(holds, func(i, j int) bool {
		prev := repository.ExpiryCursor{ExpiresAt: holds[i].ExpiresAt, ID: holds[i].ID}
		return prev.After(holds[j])
	})
	if limit > 0 && len(holds) > limit {
		holds = holds[:limit]
	}
	return holds, nil
}

type bookingRepo struct{ s *Store }

func (r *bookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	return r.s.write(ctx, func() error {
		for _, b := range r.s.bookings {
			if b.Reference == booking.Reference {
				return errors.Wrapf(domain.ErrConflict, "reference %s taken", booking.Reference)
			}
			if b.HoldID == booking.HoldID {
				return errors.Wrapf(domain.ErrConflict, "hold %s already booked", booking.HoldID)
			}
		}
		r.s.bookings[booking.ID] = cloneBooking(*booking)
		return nil
	})
}

func (r *bookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.find(func(b domain.Booking) bool { return b.ID == id })
}

func (r *bookingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.Get(ctx, id)
}

func (r *bookingRepo) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.find(func(b domain.Booking) bool { return b.Reference == reference })
}

func (r *bookingRepo) GetByHold(ctx context.Context, holdID uuid.UUID) (*domain.Booking, error) {
	return r.find(func(b domain.Booking) bool { return b.HoldID == holdID })
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	_ = r.s.read(func() error {
		for _, b := range r.s.bookings {
			if b.UserID == userID {
				bookings = append(bookings, cloneBooking(b))
			}
		}
		return nil
	})
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })
	return bookings, nil
}

func (r *bookingRepo) Update(ctx context.Context, booking *domain.Booking) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.bookings[booking.ID]; !ok {
			return domain.ErrBookingNotFound
		}
		r.s.bookings[booking.ID] = cloneBooking(*booking)
		return nil
	})
}

func (r *bookingRepo) find(match func(domain.Booking) bool) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.s.read(func() error {
		for _, b := range r.s.bookings {
			if match(b) {
				c := cloneBooking(b)
				out = &c
				return nil
			}
		}
		return domain.ErrBookingNotFound
	})
	return out, err
}

func cloneBooking(b domain.Booking) domain.Booking {
	b.Passengers = append([]domain.Passenger(nil), b.Passengers...)
	return b
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.payments[attempt.GatewayRef]; ok {
			return errors.Wrapf(domain.ErrConflict, "gateway ref %s exists", attempt.GatewayRef)
		}
		r.s.payments[attempt.GatewayRef] = *attempt
		return nil
	})
}

func (r *paymentRepo) GetByRef(ctx context.Context, gatewayRef string) (*domain.PaymentAttempt, error) {
	var out *domain.PaymentAttempt
	err := r.s.read(func() error {
		p, ok := r.s.payments[gatewayRef]
		if !ok {
			return domain.ErrAttemptNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *paymentRepo) GetByRefForUpdate(ctx context.Context, gatewayRef string) (*domain.PaymentAttempt, error) {
	return r.GetByRef(ctx, gatewayRef)
}

func (r *paymentRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentAttempt, error) {
	var attempts []domain.PaymentAttempt
	_ = r.s.read(func() error {
		for _, p := range r.s.payments {
			if p.BookingID == bookingID {
				attempts = append(attempts, p)
			}
		}
		return nil
	})
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].CreatedAt.Before(attempts[j].CreatedAt) })
	return attempts, nil
}

// Update enforces a single completed attempt per booking.
func (r *paymentRepo) Update(ctx context.Context, attempt *domain.PaymentAttempt) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.payments[attempt.GatewayRef]; !ok {
			return domain.ErrAttemptNotFound
		}
		if attempt.Status == domain.PaymentStatusCompleted {
			for ref, p := range r.s.payments {
				if ref != attempt.GatewayRef && p.BookingID == attempt.BookingID && p.Status == domain.PaymentStatusCompleted {
					return errors.Wrapf(domain.ErrConflict, "booking %s already has a completed payment", attempt.BookingID)
				}
			}
		}
		r.s.payments[attempt.GatewayRef] = *attempt
		return nil
	})
}

var (
	_ repository.FlightRepository    = (*flightRepo)(nil)
	_ repository.InventoryRepository = (*inventoryRepo)(nil)
	_ repository.HoldRepository      = (*holdRepo)(nil)
	_ repository.BookingRepository   = (*bookingRepo)(nil)
	_ repository.PaymentRepository   = (*paymentRepo)(nil)
)
