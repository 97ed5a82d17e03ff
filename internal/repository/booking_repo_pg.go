package repository

import (
	"context"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, reference, user_id, flight_id, class, hold_id, base_price, taxes, fees, discount, total, currency,
	contact_email, status, payment_ref, cancellation_reason, refund_requested, refund_amount,
	created_at, updated_at, confirmed_at, cancelled_at, refunded_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Create inserts the booking and its passengers. A reference collision
// surfaces as domain.ErrConflict.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	q := conn(ctx, r.db)
	p := booking.Pricing
	_, err := q.Exec(ctx, `INSERT INTO bookings (id, reference, user_id, flight_id, class, hold_id, base_price, taxes, fees, discount, total,
		currency, contact_email, status, payment_ref, cancellation_reason, refund_requested, refund_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		booking.ID, booking.Reference, booking.UserID, booking.FlightID, booking.Class, booking.HoldID,
		p.BasePrice, p.Taxes, p.Fees, p.Discount, p.Total,
		booking.Currency, booking.ContactEmail, booking.Status, booking.PaymentRef, booking.CancellationReason,
		booking.RefundRequested, booking.RefundAmount, booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}

	batch := &pgx.Batch{}
	for i, pax := range booking.Passengers {
		batch.Queue(`INSERT INTO passengers (booking_id, position, title, first_name, last_name, date_of_birth, passenger_type, passport_number, seat_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			booking.ID, i, pax.Title, pax.FirstName, pax.LastName, pax.DateOfBirth, pax.Type, pax.PassportNumber, pax.SeatNumber)
	}
	if batch.Len() == 0 {
		return nil
	}
	if tx, ok := q.(pgx.Tx); ok {
		return mapPgError(tx.SendBatch(ctx, batch).Close())
	}
	return mapPgError(r.db.SendBatch(ctx, batch).Close())
}

func (r *PGBookingRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

func (r *PGBookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference)
}

func (r *PGBookingRepository) GetByHold(ctx context.Context, holdID uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE hold_id=$1`, holdID)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].Passengers, err = r.passengers(ctx, bookings[i].ID); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// Update persists the mutable lifecycle columns.
func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE bookings SET status=$1, payment_ref=$2, cancellation_reason=$3, refund_requested=$4,
		refund_amount=$5, updated_at=$6, confirmed_at=$7, cancelled_at=$8, refunded_at=$9
		WHERE id=$10`,
		booking.Status, booking.PaymentRef, booking.CancellationReason, booking.RefundRequested,
		booking.RefundAmount, booking.UpdatedAt, booking.ConfirmedAt, booking.CancelledAt, booking.RefundedAt, booking.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGBookingRepository) get(ctx context.Context, sql string, arg any) (*domain.Booking, error) {
	b, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, sql, arg))
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	if b.Passengers, err = r.passengers(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) passengers(ctx context.Context, bookingID uuid.UUID) ([]domain.Passenger, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT title, first_name, last_name, date_of_birth, passenger_type, passport_number, seat_number
		FROM passengers WHERE booking_id=$1 ORDER BY position`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	passengers := make([]domain.Passenger, 0)
	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.Title, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Type, &p.PassportNumber, &p.SeatNumber); err != nil {
			return nil, err
		}
		passengers = append(passengers, p)
	}
	return passengers, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	p := &b.Pricing
	if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.FlightID, &b.Class, &b.HoldID,
		&p.BasePrice, &p.Taxes, &p.Fees, &p.Discount, &p.Total, &b.Currency,
		&b.ContactEmail, &b.Status, &b.PaymentRef, &b.CancellationReason, &b.RefundRequested, &b.RefundAmount,
		&b.CreatedAt, &b.UpdatedAt, &b.ConfirmedAt, &b.CancelledAt, &b.RefundedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
