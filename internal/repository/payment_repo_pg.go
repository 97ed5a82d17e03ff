package repository

import (
	"context"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, booking_id, gateway_ref, amount, paid_amount, currency, status, authorization_url, created_at, updated_at, completed_at`

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

// Create fails with domain.ErrConflict when the gateway reference exists or
// the booking already has a completed attempt.
func (r *PGPaymentRepository) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO payment_attempts (id, booking_id, gateway_ref, amount, paid_amount, currency, status, authorization_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		attempt.ID, attempt.BookingID, attempt.GatewayRef, attempt.Amount, attempt.PaidAmount, attempt.Currency,
		attempt.Status, attempt.AuthURL, attempt.CreatedAt, attempt.UpdatedAt)
	return mapPgError(err)
}

func (r *PGPaymentRepository) GetByRef(ctx context.Context, gatewayRef string) (*domain.PaymentAttempt, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payment_attempts WHERE gateway_ref=$1`, gatewayRef)
}

func (r *PGPaymentRepository) GetByRefForUpdate(ctx context.Context, gatewayRef string) (*domain.PaymentAttempt, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payment_attempts WHERE gateway_ref=$1 FOR UPDATE`, gatewayRef)
}

func (r *PGPaymentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentAttempt, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+paymentColumns+` FROM payment_attempts WHERE booking_id=$1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.PaymentAttempt
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *p)
	}
	return attempts, rows.Err()
}

func (r *PGPaymentRepository) Update(ctx context.Context, attempt *domain.PaymentAttempt) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE payment_attempts SET status=$1, paid_amount=$2, currency=$3, authorization_url=$4, updated_at=$5, completed_at=$6
		WHERE id=$7`,
		attempt.Status, attempt.PaidAmount, attempt.Currency, attempt.AuthURL, attempt.UpdatedAt, attempt.CompletedAt, attempt.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (r *PGPaymentRepository) get(ctx context.Context, sql string, ref string) (*domain.PaymentAttempt, error) {
	p, err := scanPayment(conn(ctx, r.db).QueryRow(ctx, sql, ref))
	if err != nil {
		return nil, notFound(err, domain.ErrAttemptNotFound)
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*domain.PaymentAttempt, error) {
	var p domain.PaymentAttempt
	if err := row.Scan(&p.ID, &p.BookingID, &p.GatewayRef, &p.Amount, &p.PaidAmount, &p.Currency, &p.Status, &p.AuthURL,
		&p.CreatedAt, &p.UpdatedAt, &p.CompletedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
