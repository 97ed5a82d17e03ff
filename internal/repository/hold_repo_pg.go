package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const holdColumns = `id, flight_id, class, quantity, owner, status, created_at, expires_at, resolved_at`

type PGHoldRepository struct {
	db *pgxpool.Pool
}

func NewHoldRepository(db *pgxpool.Pool) HoldRepository {
	return &PGHoldRepository{db: db}
}

func (r *PGHoldRepository) Create(ctx context.Context, hold *domain.Hold) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO holds (id, flight_id, class, quantity, owner, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		hold.ID, hold.FlightID, hold.Class, hold.Quantity, hold.Owner, hold.Status, hold.CreatedAt, hold.ExpiresAt)
	return mapPgError(err)
}

func (r *PGHoldRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	return r.get(ctx, `SELECT `+holdColumns+` FROM holds WHERE id=$1`, id)
}

func (r *PGHoldRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	return r.get(ctx, `SELECT `+holdColumns+` FROM holds WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGHoldRepository) UpdateStatus(ctx context.Context, hold *domain.Hold) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE holds SET status=$1, resolved_at=$2 WHERE id=$3`, hold.Status, hold.ResolvedAt, hold.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

// ListExpiredActive pages ACTIVE holds past now in (expires_at, id) order,
// starting after the cursor.
func (r *PGHoldRepository) ListExpiredActive(ctx context.Context, now time.Time, after ExpiryCursor, limit int) ([]domain.Hold, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+holdColumns+` FROM holds
		WHERE status=$1 AND expires_at <= $2 AND (expires_at, id) > ($3::timestamptz, $4::uuid)
		ORDER BY expires_at, id
		LIMIT $5`, domain.HoldStatusActive, now, after.ExpiresAt, after.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, *h)
	}
	return holds, rows.Err()
}

func (r *PGHoldRepository) get(ctx context.Context, sql string, id uuid.UUID) (*domain.Hold, error) {
	h, err := scanHold(conn(ctx, r.db).QueryRow(ctx, sql, id))
	if err != nil {
		return nil, notFound(err, domain.ErrHoldNotFound)
	}
	return h, nil
}

func scanHold(row pgx.Row) (*domain.Hold, error) {
	var h domain.Hold
	if err := row.Scan(&h.ID, &h.FlightID, &h.Class, &h.Quantity, &h.Owner, &h.Status, &h.CreatedAt, &h.ExpiresAt, &h.ResolvedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

var _ HoldRepository = (*PGHoldRepository)(nil)
