package repository

import (
	"context"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const inventoryColumns = `flight_id, class, total, held, confirmed, fare, version, updated_at`

type PGInventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) InventoryRepository {
	return &PGInventoryRepository{db: db}
}

func (r *PGInventoryRepository) Create(ctx context.Context, inv *domain.FlightInventory) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO flight_inventory (flight_id, class, total, held, confirmed, fare)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING version, updated_at`,
		inv.FlightID, inv.Class, inv.Total, inv.Held, inv.Confirmed, inv.Fare).
		Scan(&inv.Version, &inv.UpdatedAt)
	return mapPgError(err)
}

func (r *PGInventoryRepository) Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.FlightInventory, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+inventoryColumns+` FROM flight_inventory WHERE flight_id=$1 AND class=$2`, flightID, class)
	inv, err := scanInventory(row)
	if err != nil {
		return nil, notFound(err, domain.ErrInventoryNotFound)
	}
	return inv, nil
}

func (r *PGInventoryRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.FlightInventory, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+inventoryColumns+` FROM flight_inventory WHERE flight_id=$1 ORDER BY class`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.FlightInventory, 0, 3)
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	return result, rows.Err()
}

// Reserve is a compare-and-increment: the row only changes while capacity remains.
func (r *PGInventoryRepository) Reserve(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error) {
	return r.mutate(ctx, flightID, class, domain.ErrCapacityExceeded, `UPDATE flight_inventory
		SET held = held + $3, version = version + 1, updated_at = now()
		WHERE flight_id=$1 AND class=$2 AND held + confirmed + $3 <= total
		RETURNING `+inventoryColumns, qty)
}

func (r *PGInventoryRepository) Release(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error) {
	return r.mutate(ctx, flightID, class, domain.ErrInventoryNotFound, `UPDATE flight_inventory
		SET held = GREATEST(held - $3, 0), version = version + 1, updated_at = now()
		WHERE flight_id=$1 AND class=$2
		RETURNING `+inventoryColumns, qty)
}

func (r *PGInventoryRepository) Confirm(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error) {
	return r.mutate(ctx, flightID, class, domain.ErrInsufficientHeld, `UPDATE flight_inventory
		SET held = held - $3, confirmed = confirmed + $3, version = version + 1, updated_at = now()
		WHERE flight_id=$1 AND class=$2 AND held >= $3
		RETURNING `+inventoryColumns, qty)
}

func (r *PGInventoryRepository) Return(ctx context.Context, flightID int64, class domain.SeatClass, qty int) (*domain.FlightInventory, error) {
	return r.mutate(ctx, flightID, class, domain.ErrInventoryNotFound, `UPDATE flight_inventory
		SET confirmed = GREATEST(confirmed - $3, 0), version = version + 1, updated_at = now()
		WHERE flight_id=$1 AND class=$2
		RETURNING `+inventoryColumns, qty)
}

func (r *PGInventoryRepository) DeleteByFlight(ctx context.Context, flightID int64) error {
	var busy int
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM flight_inventory WHERE flight_id=$1 AND (held > 0 OR confirmed > 0)`, flightID).Scan(&busy)
	if err != nil {
		return err
	}
	if busy > 0 {
		return errors.Wrapf(domain.ErrConflict, "flight %d still has seats held or sold", flightID)
	}
	_, err = conn(ctx, r.db).Exec(ctx, `DELETE FROM flight_inventory WHERE flight_id=$1`, flightID)
	return err
}

// mutate runs a conditional update. When no row matches it tells a missing
// inventory apart from a failed condition.
func (r *PGInventoryRepository) mutate(ctx context.Context, flightID int64, class domain.SeatClass, condErr error, sql string, qty int) (*domain.FlightInventory, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	inv, err := scanInventory(conn(ctx, r.db).QueryRow(ctx, sql, flightID, class, qty))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapPgError(err)
	}
	if _, getErr := r.Get(ctx, flightID, class); getErr != nil {
		return nil, getErr
	}
	return nil, condErr
}

func scanInventory(row pgx.Row) (*domain.FlightInventory, error) {
	var inv domain.FlightInventory
	if err := row.Scan(&inv.FlightID, &inv.Class, &inv.Total, &inv.Held, &inv.Confirmed, &inv.Fare, &inv.Version, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

var _ InventoryRepository = (*PGInventoryRepository)(nil)
