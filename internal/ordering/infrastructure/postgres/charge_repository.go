package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ordering "kitchen-billing/internal/ordering/domain"
)

const defaultChargesTable = "additional_charges"

// ChargeRepository persists additional charges.
type ChargeRepository struct {
	db    *sql.DB
	table string
}

// ChargeOption configures the repository.
type ChargeOption func(*ChargeRepository)

// WithChargeTable overrides the default table name.
func WithChargeTable(table string) ChargeOption {
	return func(repo *ChargeRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewChargeRepository constructs a repository.
func NewChargeRepository(db *sql.DB, opts ...ChargeOption) *ChargeRepository {
	repo := &ChargeRepository{db: db, table: defaultChargesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const chargeColumns = `id, person_id, month, description, unit_price, quantity`

// Create inserts a charge and assigns its id.
func (r *ChargeRepository) Create(ctx context.Context, charge *ordering.AdditionalCharge) error {
	if r == nil || r.db == nil {
		return errors.New("charge repo: nil db")
	}
	if charge == nil {
		return errors.New("charge repo: nil charge")
	}
	charge.Month = ordering.MonthKey(charge.Month)
	if err := charge.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (person_id, month, description, unit_price, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`, r.table)
	return r.db.QueryRowContext(ctx, query,
		charge.PersonID, charge.Month, charge.Description, charge.UnitPrice, charge.Quantity,
	).Scan(&charge.ID)
}

// Update overwrites a charge.
func (r *ChargeRepository) Update(ctx context.Context, charge *ordering.AdditionalCharge) error {
	if r == nil || r.db == nil {
		return errors.New("charge repo: nil db")
	}
	if charge == nil {
		return errors.New("charge repo: nil charge")
	}
	charge.Month = ordering.MonthKey(charge.Month)
	if err := charge.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	person_id = $2,
	month = $3,
	description = $4,
	unit_price = $5,
	quantity = $6,
	updated_at = NOW()
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		charge.ID, charge.PersonID, charge.Month, charge.Description, charge.UnitPrice, charge.Quantity)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes a charge.
func (r *ChargeRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("charge repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Get loads a charge by id. It returns nil when the charge does not exist.
func (r *ChargeRepository) Get(ctx context.Context, id int64) (*ordering.AdditionalCharge, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("charge repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, chargeColumns, r.table)
	charge, err := scanCharge(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return charge, nil
}

// ListForPerson returns a person's charges, newest month first.
func (r *ChargeRepository) ListForPerson(ctx context.Context, personID int64) ([]ordering.AdditionalCharge, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("charge repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE person_id = $1
ORDER BY month DESC, id ASC`, chargeColumns, r.table)
	return r.list(ctx, query, personID)
}

// ListForMonth returns all charges whose month key equals month's first day.
func (r *ChargeRepository) ListForMonth(ctx context.Context, month time.Time) ([]ordering.AdditionalCharge, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("charge repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE month = $1
ORDER BY person_id ASC, id ASC`, chargeColumns, r.table)
	return r.list(ctx, query, ordering.MonthKey(month))
}

func (r *ChargeRepository) list(ctx context.Context, query string, args ...any) ([]ordering.AdditionalCharge, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ordering.AdditionalCharge
	for rows.Next() {
		charge, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *charge)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharge(row rowScanner) (*ordering.AdditionalCharge, error) {
	var charge ordering.AdditionalCharge
	if err := row.Scan(
		&charge.ID,
		&charge.PersonID,
		&charge.Month,
		&charge.Description,
		&charge.UnitPrice,
		&charge.Quantity,
	); err != nil {
		return nil, err
	}
	charge.Month = ordering.MonthKey(charge.Month)
	return &charge, nil
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ordering.ErrChargeNotFound
	}
	return nil
}
