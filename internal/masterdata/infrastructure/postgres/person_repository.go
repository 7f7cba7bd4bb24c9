package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	masterdata "kitchen-billing/internal/masterdata/domain"
)

const defaultPersonsTable = "persons"

// DBTX is the subset of *sql.DB / *sql.Tx used by repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PersonRepository is a Postgres implementation for persons.
type PersonRepository struct {
	db    DBTX
	table string
}

// PersonOption configures the repository.
type PersonOption func(*PersonRepository)

// WithPersonTable overrides the default table name.
func WithPersonTable(table string) PersonOption {
	return func(repo *PersonRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewPersonRepository constructs a repository.
func NewPersonRepository(db DBTX, opts ...PersonOption) *PersonRepository {
	repo := &PersonRepository{db: db, table: defaultPersonsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const personColumns = `id, name, street, house_number, zip, city, contact, category,
	default_delivery, meal_price_override, default_meal_quantity, created_at, updated_at`

// Create inserts a person and assigns its id.
func (r *PersonRepository) Create(ctx context.Context, person *masterdata.Person) error {
	if r == nil || r.db == nil {
		return errors.New("person repo: nil db")
	}
	if person == nil {
		return errors.New("person repo: nil person")
	}
	if err := person.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	name, street, house_number, zip, city, contact, category,
	default_delivery, meal_price_override, default_meal_quantity
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING id, created_at, updated_at`, r.table)

	err := r.db.QueryRowContext(ctx, query,
		person.Name,
		person.Street,
		person.HouseNumber,
		person.Zip,
		person.City,
		person.Contact,
		string(person.Category),
		person.DefaultDelivery,
		nullDecimal(person.MealPriceOverride),
		person.DefaultMealQuantity,
	).Scan(&person.ID, &person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		return err
	}
	person.CreatedAt = person.CreatedAt.UTC()
	person.UpdatedAt = person.UpdatedAt.UTC()
	return nil
}

// Update overwrites a person's fields.
func (r *PersonRepository) Update(ctx context.Context, person *masterdata.Person) error {
	if r == nil || r.db == nil {
		return errors.New("person repo: nil db")
	}
	if person == nil {
		return errors.New("person repo: nil person")
	}
	if err := person.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
UPDATE %s SET
	name = $2,
	street = $3,
	house_number = $4,
	zip = $5,
	city = $6,
	contact = $7,
	category = $8,
	default_delivery = $9,
	meal_price_override = $10,
	default_meal_quantity = $11,
	updated_at = NOW()
WHERE id = $1`, r.table)

	res, err := r.db.ExecContext(ctx, query,
		person.ID,
		person.Name,
		person.Street,
		person.HouseNumber,
		person.Zip,
		person.City,
		person.Contact,
		string(person.Category),
		person.DefaultDelivery,
		nullDecimal(person.MealPriceOverride),
		person.DefaultMealQuantity,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Get loads a person by id. It returns nil when the person does not exist.
func (r *PersonRepository) Get(ctx context.Context, id int64) (*masterdata.Person, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("person repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, personColumns, r.table)

	person, err := scanPerson(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return person, nil
}

// List returns all persons ordered by name.
func (r *PersonRepository) List(ctx context.Context) ([]masterdata.Person, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("person repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
ORDER BY name ASC, id ASC`, personColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []masterdata.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *person)
	}
	return result, rows.Err()
}

// Delete removes a person. Orders and charges cascade.
func (r *PersonRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("person repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// GetMany loads the given persons keyed by id. Unknown ids are absent from the map.
func (r *PersonRepository) GetMany(ctx context.Context, ids []int64) (map[int64]masterdata.Person, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("person repo: nil db")
	}
	result := make(map[int64]masterdata.Person, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id IN (%s)`, personColumns, r.table, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		result[person.ID] = *person
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*masterdata.Person, error) {
	var (
		person   masterdata.Person
		category string
		override decimal.NullDecimal
	)
	if err := row.Scan(
		&person.ID,
		&person.Name,
		&person.Street,
		&person.HouseNumber,
		&person.Zip,
		&person.City,
		&person.Contact,
		&category,
		&person.DefaultDelivery,
		&override,
		&person.DefaultMealQuantity,
		&person.CreatedAt,
		&person.UpdatedAt,
	); err != nil {
		return nil, err
	}
	person.Category = masterdata.Category(category)
	if override.Valid {
		price := override.Decimal
		person.MealPriceOverride = &price
	}
	person.CreatedAt = person.CreatedAt.UTC()
	person.UpdatedAt = person.UpdatedAt.UTC()
	return &person, nil
}

func nullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *value, Valid: true}
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return masterdata.ErrPersonNotFound
	}
	return nil
}
