package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no customer matches the lookup.
var ErrNotFound = errors.New("customer not found")

// Repository persists customers.
type Repository interface {
	Create(ctx context.Context, customer Customer) error
	FindByID(ctx context.Context, id string) (Customer, error)
	FindByMobile(ctx context.Context, mobile string) (Customer, error)
	Update(ctx context.Context, customer Customer) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed customer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new customer.
func (r *PostgresRepository) Create(ctx context.Context, customer Customer) error {
	customerID, err := uuid.Parse(customer.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO customers (id, mobile, name, email, address, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, customerID, customer.Mobile, customer.Name, customer.Email, customer.Address, customer.CreatedAt.UTC())
	return err
}

// FindByID fetches a customer by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return Customer{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, mobile, name, email, address, created_at FROM customers WHERE id = $1`, customerID)
	return scanCustomer(row)
}

// FindByMobile fetches a customer by mobile number.
func (r *PostgresRepository) FindByMobile(ctx context.Context, mobile string) (Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT id, mobile, name, email, address, created_at FROM customers WHERE mobile = $1`, mobile)
	return scanCustomer(row)
}

// Update stores editable profile fields.
func (r *PostgresRepository) Update(ctx context.Context, customer Customer) error {
	customerID, err := uuid.Parse(customer.ID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE customers SET name = $1, email = $2, address = $3 WHERE id = $4`,
		customer.Name, customer.Email, customer.Address, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		customer  Customer
	)
	if err := row.Scan(&id, &customer.Mobile, &customer.Name, &customer.Email, &customer.Address, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	customer.ID = id.String()
	customer.CreatedAt = createdAt.UTC()
	return customer, nil
}
