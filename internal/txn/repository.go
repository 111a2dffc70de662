package txn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists transactions.
type Repository interface {
	Create(ctx context.Context, t Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	FindByClientTxID(ctx context.Context, clientTxID string) (Transaction, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Transaction, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Transaction, error)
	// UpdateStatus transitions a PENDING transaction; ErrTerminalStatus when
	// the transaction was already reviewed.
	UpdateStatus(ctx context.Context, id string, to Status, cashbackPaise int64, at time.Time) error
}

const txnColumns = `id, customer_id, merchant_id, amount_paise, cashback_paise, status, client_tx_id, created_at, updated_at`

// PostgresRepository stores transactions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed transaction repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a transaction.
func (r *PostgresRepository) Create(ctx context.Context, t Transaction) error {
	txnID, err := uuid.Parse(t.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO transactions (`+txnColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txnID, t.CustomerID, t.MerchantID, t.AmountPaise, t.CashbackPaise, string(t.Status), t.ClientTxID,
		t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	return err
}

// Get fetches a transaction by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Transaction, error) {
	txnID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id = $1`, txnID)
	return scanTxn(row)
}

// FindByClientTxID fetches a transaction by its client-submitted dedup key.
func (r *PostgresRepository) FindByClientTxID(ctx context.Context, clientTxID string) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE client_tx_id = $1`, clientTxID)
	return scanTxn(row)
}

// ListByMerchant returns a merchant's transactions, newest first.
func (r *PostgresRepository) ListByMerchant(ctx context.Context, merchantID string) ([]Transaction, error) {
	return r.list(ctx, `SELECT `+txnColumns+` FROM transactions WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
}

// ListByCustomer returns a customer's transactions, newest first.
func (r *PostgresRepository) ListByCustomer(ctx context.Context, customerID string) ([]Transaction, error) {
	return r.list(ctx, `SELECT `+txnColumns+` FROM transactions WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
}

func (r *PostgresRepository) list(ctx context.Context, query, arg string) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// UpdateStatus applies the terminal transition with a conditional update so
// concurrent reviews cannot both win.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, to Status, cashbackPaise int64, at time.Time) error {
	txnID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE transactions SET status = $2, cashback_paise = $3, updated_at = $4
        WHERE id = $1 AND status = $5`, txnID, string(to), cashbackPaise, at.UTC(), string(StatusPending))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrTerminalStatus
	}
	return nil
}

func scanTxn(row pgx.Row) (Transaction, error) {
	var (
		id                   uuid.UUID
		status               string
		createdAt, updatedAt time.Time
		t                    Transaction
	)
	if err := row.Scan(&id, &t.CustomerID, &t.MerchantID, &t.AmountPaise, &t.CashbackPaise, &status, &t.ClientTxID,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	t.ID = id.String()
	t.Status = Status(status)
	t.CreatedAt = createdAt.UTC()
	t.UpdatedAt = updatedAt.UTC()
	return t, nil
}
