package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists balances and withdrawal records.
type Repository interface {
	Balance(ctx context.Context, accountID string) (int64, error)
	// Credit is idempotent per ref: applying a ref that already has a
	// wallet entry is a no-op.
	Credit(ctx context.Context, accountID string, amountPaise int64, ref string) error
	// Debit atomically reduces the balance; ErrInsufficientFunds when the
	// balance cannot cover the amount.
	Debit(ctx context.Context, accountID string, amountPaise int64, ref string) error
	CreateWithdrawal(ctx context.Context, w Withdrawal) error
	ListWithdrawals(ctx context.Context, accountID string) ([]Withdrawal, error)
}

// PostgresRepository stores balances in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Balance reads the stored amount; missing accounts read as zero.
func (r *PostgresRepository) Balance(ctx context.Context, accountID string) (int64, error) {
	row := r.db.QueryRow(ctx, `SELECT amount_paise FROM balances WHERE account_id = $1`, accountID)
	var amount int64
	if err := row.Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return amount, nil
}

// Credit adds to the balance, creating the row on first credit. The entry
// insert rides on the unique ref constraint: a replayed ref inserts nothing
// and the balance stays untouched.
func (r *PostgresRepository) Credit(ctx context.Context, accountID string, amountPaise int64, ref string) error {
	cmd, err := r.db.Exec(ctx, `INSERT INTO wallet_entries (account_id, amount_paise, ref, created_at)
        VALUES ($1, $2, $3, now()) ON CONFLICT (ref) DO NOTHING`, accountID, amountPaise, ref)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return nil
	}
	_, err = r.db.Exec(ctx, `INSERT INTO balances (account_id, amount_paise, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (account_id) DO UPDATE SET amount_paise = balances.amount_paise + $2, updated_at = now()`,
		accountID, amountPaise)
	return err
}

// Debit subtracts from the balance only when funds suffice.
func (r *PostgresRepository) Debit(ctx context.Context, accountID string, amountPaise int64, ref string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE balances SET amount_paise = amount_paise - $2, updated_at = now()
        WHERE account_id = $1 AND amount_paise >= $2`, accountID, amountPaise)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallet_entries (account_id, amount_paise, ref, created_at)
        VALUES ($1, $2, $3, now())`, accountID, -amountPaise, ref)
	return err
}

// CreateWithdrawal records a payout request.
func (r *PostgresRepository) CreateWithdrawal(ctx context.Context, w Withdrawal) error {
	withdrawalID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO withdrawals (id, account_id, amount_paise, status, created_at)
        VALUES ($1, $2, $3, $4, $5)`, withdrawalID, w.AccountID, w.AmountPaise, w.Status, w.CreatedAt.UTC())
	return err
}

// ListWithdrawals returns withdrawal records for an account, newest first.
func (r *PostgresRepository) ListWithdrawals(ctx context.Context, accountID string) ([]Withdrawal, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_id, amount_paise, status, created_at
        FROM withdrawals WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Withdrawal
	for rows.Next() {
		var (
			id        uuid.UUID
			createdAt time.Time
			w         Withdrawal
		)
		if err := rows.Scan(&id, &w.AccountID, &w.AmountPaise, &w.Status, &createdAt); err != nil {
			return nil, err
		}
		w.ID = id.String()
		w.CreatedAt = createdAt.UTC()
		result = append(result, w)
	}
	return result, rows.Err()
}
