package offer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists offers.
type Repository interface {
	Create(ctx context.Context, o Offer) error
	SetActive(ctx context.Context, id string, active bool) error
	ListActive(ctx context.Context) ([]Offer, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Offer, error)
}

// PostgresRepository stores offers in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed offer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an offer.
func (r *PostgresRepository) Create(ctx context.Context, o Offer) error {
	offerID, err := uuid.Parse(o.ID)
	if err != nil {
		return err
	}
	var expires *time.Time
	if !o.ExpiresAt.IsZero() {
		t := o.ExpiresAt.UTC()
		expires = &t
	}
	_, err = r.db.Exec(ctx, `INSERT INTO offers (id, merchant_id, title, percent, active, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		offerID, o.MerchantID, o.Title, o.Percent, o.Active, expires, o.CreatedAt.UTC())
	return err
}

// SetActive toggles offer visibility.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	offerID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE offers SET active = $1 WHERE id = $2`, active, offerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns all live offers across merchants.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]Offer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, merchant_id, title, percent, active, expires_at, created_at
        FROM offers WHERE active AND (expires_at IS NULL OR expires_at > now())
        ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

// ListByMerchant returns every offer a merchant authored.
func (r *PostgresRepository) ListByMerchant(ctx context.Context, merchantID string) ([]Offer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, merchant_id, title, percent, active, expires_at, created_at
        FROM offers WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func scanOffers(rows pgx.Rows) ([]Offer, error) {
	var result []Offer
	for rows.Next() {
		var (
			id        uuid.UUID
			expires   *time.Time
			createdAt time.Time
			o         Offer
		)
		if err := rows.Scan(&id, &o.MerchantID, &o.Title, &o.Percent, &o.Active, &expires, &createdAt); err != nil {
			return nil, err
		}
		o.ID = id.String()
		if expires != nil {
			o.ExpiresAt = expires.UTC()
		}
		o.CreatedAt = createdAt.UTC()
		result = append(result, o)
	}
	return result, rows.Err()
}

type memoryRepository struct {
	mu     sync.RWMutex
	offers map[string]Offer
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{offers: make(map[string]Offer)}
}

func (r *memoryRepository) Create(_ context.Context, o Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.offers[o.ID]; exists {
		return errors.New("offer exists")
	}
	r.offers[o.ID] = o
	return nil
}

func (r *memoryRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return ErrNotFound
	}
	o.Active = active
	r.offers[id] = o
	return nil
}

func (r *memoryRepository) ListActive(_ context.Context) ([]Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := time.Now()
	var result []Offer
	for _, o := range r.offers {
		if o.Active && !o.Expired(now) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *memoryRepository) ListByMerchant(_ context.Context, merchantID string) ([]Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Offer
	for _, o := range r.offers {
		if o.MerchantID == merchantID {
			result = append(result, o)
		}
	}
	return result, nil
}
