package merchant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaback/paisaback/internal/geo"
)

// ErrNotFound indicates no merchant matches the lookup.
var ErrNotFound = errors.New("merchant not found")

// Repository persists merchants.
type Repository interface {
	Create(ctx context.Context, m Merchant) error
	FindByID(ctx context.Context, id string) (Merchant, error)
	FindByMobile(ctx context.Context, mobile string) (Merchant, error)
	Update(ctx context.Context, m Merchant) error
	// WithinRadius returns active merchants no farther than radiusKm from
	// origin. The service re-checks distances; backends may over-approximate.
	WithinRadius(ctx context.Context, origin geo.Point, radiusKm float64) ([]Merchant, error)
}

const merchantColumns = `id, business_name, contact_person, mobile, email, category_id,
        latitude, longitude, district, state, address, qr_code, status, created_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed merchant repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new merchant.
func (r *PostgresRepository) Create(ctx context.Context, m Merchant) error {
	merchantID, err := uuid.Parse(m.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO merchants (`+merchantColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		merchantID, m.BusinessName, m.ContactPerson, m.Mobile, m.Email, m.CategoryID,
		m.Location.Lat, m.Location.Lng, m.District, m.State, m.Address, m.QRCode, m.Status, m.CreatedAt.UTC())
	return err
}

// FindByID fetches a merchant by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Merchant, error) {
	merchantID, err := uuid.Parse(id)
	if err != nil {
		return Merchant{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, merchantID)
	return scanMerchant(row)
}

// FindByMobile fetches a merchant by mobile number.
func (r *PostgresRepository) FindByMobile(ctx context.Context, mobile string) (Merchant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE mobile = $1`, mobile)
	return scanMerchant(row)
}

// Update stores editable merchant fields.
func (r *PostgresRepository) Update(ctx context.Context, m Merchant) error {
	merchantID, err := uuid.Parse(m.ID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE merchants SET business_name = $1, contact_person = $2, email = $3,
        category_id = $4, latitude = $5, longitude = $6, district = $7, state = $8, address = $9
        WHERE id = $10`,
		m.BusinessName, m.ContactPerson, m.Email, m.CategoryID,
		m.Location.Lat, m.Location.Lng, m.District, m.State, m.Address, merchantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WithinRadius runs a haversine distance filter in SQL.
func (r *PostgresRepository) WithinRadius(ctx context.Context, origin geo.Point, radiusKm float64) ([]Merchant, error) {
	rows, err := r.db.Query(ctx, `SELECT `+merchantColumns+` FROM (
            SELECT *, 6371 * acos(least(1.0,
                cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2)) +
                sin(radians($1)) * sin(radians(latitude)))) AS distance_km
            FROM merchants WHERE status = 'active'
        ) m WHERE m.distance_km <= $3 ORDER BY m.distance_km`,
		origin.Lat, origin.Lng, radiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func scanMerchant(row pgx.Row) (Merchant, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		m         Merchant
	)
	if err := row.Scan(&id, &m.BusinessName, &m.ContactPerson, &m.Mobile, &m.Email, &m.CategoryID,
		&m.Location.Lat, &m.Location.Lng, &m.District, &m.State, &m.Address, &m.QRCode, &m.Status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Merchant{}, ErrNotFound
		}
		return Merchant{}, err
	}
	m.ID = id.String()
	m.CreatedAt = createdAt.UTC()
	return m, nil
}
