package offer

import (
	"errors"
	"time"
)

var (
	// ErrInvalidOffer rejects offers with an empty title or a percent
	// outside (0, 100].
	ErrInvalidOffer = errors.New("invalid offer")

	// ErrNotFound indicates no offer matches the lookup.
	ErrNotFound = errors.New("offer not found")

	// ErrNoDraft is returned when a merchant has no saved draft.
	ErrNoDraft = errors.New("no draft saved")
)

// Offer is a merchant-authored cashback promotion.
type Offer struct {
	ID         string
	MerchantID string
	Title      string
	Percent    float64
	Active     bool
	ExpiresAt  time.Time // zero means no expiry
	CreatedAt  time.Time
}

// Expired reports whether the offer has lapsed at the given time.
func (o Offer) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}

// Draft holds an in-progress offer form so a merchant can resume editing.
type Draft struct {
	Title     string    `json:"title"`
	Percent   float64   `json:"percent"`
	SavedAt   time.Time `json:"saved_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// CreateInput captures the fields needed to publish an offer.
type CreateInput struct {
	MerchantID string
	Title      string
	Percent    float64
	ExpiresAt  time.Time
}
