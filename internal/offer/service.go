package offer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service manages cashback offers and the merchant draft slot.
type Service struct {
	repo           Repository
	drafts         DraftStore
	defaultPercent float64
	now            func() time.Time
}

// NewService builds an offer service. defaultPercent applies to merchants
// with no live offer when cashback is computed.
func NewService(repo Repository, drafts DraftStore, defaultPercent float64) *Service {
	return &Service{repo: repo, drafts: drafts, defaultPercent: defaultPercent, now: time.Now}
}

// Create publishes a new active offer. Publishing clears any saved draft.
func (s *Service) Create(ctx context.Context, input CreateInput) (Offer, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Offer{}, ErrInvalidOffer
	}
	if input.Percent <= 0 || input.Percent > 100 {
		return Offer{}, ErrInvalidOffer
	}
	if !input.ExpiresAt.IsZero() && input.ExpiresAt.Before(s.now()) {
		return Offer{}, ErrInvalidOffer
	}

	o := Offer{
		ID:         uuid.NewString(),
		MerchantID: input.MerchantID,
		Title:      strings.TrimSpace(input.Title),
		Percent:    input.Percent,
		Active:     true,
		ExpiresAt:  input.ExpiresAt,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return Offer{}, err
	}

	if s.drafts != nil {
		_ = s.drafts.ClearDraft(ctx, input.MerchantID)
	}
	return o, nil
}

// Deactivate hides an offer from customers.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}

// ListActive returns live offers for customer browsing.
func (s *Service) ListActive(ctx context.Context) ([]Offer, error) {
	return s.repo.ListActive(ctx)
}

// ListByMerchant returns every offer a merchant authored.
func (s *Service) ListByMerchant(ctx context.Context, merchantID string) ([]Offer, error) {
	return s.repo.ListByMerchant(ctx, merchantID)
}

// Percent resolves the cashback percent for a merchant: the best live offer,
// or the platform default when none exists.
func (s *Service) Percent(ctx context.Context, merchantID string) (float64, error) {
	offers, err := s.repo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return 0, err
	}
	best := 0.0
	now := s.now()
	for _, o := range offers {
		if o.Active && !o.Expired(now) && o.Percent > best {
			best = o.Percent
		}
	}
	if best == 0 {
		best = s.defaultPercent
	}
	return best, nil
}

// SaveDraft stores an in-progress offer form for later editing.
func (s *Service) SaveDraft(ctx context.Context, merchantID string, d Draft) error {
	d.SavedAt = s.now().UTC()
	return s.drafts.SaveDraft(ctx, merchantID, d)
}

// LoadDraft returns the saved form, or ErrNoDraft.
func (s *Service) LoadDraft(ctx context.Context, merchantID string) (Draft, error) {
	return s.drafts.LoadDraft(ctx, merchantID)
}
