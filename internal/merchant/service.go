package merchant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paisaback/paisaback/internal/geo"
)

// ErrInvalidProfile rejects merchant profile updates with malformed fields.
var ErrInvalidProfile = errors.New("invalid merchant profile fields")

// Service manages merchant accounts and discovery.
type Service struct {
	repo Repository
}

// NewService creates a merchant service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureByMobile returns the merchant for a verified mobile number, creating
// the account on first login. New merchants start active with a QR code bound
// to their identifier.
func (s *Service) EnsureByMobile(ctx context.Context, mobile string) (Merchant, error) {
	m, err := s.repo.FindByMobile(ctx, mobile)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Merchant{}, err
	}

	id := uuid.NewString()
	m = Merchant{
		ID:        id,
		Mobile:    mobile,
		QRCode:    fmt.Sprintf("paisaback://pay/%s", id),
		Status:    StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Merchant{}, err
	}
	return m, nil
}

// Get fetches a merchant by identifier.
func (s *Service) Get(ctx context.Context, id string) (Merchant, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies editable fields to an existing merchant.
func (s *Service) UpdateProfile(ctx context.Context, id string, input ProfileInput) (Merchant, error) {
	if strings.TrimSpace(input.BusinessName) == "" {
		return Merchant{}, ErrInvalidProfile
	}
	if !input.Location.Valid() {
		return Merchant{}, ErrInvalidProfile
	}

	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Merchant{}, err
	}

	m.BusinessName = strings.TrimSpace(input.BusinessName)
	m.ContactPerson = strings.TrimSpace(input.ContactPerson)
	m.Email = strings.TrimSpace(input.Email)
	m.CategoryID = input.CategoryID
	m.Location = input.Location
	m.District = strings.TrimSpace(input.District)
	m.State = strings.TrimSpace(input.State)
	m.Address = strings.TrimSpace(input.Address)

	if err := s.repo.Update(ctx, m); err != nil {
		return Merchant{}, err
	}
	return m, nil
}

// Nearby resolves merchants around the query origin, sorted by ascending
// distance. Distances returned by the backend are recomputed and re-checked
// against the radius before anything is returned.
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) ([]NearbyMerchant, error) {
	if !q.Origin.Valid() {
		return nil, geo.ErrInvalidPoint
	}
	if !geo.ValidRadius(q.RadiusMeters) {
		return nil, geo.ErrInvalidRadius
	}

	radiusKm := float64(q.RadiusMeters) / 1000
	candidates, err := s.repo.WithinRadius(ctx, q.Origin, radiusKm)
	if err != nil {
		return nil, err
	}

	result := make([]NearbyMerchant, 0, len(candidates))
	for _, m := range candidates {
		d := geo.DistanceKm(q.Origin, m.Location)
		if d*1000 > float64(q.RadiusMeters) {
			continue
		}
		result = append(result, NearbyMerchant{Merchant: m, DistanceKm: d})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})

	if q.Search != "" {
		filtered := result[:0]
		for _, nm := range result {
			if matchesSearch(nm.Merchant, q.Search) {
				filtered = append(filtered, nm)
			}
		}
		result = filtered
	}

	return result, nil
}

func matchesSearch(m Merchant, query string) bool {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return true
	}
	for _, field := range []string{m.BusinessName, m.ContactPerson, m.District, m.State, m.Address} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
