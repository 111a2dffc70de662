package merchant

import (
	"context"
	"sync"

	"github.com/paisaback/paisaback/internal/geo"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Merchant
	byPhone map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Merchant), byPhone: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, m Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
	r.byPhone[m.Mobile] = m.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return Merchant{}, ErrNotFound
	}
	return m, nil
}

func (r *memoryRepository) FindByMobile(_ context.Context, mobile string) (Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[mobile]
	if !ok {
		return Merchant{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) Update(_ context.Context, m Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[m.ID]
	if !ok {
		return ErrNotFound
	}
	existing.BusinessName = m.BusinessName
	existing.ContactPerson = m.ContactPerson
	existing.Email = m.Email
	existing.CategoryID = m.CategoryID
	existing.Location = m.Location
	existing.District = m.District
	existing.State = m.State
	existing.Address = m.Address
	r.byID[m.ID] = existing
	return nil
}

func (r *memoryRepository) WithinRadius(_ context.Context, origin geo.Point, radiusKm float64) ([]Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Merchant
	for _, m := range r.byID {
		if m.Status != StatusActive {
			continue
		}
		if geo.DistanceKm(origin, m.Location) <= radiusKm {
			result = append(result, m)
		}
	}
	return result, nil
}
