package account

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Customer
	byPhone map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Customer), byPhone: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, customer Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[customer.ID] = customer
	r.byPhone[customer.Mobile] = customer.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.byID[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return customer, nil
}

func (r *memoryRepository) FindByMobile(_ context.Context, mobile string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[mobile]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) Update(_ context.Context, customer Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[customer.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = customer.Name
	existing.Email = customer.Email
	existing.Address = customer.Address
	r.byID[customer.ID] = existing
	return nil
}
