package txn

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu         sync.Mutex
	byID       map[string]Transaction
	byClientID map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Transaction), byClientID: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, t Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID] = t
	if t.ClientTxID != "" {
		r.byClientID[t.ClientTxID] = t.ID
	}
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (r *memoryRepository) FindByClientTxID(_ context.Context, clientTxID string) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byClientID[clientTxID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) ListByMerchant(_ context.Context, merchantID string) ([]Transaction, error) {
	return r.listWhere(func(t Transaction) bool { return t.MerchantID == merchantID }), nil
}

func (r *memoryRepository) ListByCustomer(_ context.Context, customerID string) ([]Transaction, error) {
	return r.listWhere(func(t Transaction) bool { return t.CustomerID == customerID }), nil
}

func (r *memoryRepository) listWhere(keep func(Transaction) bool) []Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Transaction
	for _, t := range r.byID {
		if keep(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, to Status, cashbackPaise int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if t.Status != StatusPending {
		return ErrTerminalStatus
	}
	t.Status = to
	t.CashbackPaise = cashbackPaise
	t.UpdatedAt = at.UTC()
	r.byID[id] = t
	return nil
}
