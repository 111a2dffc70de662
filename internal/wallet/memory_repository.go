package wallet

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu          sync.Mutex
	balances    map[string]int64
	withdrawals map[string][]Withdrawal
	creditRefs  map[string]bool
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		balances:    make(map[string]int64),
		withdrawals: make(map[string][]Withdrawal),
		creditRefs:  make(map[string]bool),
	}
}

func (r *memoryRepository) Balance(_ context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[accountID], nil
}

func (r *memoryRepository) Credit(_ context.Context, accountID string, amountPaise int64, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.creditRefs[ref] {
		return nil
	}
	r.creditRefs[ref] = true
	r.balances[accountID] += amountPaise
	return nil
}

func (r *memoryRepository) Debit(_ context.Context, accountID string, amountPaise int64, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balances[accountID] < amountPaise {
		return ErrInsufficientFunds
	}
	r.balances[accountID] -= amountPaise
	return nil
}

func (r *memoryRepository) CreateWithdrawal(_ context.Context, w Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.withdrawals[w.AccountID] = append(r.withdrawals[w.AccountID], w)
	return nil
}

func (r *memoryRepository) ListWithdrawals(_ context.Context, accountID string) ([]Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.withdrawals[accountID]
	out := make([]Withdrawal, len(list))
	copy(out, list)
	return out, nil
}
