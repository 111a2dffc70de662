package routes

import (
	"context"

	"github.com/paisaback/paisaback/internal/account"
	"github.com/paisaback/paisaback/internal/merchant"
	"github.com/paisaback/paisaback/internal/txn"
)

// customerDirectory adapts the account service to the transaction service's
// party lookup.
type customerDirectory struct {
	svc *account.Service
}

func (d customerDirectory) Find(ctx context.Context, id string) (txn.Party, error) {
	c, err := d.svc.Get(ctx, id)
	if err != nil {
		return txn.Party{}, err
	}
	return txn.Party{ID: c.ID, Name: c.Name}, nil
}

// merchantDirectory adapts the merchant service, using the business name as
// the display name.
type merchantDirectory struct {
	svc *merchant.Service
}

func (d merchantDirectory) Find(ctx context.Context, id string) (txn.Party, error) {
	m, err := d.svc.Get(ctx, id)
	if err != nil {
		return txn.Party{}, err
	}
	return txn.Party{
		ID:        m.ID,
		Name:      m.BusinessName,
		Suspended: m.Status == merchant.StatusSuspended,
	}, nil
}
