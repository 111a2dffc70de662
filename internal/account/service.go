package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidProfile rejects profile updates with malformed fields.
var ErrInvalidProfile = errors.New("invalid profile fields")

// Service manages customer accounts.
type Service struct {
	repo Repository
}

// NewService creates a customer account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureByMobile returns the customer for a verified mobile number, creating
// the account on first login.
func (s *Service) EnsureByMobile(ctx context.Context, mobile string) (Customer, error) {
	customer, err := s.repo.FindByMobile(ctx, mobile)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Customer{}, err
	}

	customer = Customer{
		ID:        uuid.NewString(),
		Mobile:    mobile,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return Customer{}, err
	}
	return customer, nil
}

// Get fetches a customer profile.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies editable fields to an existing customer.
func (s *Service) UpdateProfile(ctx context.Context, id string, input ProfileInput) (Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Customer{}, ErrInvalidProfile
	}
	if input.Email != "" && !strings.Contains(input.Email, "@") {
		return Customer{}, ErrInvalidProfile
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Customer{}, err
	}

	customer.Name = strings.TrimSpace(input.Name)
	customer.Email = strings.TrimSpace(input.Email)
	customer.Address = strings.TrimSpace(input.Address)

	if err := s.repo.Update(ctx, customer); err != nil {
		return Customer{}, err
	}
	return customer, nil
}
