package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paisaback/paisaback/internal/notification"
)

// Service exposes wallet operations with the withdrawal policy applied.
type Service struct {
	repo        Repository
	minWithdraw int64
	notifier    notification.Notifier
}

// NewService builds a wallet service. minWithdrawPaise gates Withdraw.
func NewService(repo Repository, minWithdrawPaise int64, notifier notification.Notifier) *Service {
	return &Service{repo: repo, minWithdraw: minWithdrawPaise, notifier: notifier}
}

// Balance returns the current stored value for an account.
func (s *Service) Balance(ctx context.Context, accountID string) (Balance, error) {
	amount, err := s.repo.Balance(ctx, accountID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{AccountID: accountID, AmountPaise: amount, AsOf: time.Now().UTC()}, nil
}

// Credit adds cashback or other earnings to an account.
func (s *Service) Credit(ctx context.Context, accountID string, amountPaise int64, ref string) error {
	if amountPaise <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.Credit(ctx, accountID, amountPaise, ref)
}

// Withdraw debits the balance and records a payout request. Amounts under
// the minimum are rejected before any storage access.
func (s *Service) Withdraw(ctx context.Context, accountID string, amountPaise int64) (Withdrawal, error) {
	if amountPaise <= 0 {
		return Withdrawal{}, ErrInvalidAmount
	}
	if amountPaise < s.minWithdraw {
		return Withdrawal{}, ErrBelowMinimum
	}

	w := Withdrawal{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		AmountPaise: amountPaise,
		Status:      WithdrawalStatusRequested,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Debit(ctx, accountID, amountPaise, "withdrawal:"+w.ID); err != nil {
		return Withdrawal{}, err
	}
	if err := s.repo.CreateWithdrawal(ctx, w); err != nil {
		// Without the payout record the debit would strand the funds.
		if refundErr := s.repo.Credit(ctx, accountID, amountPaise, "withdrawal_refund:"+w.ID); refundErr != nil {
			return Withdrawal{}, fmt.Errorf("record withdrawal: %w (refund failed: %v)", err, refundErr)
		}
		return Withdrawal{}, fmt.Errorf("record withdrawal: %w", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWithdrawal,
			Destination: accountID,
			Body:        fmt.Sprintf("Withdrawal of %d paise requested", amountPaise),
		})
	}

	return w, nil
}

// Withdrawals lists payout requests for an account.
func (s *Service) Withdrawals(ctx context.Context, accountID string) ([]Withdrawal, error) {
	return s.repo.ListWithdrawals(ctx, accountID)
}
