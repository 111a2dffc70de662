package wallet

import (
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when the account balance cannot cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBelowMinimum rejects withdrawals under the configured minimum. The
	// check runs before any storage access.
	ErrBelowMinimum = errors.New("withdrawal amount below minimum")

	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// WithdrawalStatusRequested marks a withdrawal awaiting payout processing.
const WithdrawalStatusRequested = "REQUESTED"

// Balance is the stored value for an account, in paise.
type Balance struct {
	AccountID   string
	AmountPaise int64
	AsOf        time.Time
}

// Withdrawal is a payout request against a wallet balance.
type Withdrawal struct {
	ID          string
	AccountID   string
	AmountPaise int64
	Status      string
	CreatedAt   time.Time
}
