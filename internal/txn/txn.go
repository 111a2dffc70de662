package txn

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the review state of a QR transaction. PENDING transitions to
// CONFIRMED or REJECTED exactly once; both are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
)

var (
	// ErrInvalidAmount rejects zero or negative transaction amounts.
	ErrInvalidAmount = errors.New("transaction amount must be positive")

	// ErrUnknownCustomer indicates the paying customer does not exist.
	ErrUnknownCustomer = errors.New("unknown customer")

	// ErrUnknownMerchant indicates the receiving merchant does not exist.
	ErrUnknownMerchant = errors.New("unknown merchant")

	// ErrMerchantSuspended indicates the merchant does not accept payments.
	ErrMerchantSuspended = errors.New("merchant is not accepting payments")

	// ErrDuplicateTransaction indicates the client transaction id was already
	// submitted; the original transaction is returned alongside.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrNotFound indicates no transaction matches the lookup.
	ErrNotFound = errors.New("transaction not found")

	// ErrTerminalStatus rejects a second transition on a reviewed transaction.
	ErrTerminalStatus = errors.New("transaction already reviewed")

	// ErrNotOwner indicates the caller does not own the transaction under review.
	ErrNotOwner = errors.New("not the merchant of this transaction")
)

// Transaction is a customer-to-merchant QR payment.
type Transaction struct {
	ID            string
	CustomerID    string
	MerchantID    string
	AmountPaise   int64
	CashbackPaise int64
	Status        Status
	ClientTxID    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AmountString renders the amount in rupees, e.g. "203.50".
func (t Transaction) AmountString() string {
	return paiseString(t.AmountPaise)
}

func paiseString(paise int64) string {
	return fmt.Sprintf("%d.%02d", paise/100, paise%100)
}

// ListItem pairs a transaction with the counterparty display name so lists
// can be searched without further lookups.
type ListItem struct {
	Transaction
	CounterpartyName string
}

// Party is the minimal view of a customer or merchant the service needs.
type Party struct {
	ID        string
	Name      string
	Suspended bool
}

// PartyDirectory resolves account identifiers to display parties.
type PartyDirectory interface {
	Find(ctx context.Context, id string) (Party, error)
}

// CashbackPolicy resolves the cashback percent applicable to a merchant.
type CashbackPolicy interface {
	Percent(ctx context.Context, merchantID string) (float64, error)
}

// WalletCrediter credits settlement and cashback amounts. A credit is
// idempotent per ref: re-applying the same ref is a no-op, which makes
// retried confirmations safe.
type WalletCrediter interface {
	Credit(ctx context.Context, accountID string, amountPaise int64, ref string) error
}
