package txn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paisaback/paisaback/internal/notification"
)

// Service runs the QR payment flow and the merchant review state machine.
type Service struct {
	repo      Repository
	customers PartyDirectory
	merchants PartyDirectory
	cashback  CashbackPolicy
	wallets   WalletCrediter
	notifier  notification.Notifier
}

// NewService constructs a transaction service.
func NewService(repo Repository, customers, merchants PartyDirectory, cashback CashbackPolicy, wallets WalletCrediter, notifier notification.Notifier) *Service {
	return &Service{repo: repo, customers: customers, merchants: merchants, cashback: cashback, wallets: wallets, notifier: notifier}
}

// AddQRInput captures a QR payment submission.
type AddQRInput struct {
	CustomerID  string
	MerchantID  string
	AmountPaise int64
	ClientTxID  string
}

// AddQR records a pending payment from customer to merchant. A repeated
// ClientTxID returns the original transaction with ErrDuplicateTransaction,
// so a double-tap cannot create two payments.
func (s *Service) AddQR(ctx context.Context, input AddQRInput) (Transaction, error) {
	if input.AmountPaise <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	} else if existing, err := s.repo.FindByClientTxID(ctx, input.ClientTxID); err == nil {
		return existing, ErrDuplicateTransaction
	} else if !errors.Is(err, ErrNotFound) {
		return Transaction{}, err
	}

	if _, err := s.customers.Find(ctx, input.CustomerID); err != nil {
		return Transaction{}, ErrUnknownCustomer
	}
	merchant, err := s.merchants.Find(ctx, input.MerchantID)
	if err != nil {
		return Transaction{}, ErrUnknownMerchant
	}
	if merchant.Suspended {
		return Transaction{}, ErrMerchantSuspended
	}

	now := time.Now().UTC()
	t := Transaction{
		ID:          uuid.NewString(),
		CustomerID:  input.CustomerID,
		MerchantID:  input.MerchantID,
		AmountPaise: input.AmountPaise,
		Status:      StatusPending,
		ClientTxID:  input.ClientTxID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return Transaction{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTxnCreated,
			Destination: merchant.ID,
			Body:        fmt.Sprintf("Payment of %s awaiting review", t.AmountString()),
		})
	}

	return t, nil
}

// Confirm transitions a pending transaction to CONFIRMED, settles the amount
// into the merchant wallet and credits the customer's cashback. Only the
// receiving merchant may confirm.
func (s *Service) Confirm(ctx context.Context, merchantID, txnID string) (Transaction, error) {
	t, err := s.repo.Get(ctx, txnID)
	if err != nil {
		return Transaction{}, err
	}
	if t.MerchantID != merchantID {
		return Transaction{}, ErrNotOwner
	}
	if t.Status != StatusPending {
		return Transaction{}, ErrTerminalStatus
	}

	percent, err := s.cashback.Percent(ctx, merchantID)
	if err != nil {
		return Transaction{}, err
	}
	cashback := int64(math.Round(float64(t.AmountPaise) * percent / 100))

	// Money moves before the terminal write: a failed credit leaves the
	// transaction PENDING and the merchant can retry the review. Credits
	// are idempotent per reference, so a retry never double-pays.
	if s.wallets != nil {
		if err := s.wallets.Credit(ctx, t.MerchantID, t.AmountPaise, "qr_txn:"+t.ID); err != nil {
			return Transaction{}, fmt.Errorf("credit merchant: %w", err)
		}
		if cashback > 0 {
			if err := s.wallets.Credit(ctx, t.CustomerID, cashback, "cashback:"+t.ID); err != nil {
				return Transaction{}, fmt.Errorf("credit cashback: %w", err)
			}
		}
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, txnID, StatusConfirmed, cashback, now); err != nil {
		return Transaction{}, err
	}

	t.Status = StatusConfirmed
	t.CashbackPaise = cashback
	t.UpdatedAt = now

	if cashback > 0 && s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindCashback,
			Destination: t.CustomerID,
			Body:        fmt.Sprintf("Cashback of %s credited", paiseString(cashback)),
		})
	}

	return t, nil
}

// Reject transitions a pending transaction to REJECTED. No cashback accrues.
func (s *Service) Reject(ctx context.Context, merchantID, txnID string) (Transaction, error) {
	t, err := s.repo.Get(ctx, txnID)
	if err != nil {
		return Transaction{}, err
	}
	if t.MerchantID != merchantID {
		return Transaction{}, ErrNotOwner
	}
	if t.Status != StatusPending {
		return Transaction{}, ErrTerminalStatus
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, txnID, StatusRejected, 0, now); err != nil {
		return Transaction{}, err
	}

	t.Status = StatusRejected
	t.UpdatedAt = now
	return t, nil
}

// ListForMerchant returns a merchant's transactions with the paying customer's
// name attached, narrowed by the search query when present.
func (s *Service) ListForMerchant(ctx context.Context, merchantID, search string) ([]ListItem, error) {
	txns, err := s.repo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return s.buildList(ctx, txns, s.customers, func(t Transaction) string { return t.CustomerID }, search)
}

// ListForCustomer returns a customer's transactions with merchant names attached.
func (s *Service) ListForCustomer(ctx context.Context, customerID, search string) ([]ListItem, error) {
	txns, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.buildList(ctx, txns, s.merchants, func(t Transaction) string { return t.MerchantID }, search)
}

func (s *Service) buildList(ctx context.Context, txns []Transaction, dir PartyDirectory, counterparty func(Transaction) string, search string) ([]ListItem, error) {
	names := make(map[string]string)
	items := make([]ListItem, 0, len(txns))
	for _, t := range txns {
		id := counterparty(t)
		name, ok := names[id]
		if !ok {
			if party, err := dir.Find(ctx, id); err == nil {
				name = party.Name
			}
			names[id] = name
		}
		item := ListItem{Transaction: t, CounterpartyName: name}
		if search == "" || matchesSearch(item, search) {
			items = append(items, item)
		}
	}
	return items, nil
}

// matchesSearch narrows a list item by id, rendered amount, or counterparty name.
func matchesSearch(item ListItem, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	for _, field := range []string{item.ID, item.AmountString(), item.CounterpartyName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
