package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind tags a session as belonging to a customer or a merchant account.
// The task families reachable with a token are decided by this tag.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindMerchant Kind = "merchant"
)

// ErrNotFound indicates the token has no live session.
var ErrNotFound = errors.New("session not found")

// Session is the server-side login state created by OTP verification.
// Exactly one of CustomerID/MerchantID is set, according to Kind.
type Session struct {
	Token      string    `json:"token"`
	Kind       Kind      `json:"kind"`
	CustomerID string    `json:"customer_id,omitempty"`
	MerchantID string    `json:"merchant_id,omitempty"`
	Mobile     string    `json:"mobile"`
	CreatedAt  time.Time `json:"created_at"`
}

// New mints a session for the given account. The account id lands in the
// field matching kind; the other stays empty.
func New(kind Kind, accountID, mobile string) Session {
	s := Session{
		Token:     uuid.NewString(),
		Kind:      kind,
		Mobile:    mobile,
		CreatedAt: time.Now().UTC(),
	}
	switch kind {
	case KindMerchant:
		s.MerchantID = accountID
	default:
		s.Kind = KindCustomer
		s.CustomerID = accountID
	}
	return s
}

// AccountID returns whichever identity field is populated.
func (s Session) AccountID() string {
	if s.Kind == KindMerchant {
		return s.MerchantID
	}
	return s.CustomerID
}
