package otp

import (
	"errors"
	"time"

	"github.com/paisaback/paisaback/internal/session"
)

var (
	// ErrInvalidMobile rejects anything that is not exactly 10 digits.
	ErrInvalidMobile = errors.New("mobile number must be exactly 10 digits")

	// ErrInvalidCode indicates a malformed or mismatched login code.
	ErrInvalidCode = errors.New("invalid login code")

	// ErrExpired indicates no live challenge exists for the mobile number.
	ErrExpired = errors.New("login code expired or not issued")

	// ErrTooManyAttempts indicates the challenge was invalidated after
	// repeated wrong codes. A fresh code must be requested.
	ErrTooManyAttempts = errors.New("too many wrong attempts")

	// ErrResendTooSoon gates re-issuing a code before the cooldown elapses.
	ErrResendTooSoon = errors.New("code was sent recently, wait before resending")

	// ErrNoChallenge is returned by challenge stores on a miss.
	ErrNoChallenge = errors.New("no challenge stored")
)

// CodeLength is the number of digits in a login code.
const CodeLength = 4

// Challenge is a pending login code. The code itself is stored only as a
// bcrypt hash and is never returned by any API surface.
type Challenge struct {
	Mobile    string       `json:"mobile"`
	Kind      session.Kind `json:"kind"`
	CodeHash  []byte       `json:"code_hash"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	Attempts  int          `json:"attempts"`
}

// ValidMobile reports whether mobile is exactly 10 ASCII digits.
func ValidMobile(mobile string) bool {
	if len(mobile) != 10 {
		return false
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
