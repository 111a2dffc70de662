package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/paisaback/paisaback/internal/notification"
	"github.com/paisaback/paisaback/internal/session"
)

// Service issues and verifies login codes. Codes are delivered via the
// notifier (SMS in production) and only their bcrypt hash is stored.
type Service struct {
	store       ChallengeStore
	notifier    notification.Notifier
	ttl         time.Duration
	cooldown    time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewService builds an OTP service.
func NewService(store ChallengeStore, notifier notification.Notifier, ttl, cooldown time.Duration, maxAttempts int) *Service {
	return &Service{
		store:       store,
		notifier:    notifier,
		ttl:         ttl,
		cooldown:    cooldown,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Issue generates a fresh login code for the mobile number and hands it to
// the notifier. A live challenge younger than the cooldown blocks reissue.
func (s *Service) Issue(ctx context.Context, mobile string, kind session.Kind) error {
	if !ValidMobile(mobile) {
		return ErrInvalidMobile
	}

	if existing, err := s.store.Get(ctx, kind, mobile); err == nil {
		if s.now().Sub(existing.IssuedAt) < s.cooldown {
			return ErrResendTooSoon
		}
	} else if err != ErrNoChallenge {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	now := s.now().UTC()
	ch := Challenge{
		Mobile:    mobile,
		Kind:      kind,
		CodeHash:  hash,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store.Put(ctx, ch, s.ttl); err != nil {
		return err
	}

	return s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindOTP,
		Destination: mobile,
		Body:        fmt.Sprintf("Your %s login code is %s", "PaisaBack", code),
	})
}

// Verify checks a submitted code against the live challenge. A match consumes
// the challenge; too many mismatches invalidate it.
func (s *Service) Verify(ctx context.Context, mobile, code string, kind session.Kind) error {
	if !ValidMobile(mobile) {
		return ErrInvalidMobile
	}
	if len(code) != CodeLength {
		return ErrInvalidCode
	}

	ch, err := s.store.Get(ctx, kind, mobile)
	if err == ErrNoChallenge {
		return ErrExpired
	}
	if err != nil {
		return err
	}
	if s.now().After(ch.ExpiresAt) {
		return ErrExpired
	}

	if err := bcrypt.CompareHashAndPassword(ch.CodeHash, []byte(code)); err != nil {
		ch.Attempts++
		if ch.Attempts >= s.maxAttempts {
			if delErr := s.store.Delete(ctx, kind, mobile); delErr != nil {
				return delErr
			}
			return ErrTooManyAttempts
		}
		remaining := ch.ExpiresAt.Sub(s.now())
		if putErr := s.store.Put(ctx, ch, remaining); putErr != nil {
			return putErr
		}
		return ErrInvalidCode
	}

	return s.store.Delete(ctx, kind, mobile)
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}
