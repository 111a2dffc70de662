package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/paisaback/paisaback/internal/session"
)

const keyPrefix = "otp:v1:"

// ChallengeStore persists pending login codes. At most one challenge is live
// per (kind, mobile); a Put replaces any previous challenge.
type ChallengeStore interface {
	Put(ctx context.Context, ch Challenge, ttl time.Duration) error
	Get(ctx context.Context, kind session.Kind, mobile string) (Challenge, error)
	Delete(ctx context.Context, kind session.Kind, mobile string) error
}

func challengeKey(kind session.Kind, mobile string) string {
	return keyPrefix + string(kind) + ":" + mobile
}

// RedisChallengeStore keeps challenges in Redis; expiry rides on the key TTL.
type RedisChallengeStore struct {
	client *redis.Client
}

// NewRedisChallengeStore builds a Redis-backed challenge store.
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func (s *RedisChallengeStore) Put(ctx context.Context, ch Challenge, ttl time.Duration) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	return s.client.Set(ctx, challengeKey(ch.Kind, ch.Mobile), payload, ttl).Err()
}

func (s *RedisChallengeStore) Get(ctx context.Context, kind session.Kind, mobile string) (Challenge, error) {
	raw, err := s.client.Get(ctx, challengeKey(kind, mobile)).Result()
	if err == redis.Nil {
		return Challenge{}, ErrNoChallenge
	}
	if err != nil {
		return Challenge{}, err
	}
	var ch Challenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return Challenge{}, fmt.Errorf("decode challenge: %w", err)
	}
	return ch, nil
}

func (s *RedisChallengeStore) Delete(ctx context.Context, kind session.Kind, mobile string) error {
	return s.client.Del(ctx, challengeKey(kind, mobile)).Err()
}

type memoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
}

// NewMemoryChallengeStore constructs an in-memory store for tests and dev mode.
func NewMemoryChallengeStore() ChallengeStore {
	return &memoryChallengeStore{challenges: make(map[string]Challenge)}
}

func (s *memoryChallengeStore) Put(_ context.Context, ch Challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challengeKey(ch.Kind, ch.Mobile)] = ch
	return nil
}

func (s *memoryChallengeStore) Get(_ context.Context, kind session.Kind, mobile string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[challengeKey(kind, mobile)]
	if !ok || time.Now().After(ch.ExpiresAt) {
		return Challenge{}, ErrNoChallenge
	}
	return ch, nil
}

func (s *memoryChallengeStore) Delete(_ context.Context, kind session.Kind, mobile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, challengeKey(kind, mobile))
	return nil
}
