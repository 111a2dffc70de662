package offer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "offer_draft:v1:"

// DraftStore keeps one in-progress offer form per merchant.
type DraftStore interface {
	SaveDraft(ctx context.Context, merchantID string, d Draft) error
	LoadDraft(ctx context.Context, merchantID string) (Draft, error)
	ClearDraft(ctx context.Context, merchantID string) error
}

// RedisDraftStore persists drafts in Redis with a TTL so abandoned forms
// eventually disappear.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore builds a Redis-backed draft store.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func (s *RedisDraftStore) SaveDraft(ctx context.Context, merchantID string, d Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.client.Set(ctx, draftKeyPrefix+merchantID, payload, s.ttl).Err()
}

func (s *RedisDraftStore) LoadDraft(ctx context.Context, merchantID string) (Draft, error) {
	raw, err := s.client.Get(ctx, draftKeyPrefix+merchantID).Result()
	if err == redis.Nil {
		return Draft{}, ErrNoDraft
	}
	if err != nil {
		return Draft{}, err
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

func (s *RedisDraftStore) ClearDraft(ctx context.Context, merchantID string) error {
	return s.client.Del(ctx, draftKeyPrefix+merchantID).Err()
}

type memoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

// NewMemoryDraftStore constructs an in-memory draft store for tests and dev mode.
func NewMemoryDraftStore() DraftStore {
	return &memoryDraftStore{drafts: make(map[string]Draft)}
}

func (s *memoryDraftStore) SaveDraft(_ context.Context, merchantID string, d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[merchantID] = d
	return nil
}

func (s *memoryDraftStore) LoadDraft(_ context.Context, merchantID string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[merchantID]
	if !ok {
		return Draft{}, ErrNoDraft
	}
	return d, nil
}

func (s *memoryDraftStore) ClearDraft(_ context.Context, merchantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, merchantID)
	return nil
}
