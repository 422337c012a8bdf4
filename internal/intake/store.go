package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftTTL is how long an untouched draft survives in a store.
const DraftTTL = 24 * time.Hour

var ErrDraftNotFound = errors.New("intake draft not found")

// DraftStore keeps drafts between wizard requests.
type DraftStore interface {
	Get(ctx context.Context, id string) (*Draft, error)
	Save(ctx context.Context, d *Draft) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryDraftStore is a process-local DraftStore. Drafts are stored as JSON so callers never share a pointer.
type MemoryDraftStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	if ttl <= 0 {
		ttl = DraftTTL
	}
	return &MemoryDraftStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryDraftStore) Get(_ context.Context, id string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil, ErrDraftNotFound
	}
	var d Draft
	if err := json.Unmarshal(e.data, &d); err != nil {
		return nil, fmt.Errorf("decoding draft %s: %w", id, err)
	}
	return &d, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft %s: %w", d.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
	s.entries[d.ID] = memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// RedisDraftStore keeps drafts as JSON strings with a sliding TTL.
type RedisDraftStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisDraftStore(client redis.Cmdable, ttl time.Duration) *RedisDraftStore {
	if ttl <= 0 {
		ttl = DraftTTL
	}
	return &RedisDraftStore{client: client, prefix: "intake:draft:", ttl: ttl}
}

func (s *RedisDraftStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisDraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft %s: %w", id, err)
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding draft %s: %w", id, err)
	}
	return &d, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft %s: %w", d.ID, err)
	}
	if err := s.client.Set(ctx, s.key(d.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving draft %s: %w", d.ID, err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting draft %s: %w", id, err)
	}
	return nil
}
