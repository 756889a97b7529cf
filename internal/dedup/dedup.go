// Package dedup records processed webhook event ids so that provider
// redeliveries short-circuit before touching order state.
package dedup

import (
	"context"
	"sync"
	"time"
)

// TTL bounds how long a processed event id is remembered. Stripe retries
// webhooks for up to three days, so anything older is safe to forget.
const TTL = 72 * time.Hour

// Store records processed webhook event ids. Checking and recording are
// separate so an id is only recorded once its event has been fully applied;
// a delivery that fails mid-processing stays unrecorded and the provider's
// retry is processed again.
type Store interface {
	// Seen reports whether the event id has already been recorded.
	Seen(ctx context.Context, eventID string) (bool, error)

	// MarkProcessed records the event id. Recording the same id twice is
	// harmless.
	MarkProcessed(ctx context.Context, eventID string) error

	Close() error
}

// memoryStore is a process-local Store for tests and single-instance
// deployments without Redis.
type memoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryStore creates an in-memory dedup store.
func NewMemoryStore() Store {
	return &memoryStore{seen: make(map[string]time.Time)}
}

func (s *memoryStore) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, at := range s.seen {
		if now.Sub(at) > TTL {
			delete(s.seen, id)
		}
	}

	_, ok := s.seen[eventID]
	return ok, nil
}

func (s *memoryStore) MarkProcessed(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[eventID] = time.Now()
	return nil
}

func (s *memoryStore) Close() error { return nil }
