// Package memory keeps editor drafts in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dukex/flowbuilder/pkg/drafts"
	"github.com/dukex/flowbuilder/pkg/models"
)

// Option configures the memory draft store.
type Option func(*Store)

// WithClock sets the clock used for draft expiry.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.now = clock
	}
}

type entry struct {
	draft     *models.Workflow
	expiresAt time.Time
}

// Store is a mutex-guarded map of drafts with an optional TTL. Loads restart the TTL.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates an empty store. A zero ttl keeps drafts until deleted.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Save(_ context.Context, key string, draft *models.Workflow) error {
	if err := drafts.CheckKey(key); err != nil {
		return err
	}

	if draft == nil {
		return fmt.Errorf("draft %s cannot be nil", key)
	}

	e := entry{draft: draft.Clone()}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = e

	return nil
}

func (s *Store) Load(_ context.Context, key string) (*models.Workflow, error) {
	if err := drafts.CheckKey(key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, drafts.ErrDraftNotFound
	}

	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)

		return nil, drafts.ErrDraftNotFound
	}

	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
		s.entries[key] = e
	}

	return e.draft.Clone(), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := drafts.CheckKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
