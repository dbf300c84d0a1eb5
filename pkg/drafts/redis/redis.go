// Package redis caches editor drafts in Redis with a sliding TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowbuilder/pkg/drafts"
	"github.com/dukex/flowbuilder/pkg/models"
	redis "github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces draft keys.
const KeyPrefix = "flowbuilder:draft:"

// Store keeps one JSON document per draft key.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore connects to the Redis server at url (redis://[:password@]host:port/db)
// and verifies the connection. A zero ttl keeps drafts until deleted.
func NewStore(ctx context.Context, logger *slog.Logger, url string, ttl time.Duration) (*Store, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewStoreWithClient(client, ttl, logger), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{client: client, ttl: ttl, logger: logger}
}

func (s *Store) Save(ctx context.Context, key string, draft *models.Workflow) error {
	if err := drafts.CheckKey(key); err != nil {
		return err
	}

	if draft == nil {
		return fmt.Errorf("draft %s cannot be nil", key)
	}

	body, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", key, err)
	}

	if err := s.client.Set(ctx, KeyPrefix+key, body, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft %s: %w", key, err)
	}

	return nil
}

// Load returns the draft and refreshes its TTL.
func (s *Store) Load(ctx context.Context, key string) (*models.Workflow, error) {
	if err := drafts.CheckKey(key); err != nil {
		return nil, err
	}

	var (
		body []byte
		err  error
	)

	if s.ttl > 0 {
		body, err = s.client.GetEx(ctx, KeyPrefix+key, s.ttl).Bytes()
	} else {
		body, err = s.client.Get(ctx, KeyPrefix+key).Bytes()
	}

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, drafts.ErrDraftNotFound
		}

		return nil, fmt.Errorf("failed to load draft %s: %w", key, err)
	}

	var draft models.Workflow
	if err := json.Unmarshal(body, &draft); err != nil {
		s.logger.ErrorContext(ctx, "Discarding unreadable draft", "key", key, "error", err)

		return nil, fmt.Errorf("failed to decode draft %s: %w", key, err)
	}

	return draft.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := drafts.CheckKey(key); err != nil {
		return err
	}

	if err := s.client.Del(ctx, KeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", key, err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
