// Package drafts caches unsaved editor drafts apart from the authoritative workflow store.
// Drafts are never validated: an incomplete graph is a legitimate draft.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
)

// ErrDraftNotFound is returned when no draft is cached under a key.
var ErrDraftNotFound = errors.New("draft not found")

// ErrInvalidKey is returned for empty or malformed draft keys.
var ErrInvalidKey = errors.New("invalid draft key")

// MaxKeyLength bounds draft keys.
const MaxKeyLength = 128

// Store caches one workflow draft per key.
type Store interface {
	// Save replaces the draft cached under key.
	Save(ctx context.Context, key string, draft *models.Workflow) error
	// Load returns the cached draft or ErrDraftNotFound.
	Load(ctx context.Context, key string) (*models.Workflow, error)
	// Delete discards the draft. Discarding an absent draft succeeds.
	Delete(ctx context.Context, key string) error
	// HealthCheck reports whether the cache is reachable.
	HealthCheck(ctx context.Context) error
	// Close releases the cache connection.
	Close() error
}

// CheckKey validates a draft key. Keys are opaque but must be printable and
// free of whitespace and separators.
func CheckKey(key string) error {
	if key == "" || len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	if strings.ContainsAny(key, " \t\r\n/\\:") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return nil
}
