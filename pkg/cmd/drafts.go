package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/flowbuilder/pkg/drafts"
	draftsmemory "github.com/dukex/flowbuilder/pkg/drafts/memory"
	draftsredis "github.com/dukex/flowbuilder/pkg/drafts/redis"
)

// NewDraftStore selects the draft cache: "memory://" (or empty) or a redis:// URL.
func NewDraftStore(ctx context.Context, logger *slog.Logger, draftsURL string, ttl time.Duration) (drafts.Store, error) {
	switch {
	case draftsURL == "", strings.HasPrefix(draftsURL, "memory://"):
		logger.InfoContext(ctx, "Initializing draft cache", "provider", "memory", "ttl", ttl)

		return draftsmemory.NewStore(ttl), nil
	case strings.HasPrefix(draftsURL, "redis://"), strings.HasPrefix(draftsURL, "rediss://"):
		logger.InfoContext(ctx, "Initializing draft cache", "provider", "redis", "ttl", ttl)

		store, err := draftsredis.NewStore(ctx, logger, draftsURL, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis draft cache: %w", err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unsupported drafts url: %s", draftsURL)
	}
}
