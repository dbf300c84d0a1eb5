package cmd

import (
	"context"
	"log/slog"
	"testing"
	"time"

	draftsmemory "github.com/dukex/flowbuilder/pkg/drafts/memory"
	"github.com/dukex/flowbuilder/pkg/persistence/file"
	"github.com/dukex/flowbuilder/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func TestParsePersistenceProvider(t *testing.T) {
	testCases := map[string]string{
		"memory://":                      "memory",
		"file:///var/lib/flowbuilder":    "file",
		"./data":                         "file",
		"postgres://u:p@localhost/db":    "postgres",
		"postgresql://u:p@localhost/db":  "postgresql",
		"mongodb://localhost:27017/flow": "file",
	}

	for url, expected := range testCases {
		assert.Equal(t, expected, parsePersistenceProvider(url), url)
	}
}

func TestNewPersistence(t *testing.T) {
	ctx := context.Background()

	p, err := NewPersistence(ctx, discard, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &memory.Persistence{}, p)

	root := t.TempDir()

	p, err = NewPersistence(ctx, discard, "file://"+root)
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, p)
	assert.NoError(t, p.HealthCheck(ctx))
}

func TestNewEventBus(t *testing.T) {
	bus, err := NewEventBus("gochannel", nil, discard)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", nil, discard)
	require.Error(t, err)

	_, err = NewEventBus("rabbitmq", nil, discard)
	assert.ErrorContains(t, err, "unsupported event bus provider")
}

func TestNewDraftStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewDraftStore(ctx, discard, "", time.Hour)
	require.NoError(t, err)
	assert.IsType(t, &draftsmemory.Store{}, store)

	_, err = NewDraftStore(ctx, discard, "memcached://localhost", time.Hour)
	assert.ErrorContains(t, err, "unsupported drafts url")
}
