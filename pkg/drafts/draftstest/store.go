// Package draftstest holds the behaviour every drafts.Store implementation shares.
package draftstest

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/flowbuilder/pkg/drafts"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreSuite exercises a drafts.Store. newStore must return an empty store.
func RunStoreSuite(t *testing.T, newStore func(t *testing.T) drafts.Store) {
	t.Helper()

	ctx := context.Background()

	t.Run("load unknown key is not found", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, drafts.ErrDraftNotFound)
	})

	t.Run("save then load round trip", func(t *testing.T) {
		store := newStore(t)
		draft := testutil.CreateTestWorkflow()

		require.NoError(t, store.Save(ctx, "user-1", draft))

		loaded, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, draft.Name, loaded.Name)
		require.Len(t, loaded.Nodes, 2)
		assert.Equal(t, draft.Nodes[0].ID, loaded.Nodes[0].ID)
		assert.Equal(t, draft.Nodes[0].Data.Config, loaded.Nodes[0].Data.Config)
		assert.Equal(t, draft.Edges, loaded.Edges)
	})

	t.Run("incomplete drafts are accepted", func(t *testing.T) {
		store := newStore(t)
		draft := &models.Workflow{Name: ""}

		require.NoError(t, store.Save(ctx, "empty", draft))

		loaded, err := store.Load(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, loaded.Nodes)
		assert.NotNil(t, loaded.Edges)
	})

	t.Run("save replaces the previous draft", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, "k", testutil.CreateTestWorkflow()))
		require.NoError(t, store.Save(ctx, "k", testutil.CreateTestWorkflow(func(w *models.Workflow) {
			w.Name = "Second"
		})))

		loaded, err := store.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "Second", loaded.Name)
	})

	t.Run("delete discards and is idempotent", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, "k", testutil.CreateTestWorkflow()))
		require.NoError(t, store.Delete(ctx, "k"))
		require.NoError(t, store.Delete(ctx, "k"))

		_, err := store.Load(ctx, "k")
		assert.ErrorIs(t, err, drafts.ErrDraftNotFound)
	})

	t.Run("invalid keys are rejected", func(t *testing.T) {
		store := newStore(t)

		for _, key := range []string{"", "a b", "a/b", "a:b"} {
			assert.ErrorIs(t, store.Save(ctx, key, testutil.CreateTestWorkflow()), drafts.ErrInvalidKey, key)
			_, err := store.Load(ctx, key)
			assert.ErrorIs(t, err, drafts.ErrInvalidKey, key)
		}
	})

	t.Run("nil draft is rejected", func(t *testing.T) {
		store := newStore(t)

		assert.Error(t, store.Save(ctx, "k", nil))
	})

	t.Run("stored drafts are detached from callers", func(t *testing.T) {
		store := newStore(t)
		draft := testutil.CreateTestWorkflow()

		require.NoError(t, store.Save(ctx, "k", draft))
		draft.Name = "mutated"
		draft.Nodes[0].ID = "mutated"

		loaded, err := store.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "Test Workflow", loaded.Name)
		assert.Equal(t, "t1", loaded.Nodes[0].ID)
	})

	t.Run("health check", func(t *testing.T) {
		assert.NoError(t, newStore(t).HealthCheck(ctx))
	})
}

// ExpiringStoreFactory builds an empty store with the given TTL and a function that
// moves the store's notion of time forward.
type ExpiringStoreFactory func(t *testing.T, ttl time.Duration) (drafts.Store, func(time.Duration))

// RunExpirySuite exercises the TTL behaviour of a drafts.Store: each load restarts
// the TTL and a draft left alone for a full TTL is gone.
func RunExpirySuite(t *testing.T, ttl time.Duration, newStore ExpiringStoreFactory) {
	t.Helper()

	ctx := context.Background()
	step := ttl * 3 / 5

	t.Run("load slides the ttl", func(t *testing.T) {
		store, advance := newStore(t, ttl)

		require.NoError(t, store.Save(ctx, "k", testutil.CreateTestWorkflow()))

		advance(step)

		_, err := store.Load(ctx, "k")
		require.NoError(t, err)

		advance(step)

		_, err = store.Load(ctx, "k")
		require.NoError(t, err, "a read inside the ttl keeps the draft alive")
	})

	t.Run("idle draft expires", func(t *testing.T) {
		store, advance := newStore(t, ttl)

		require.NoError(t, store.Save(ctx, "k", testutil.CreateTestWorkflow()))

		advance(ttl + step)

		_, err := store.Load(ctx, "k")
		assert.ErrorIs(t, err, drafts.ErrDraftNotFound)
	})
}
