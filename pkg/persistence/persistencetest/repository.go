// Package persistencetest holds the behaviour suite every WorkflowRepository must pass.
package persistencetest

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds an empty repository driven by the given clock.
type Factory func(t *testing.T, clock persistence.Clock) persistence.WorkflowRepository

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// RunWorkflowRepositorySuite runs the shared repository behaviour tests.
func RunWorkflowRepositorySuite(t *testing.T, newRepo Factory) {
	t.Helper()

	setup := func(t *testing.T) (persistence.WorkflowRepository, *testutil.FakeClock) {
		t.Helper()

		clock := testutil.NewFakeClock(start)

		return newRepo(t, clock.Now), clock
	}

	t.Run("insert assigns identity and timestamps", func(t *testing.T) {
		repo, _ := setup(t)
		input := testutil.CreateTestWorkflow()

		stored, err := repo.Insert(context.Background(), input)
		require.NoError(t, err)

		assert.NotEmpty(t, stored.ID)
		assert.WithinDuration(t, start, stored.CreatedAt, 0)
		assert.WithinDuration(t, start, stored.UpdatedAt, 0)
		assert.Empty(t, input.ID, "input must not be modified")
	})

	t.Run("get returns the inserted document", func(t *testing.T) {
		repo, _ := setup(t)
		input := testutil.CreateTestWorkflow(func(w *models.Workflow) {
			w.OwnerID = "me@example.com"
			w.Nodes[0] = testutil.CreateTestNode(testutil.WithID("t1"), testutil.WithTriggerNode(), testutil.WithGmailAuth("me@example.com"))
		})

		stored, err := repo.Insert(context.Background(), input)
		require.NoError(t, err)

		fetched, err := repo.GetByID(context.Background(), stored.ID)
		require.NoError(t, err)

		assert.Equal(t, stored.ID, fetched.ID)
		assert.Equal(t, input.Name, fetched.Name)
		assert.Equal(t, input.Description, fetched.Description)
		assert.Equal(t, input.OwnerID, fetched.OwnerID)
		assert.Equal(t, input.IsActive, fetched.IsActive)
		assert.Equal(t, input.Nodes, fetched.Nodes)
		assert.Equal(t, input.Edges, fetched.Edges)
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		repo, _ := setup(t)

		_, err := repo.GetByID(context.Background(), "0197a2b4-0000-7000-8000-000000000000")
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("replace preserves createdAt and refreshes updatedAt", func(t *testing.T) {
		repo, clock := setup(t)

		stored, err := repo.Insert(context.Background(), testutil.CreateTestWorkflow())
		require.NoError(t, err)

		clock.Advance(time.Minute)

		changed := stored.Clone()
		changed.Name = "Renamed"
		changed.CreatedAt = time.Time{}

		replaced, err := repo.Replace(context.Background(), stored.ID, changed)
		require.NoError(t, err)

		assert.Equal(t, stored.ID, replaced.ID)
		assert.Equal(t, "Renamed", replaced.Name)
		assert.WithinDuration(t, start, replaced.CreatedAt, 0)
		assert.WithinDuration(t, start.Add(time.Minute), replaced.UpdatedAt, 0)

		fetched, err := repo.GetByID(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", fetched.Name)
		assert.WithinDuration(t, start, fetched.CreatedAt, 0)
	})

	t.Run("timestamps round-trip with a sub-microsecond clock", func(t *testing.T) {
		clock := testutil.NewFakeClock(start.Add(123456789 * time.Nanosecond))
		repo := newRepo(t, clock.Now)

		stored, err := repo.Insert(context.Background(), testutil.CreateTestWorkflow())
		require.NoError(t, err)

		fetched, err := repo.GetByID(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.True(t, stored.CreatedAt.Equal(fetched.CreatedAt), "%s != %s", stored.CreatedAt, fetched.CreatedAt)
		assert.True(t, stored.UpdatedAt.Equal(fetched.UpdatedAt), "%s != %s", stored.UpdatedAt, fetched.UpdatedAt)

		clock.Advance(time.Second + 987*time.Nanosecond)

		replaced, err := repo.Replace(context.Background(), stored.ID, fetched)
		require.NoError(t, err)
		assert.True(t, stored.CreatedAt.Equal(replaced.CreatedAt), "%s != %s", stored.CreatedAt, replaced.CreatedAt)

		refetched, err := repo.GetByID(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.True(t, replaced.UpdatedAt.Equal(refetched.UpdatedAt), "%s != %s", replaced.UpdatedAt, refetched.UpdatedAt)
	})

	t.Run("replace unknown id is not found", func(t *testing.T) {
		repo, _ := setup(t)

		_, err := repo.Replace(context.Background(), "0197a2b4-0000-7000-8000-000000000000", testutil.CreateTestWorkflow())
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("delete twice reports not found the second time", func(t *testing.T) {
		repo, _ := setup(t)

		stored, err := repo.Insert(context.Background(), testutil.CreateTestWorkflow())
		require.NoError(t, err)

		require.NoError(t, repo.Delete(context.Background(), stored.ID))

		err = repo.Delete(context.Background(), stored.ID)
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))

		_, err = repo.GetByID(context.Background(), stored.ID)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("query orders by updatedAt descending", func(t *testing.T) {
		repo, clock := setup(t)

		older, err := repo.Insert(context.Background(), testutil.CreateTestWorkflow(func(w *models.Workflow) { w.Name = "older" }))
		require.NoError(t, err)

		clock.Advance(time.Second)

		newer, err := repo.Insert(context.Background(), testutil.CreateTestWorkflow(func(w *models.Workflow) { w.Name = "newer" }))
		require.NoError(t, err)

		list, err := repo.Query(context.Background(), persistence.QueryOptions{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)

		clock.Advance(time.Second)

		_, err = repo.Replace(context.Background(), older.ID, older)
		require.NoError(t, err)

		list, err = repo.Query(context.Background(), persistence.QueryOptions{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, older.ID, list[0].ID)
		assert.Equal(t, newer.ID, list[1].ID)
	})

	t.Run("query filters by owner and active flag", func(t *testing.T) {
		repo, _ := setup(t)

		mine, err := repo.Insert(context.Background(), testutil.CreateTestWorkflow(func(w *models.Workflow) {
			w.OwnerID = "me@example.com"
			w.IsActive = true
		}))
		require.NoError(t, err)

		_, err = repo.Insert(context.Background(), testutil.CreateTestWorkflow(func(w *models.Workflow) {
			w.OwnerID = "other@example.com"
		}))
		require.NoError(t, err)

		list, err := repo.Query(context.Background(), persistence.QueryOptions{OwnerID: "me@example.com"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, mine.ID, list[0].ID)

		inactive := false

		list, err = repo.Query(context.Background(), persistence.QueryOptions{IsActive: &inactive})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "other@example.com", list[0].OwnerID)
	})

	t.Run("query on empty store returns empty list", func(t *testing.T) {
		repo, _ := setup(t)

		list, err := repo.Query(context.Background(), persistence.QueryOptions{})
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("returned documents are detached from the store", func(t *testing.T) {
		repo, _ := setup(t)

		stored, err := repo.Insert(context.Background(), testutil.CreateTestWorkflow())
		require.NoError(t, err)

		stored.Name = "mutated"
		stored.Nodes[0].ID = "mutated"

		fetched, err := repo.GetByID(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.Equal(t, "Test Workflow", fetched.Name)
		assert.Equal(t, "t1", fetched.Nodes[0].ID)
	})
}
