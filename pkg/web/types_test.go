package web_test

import (
	"strings"
	"testing"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/dukex/flowbuilder/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkflowRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name    string
		request web.CreateWorkflowRequest
		wantErr bool
	}{
		{
			name:    "empty name is left to the workflow validator",
			request: web.CreateWorkflowRequest{},
			wantErr: false,
		},
		{
			name:    "name too long",
			request: web.CreateWorkflowRequest{Name: strings.Repeat("n", 201)},
			wantErr: true,
		},
		{
			name:    "owner at the stored column width",
			request: web.CreateWorkflowRequest{Name: "ok", OwnerID: strings.Repeat("o", 320)},
			wantErr: false,
		},
		{
			name:    "owner too long",
			request: web.CreateWorkflowRequest{Name: "ok", OwnerID: strings.Repeat("o", 321)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Struct(tt.request)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateWorkflowRequest_Merge(t *testing.T) {
	t.Parallel()

	existing := testutil.CreateTestWorkflow(func(w *models.Workflow) {
		w.ID = "wf-1"
		w.OwnerID = "alice"
	})

	name := "Renamed"
	active := true
	merged := web.UpdateWorkflowRequest{Name: &name, IsActive: &active}.Merge(existing)

	assert.Equal(t, "Renamed", merged.Name)
	assert.True(t, merged.IsActive)
	assert.Equal(t, "wf-1", merged.ID)
	assert.Equal(t, "alice", merged.OwnerID)
	assert.Equal(t, existing.Description, merged.Description)
	require.Len(t, merged.Nodes, 2)

	assert.Equal(t, "Test Workflow", existing.Name, "the stored document is not mutated")

	emptyNodes := web.UpdateWorkflowRequest{Nodes: []models.Node{}}.Merge(existing)
	assert.Empty(t, emptyNodes.Nodes, "an explicit empty list replaces the nodes")
}

func TestAddNodeRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	require.Error(t, v.Struct(web.AddNodeRequest{}))
	require.NoError(t, v.Struct(web.AddNodeRequest{Type: models.NodeTypeAction}))
	require.Error(t, v.Struct(web.GmailAuthRequest{Email: "not-an-email"}))
	require.NoError(t, v.Struct(web.GmailAuthRequest{}))
	require.Error(t, v.Struct(web.ConnectRequest{Source: "a"}))
}
