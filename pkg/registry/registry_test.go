package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsCatalog(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	types := reg.NodeTypes()
	require.Len(t, types, 3)
	assert.Equal(t, models.NodeTypeTrigger, types[0].Type)
	assert.Equal(t, models.NodeTypeAction, types[1].Type)
	assert.Equal(t, models.NodeTypeCondition, types[2].Type)

	trigger, ok := reg.Lookup(models.NodeTypeTrigger)
	require.True(t, ok)
	assert.Equal(t, "Gmail Trigger", trigger.Label)
	assert.Equal(t, "event", trigger.ConfigField)

	values := make([]string, 0)
	for _, option := range trigger.Options {
		values = append(values, option.Value)
	}

	assert.Equal(t, []string{"new_email", "new_attachment", "email_matching_search", "calendar_event"}, values)

	_, ok = reg.Lookup("delay")
	assert.False(t, ok)
}

func TestRegistry_ValidateConfig(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	testCases := []struct {
		name     string
		nodeType models.NodeType
		values   map[string]any
		valid    bool
	}{
		{"empty trigger config", models.NodeTypeTrigger, map[string]any{}, true},
		{"nil config", models.NodeTypeAction, nil, true},
		{"known trigger event", models.NodeTypeTrigger, map[string]any{"event": "new_email"}, true},
		{"unselected event", models.NodeTypeTrigger, map[string]any{"event": ""}, true},
		{"unknown trigger event", models.NodeTypeTrigger, map[string]any{"event": "new_fax"}, false},
		{"unknown field", models.NodeTypeTrigger, map[string]any{"cron": "* * * * *"}, false},
		{"wrong field type", models.NodeTypeCondition, map[string]any{"value": 42}, false},
		{"action with recipient", models.NodeTypeAction, map[string]any{"actionType": "send_email", "to": "you@example.com"}, true},
		{"action with malformed recipient", models.NodeTypeAction, map[string]any{"to": "not an address"}, false},
		{
			"gmail auth attached",
			models.NodeTypeAction,
			map[string]any{"gmailAuth": map[string]any{"email": "me@example.com", "isAuthenticated": true, "accessToken": "tok"}},
			true,
		},
		{
			"gmail auth missing email",
			models.NodeTypeCondition,
			map[string]any{"gmailAuth": map[string]any{"isAuthenticated": true}},
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := reg.ValidateConfig(tc.nodeType, tc.values)
			if tc.valid {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)

			var configErr *ConfigError

			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tc.nodeType, configErr.NodeType)
			assert.NotEmpty(t, configErr.Problems)
		})
	}
}

func TestRegistry_ValidateConfig_UnknownType(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	err = reg.ValidateConfig("delay", map[string]any{})
	assert.True(t, errors.Is(err, ErrUnknownNodeType))
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		catalog string
		message string
	}{
		{"malformed yaml", "nodeTypes: [", "failed to parse node catalog"},
		{"unknown key", "nodeTypez: []", "failed to parse node catalog"},
		{"missing type", "nodeTypes:\n  - label: x\n    schema: {type: object}", "has no type"},
		{"missing schema", "nodeTypes:\n  - type: trigger", "missing schema"},
		{
			"duplicate type",
			"nodeTypes:\n  - type: trigger\n    schema: {type: object}\n  - type: trigger\n    schema: {type: object}",
			"declared twice",
		},
		{
			"config field not in schema",
			"nodeTypes:\n  - type: trigger\n    configField: event\n    options: [{value: a, label: A}]\n    schema: {type: object, properties: {}}",
			"does not declare config field event",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.catalog))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestNodeTypes_ReturnsCopy(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	types := reg.NodeTypes()
	types[0].Label = "changed"

	assert.Equal(t, "Gmail Trigger", reg.NodeTypes()[0].Label)
}
