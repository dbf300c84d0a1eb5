package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// NodeType discriminates the node variants and their config shapes.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"   // Workflow start condition (e.g. new email)
	NodeTypeAction    NodeType = "action"    // Effect to perform (e.g. send email)
	NodeTypeCondition NodeType = "condition" // Branches on a predicate through true/false handles
)

// Position is canvas layout only; it carries no validity constraint.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one vertex of the workflow graph.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// NodeData holds the display label and the typed configuration of a node.
type NodeData struct {
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Config      NodeConfig `json:"config"`
}

// GmailAuth is attached to a node once the external OAuth flow completes.
// The token is opaque to this service.
type GmailAuth struct {
	Email           string `json:"email"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	AccessToken     string `json:"accessToken,omitempty"`
}

// NodeConfig is implemented by the per-type configuration shapes.
type NodeConfig interface {
	// NodeType returns the node type this config belongs to.
	NodeType() NodeType
	// Gmail returns the attached Gmail identity, if any.
	Gmail() *GmailAuth
	// SetGmail attaches or clears the Gmail identity.
	SetGmail(auth *GmailAuth)

	clone() NodeConfig
}

// TriggerConfig configures a trigger node.
type TriggerConfig struct {
	Event       string     `json:"event,omitempty"`
	SearchQuery string     `json:"searchQuery,omitempty"`
	GmailAuth   *GmailAuth `json:"gmailAuth,omitempty"`
}

func (c *TriggerConfig) NodeType() NodeType       { return NodeTypeTrigger }
func (c *TriggerConfig) Gmail() *GmailAuth        { return c.GmailAuth }
func (c *TriggerConfig) SetGmail(auth *GmailAuth) { c.GmailAuth = auth }

func (c *TriggerConfig) clone() NodeConfig {
	out := *c
	out.GmailAuth = cloneGmail(c.GmailAuth)

	return &out
}

// ActionConfig configures an action node.
type ActionConfig struct {
	ActionType  string     `json:"actionType,omitempty"`
	To          string     `json:"to,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Description string     `json:"description,omitempty"`
	GmailAuth   *GmailAuth `json:"gmailAuth,omitempty"`
}

func (c *ActionConfig) NodeType() NodeType       { return NodeTypeAction }
func (c *ActionConfig) Gmail() *GmailAuth        { return c.GmailAuth }
func (c *ActionConfig) SetGmail(auth *GmailAuth) { c.GmailAuth = auth }

func (c *ActionConfig) clone() NodeConfig {
	out := *c
	out.GmailAuth = cloneGmail(c.GmailAuth)

	return &out
}

// ConditionConfig configures a condition node.
type ConditionConfig struct {
	ConditionType string     `json:"conditionType,omitempty"`
	Value         string     `json:"value,omitempty"`
	GmailAuth     *GmailAuth `json:"gmailAuth,omitempty"`
}

func (c *ConditionConfig) NodeType() NodeType       { return NodeTypeCondition }
func (c *ConditionConfig) Gmail() *GmailAuth        { return c.GmailAuth }
func (c *ConditionConfig) SetGmail(auth *GmailAuth) { c.GmailAuth = auth }

func (c *ConditionConfig) clone() NodeConfig {
	out := *c
	out.GmailAuth = cloneGmail(c.GmailAuth)

	return &out
}

// GenericConfig keeps the config of node types this service does not know about.
type GenericConfig struct {
	Type   NodeType
	Values map[string]any
}

func (c *GenericConfig) NodeType() NodeType { return c.Type }

func (c *GenericConfig) Gmail() *GmailAuth {
	raw, ok := c.Values["gmailAuth"]
	if !ok {
		return nil
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var auth GmailAuth
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil
	}

	return &auth
}

func (c *GenericConfig) SetGmail(auth *GmailAuth) {
	if c.Values == nil {
		c.Values = map[string]any{}
	}

	if auth == nil {
		delete(c.Values, "gmailAuth")

		return
	}

	c.Values["gmailAuth"] = map[string]any{
		"email":           auth.Email,
		"isAuthenticated": auth.IsAuthenticated,
		"accessToken":     auth.AccessToken,
	}
}

func (c *GenericConfig) clone() NodeConfig {
	return &GenericConfig{Type: c.Type, Values: deepCopyMap(c.Values)}
}

// MarshalJSON renders the free-form values directly.
func (c *GenericConfig) MarshalJSON() ([]byte, error) {
	if c.Values == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(c.Values)
}

// NewNodeConfig returns the empty config for a node type.
func NewNodeConfig(nodeType NodeType) NodeConfig {
	switch nodeType {
	case NodeTypeTrigger:
		return &TriggerConfig{}
	case NodeTypeAction:
		return &ActionConfig{}
	case NodeTypeCondition:
		return &ConditionConfig{}
	default:
		return &GenericConfig{Type: nodeType, Values: map[string]any{}}
	}
}

// DecodeNodeConfig decodes a raw config object into the shape selected by nodeType.
// An empty or null payload yields the empty config.
func DecodeNodeConfig(nodeType NodeType, raw []byte) (NodeConfig, error) {
	config := NewNodeConfig(nodeType)

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return config, nil
	}

	if generic, ok := config.(*GenericConfig); ok {
		if err := json.Unmarshal(trimmed, &generic.Values); err != nil {
			return nil, fmt.Errorf("failed to decode %s node config: %w", nodeType, err)
		}

		return generic, nil
	}

	if err := json.Unmarshal(trimmed, config); err != nil {
		return nil, fmt.Errorf("failed to decode %s node config: %w", nodeType, err)
	}

	return config, nil
}

// ConfigValues renders a config as a plain map, the shape JSON schemas and patches work on.
func ConfigValues(config NodeConfig) (map[string]any, error) {
	values := map[string]any{}
	if config == nil {
		return values, nil
	}

	body, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node config: %w", err)
	}

	if err := json.Unmarshal(body, &values); err != nil {
		return nil, fmt.Errorf("failed to decode node config: %w", err)
	}

	return values, nil
}

// UnmarshalJSON decodes data.config according to the node type.
func (n *Node) UnmarshalJSON(body []byte) error {
	var raw struct {
		ID       string   `json:"id"`
		Type     NodeType `json:"type"`
		Position Position `json:"position"`
		Data     struct {
			Label       string          `json:"label"`
			Description string          `json:"description"`
			Config      json.RawMessage `json:"config"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return err
	}

	config, err := DecodeNodeConfig(raw.Type, raw.Data.Config)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}

	*n = Node{
		ID:       raw.ID,
		Type:     raw.Type,
		Position: raw.Position,
		Data: NodeData{
			Label:       raw.Data.Label,
			Description: raw.Data.Description,
			Config:      config,
		},
	}

	return nil
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	if n.Data.Config != nil {
		n.Data.Config = n.Data.Config.clone()
	}

	return n
}

// Config returns the node config, creating the empty one for its type when unset.
func (n *Node) Config() NodeConfig {
	if n.Data.Config == nil {
		n.Data.Config = NewNodeConfig(n.Type)
	}

	return n.Data.Config
}

func cloneGmail(auth *GmailAuth) *GmailAuth {
	if auth == nil {
		return nil
	}

	out := *auth

	return &out
}

func deepCopyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}

	out := maps.Clone(in)

	for k, v := range out {
		switch typed := v.(type) {
		case map[string]any:
			out[k] = deepCopyMap(typed)
		case []any:
			items := make([]any, len(typed))
			for i, item := range typed {
				if m, ok := item.(map[string]any); ok {
					items[i] = deepCopyMap(m)
				} else {
					items[i] = item
				}
			}

			out[k] = items
		}
	}

	return out
}
