package models

// Placeholder labels shown until the node is configured.
const (
	TriggerPlaceholder   = "Select a trigger"
	ActionPlaceholder    = "Select an action"
	ConditionPlaceholder = "Select a condition"
)

// DeriveLabel computes the display label of a node from its config.
// Labels are always derived, never edited directly.
func DeriveLabel(nodeType NodeType, config NodeConfig) string {
	switch nodeType {
	case NodeTypeTrigger:
		if c, ok := config.(*TriggerConfig); ok && c.Event != "" {
			return c.Event
		}

		return TriggerPlaceholder
	case NodeTypeAction:
		if c, ok := config.(*ActionConfig); ok && c.ActionType != "" {
			return c.ActionType
		}

		return ActionPlaceholder
	case NodeTypeCondition:
		if c, ok := config.(*ConditionConfig); ok && c.ConditionType != "" {
			return c.ConditionType
		}

		return ConditionPlaceholder
	default:
		return string(nodeType) + " node"
	}
}

// RefreshLabel recomputes the node label from its current config.
func (n *Node) RefreshLabel() {
	n.Data.Label = DeriveLabel(n.Type, n.Data.Config)
}
