// Package editor applies canvas edits to a workflow draft.
//
// Edits never validate the workflow as a whole: a draft may be incomplete until
// it is saved. Node configs are checked against the node catalog and labels are
// recomputed after every config change.
package editor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/registry"
)

// ChangeFunc observes the draft after each successful edit. It receives a copy.
type ChangeFunc func(*models.Workflow)

// Option configures a Draft.
type Option func(*Draft)

// WithClock sets the clock used to mint node ids.
func WithClock(clock func() time.Time) Option {
	return func(d *Draft) {
		d.now = clock
	}
}

// Draft is a workflow under edit. It is safe for concurrent use.
type Draft struct {
	mu        sync.Mutex
	workflow  *models.Workflow
	catalog   *registry.Registry
	now       func() time.Time
	observers []ChangeFunc
}

// New starts editing a copy of workflow. A nil workflow starts an empty draft
// named models.DefaultWorkflowName.
func New(catalog *registry.Registry, workflow *models.Workflow, opts ...Option) *Draft {
	if workflow == nil {
		workflow = &models.Workflow{Name: models.DefaultWorkflowName}
	}

	d := &Draft{
		workflow: workflow.Clone(),
		catalog:  catalog,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// OnChange registers an observer.
func (d *Draft) OnChange(fn ChangeFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, fn)
}

// Workflow returns a copy of the current draft.
func (d *Draft) Workflow() *models.Workflow {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.workflow.Clone()
}

// Rename sets the workflow name and description.
func (d *Draft) Rename(name, description string) {
	d.mu.Lock()
	d.workflow.Name = name
	d.workflow.Description = description
	d.mu.Unlock()

	d.notify()
}

// AddNode places a new, unconfigured node of a catalog type on the canvas.
func (d *Draft) AddNode(nodeType models.NodeType, position models.Position) (models.Node, error) {
	if _, ok := d.catalog.Lookup(nodeType); !ok {
		return models.Node{}, fmt.Errorf("%w: %s", registry.ErrUnknownNodeType, nodeType)
	}

	d.mu.Lock()

	node := models.Node{
		ID:       d.nextNodeID(nodeType),
		Type:     nodeType,
		Position: position,
		Data:     models.NodeData{Config: models.NewNodeConfig(nodeType)},
	}
	node.RefreshLabel()

	d.workflow.Nodes = append(d.workflow.Nodes, node)
	d.mu.Unlock()

	d.notify()

	return node.Clone(), nil
}

// nextNodeID returns {type}-{unixMillis}, suffixed when that id is taken.
func (d *Draft) nextNodeID(nodeType models.NodeType) string {
	base := string(nodeType) + "-" + strconv.FormatInt(d.now().UnixMilli(), 10)

	id := base
	for n := 2; ; n++ {
		if node, _ := d.workflow.NodeByID(id); node == nil {
			return id
		}

		id = base + "-" + strconv.Itoa(n)
	}
}

// UpdateNodeConfig merges patch into the node config. A nil value removes the key.
// The merged config must satisfy the node type's schema; on failure the node is unchanged.
func (d *Draft) UpdateNodeConfig(nodeID string, patch map[string]any) (models.Node, error) {
	d.mu.Lock()

	node, _ := d.workflow.NodeByID(nodeID)
	if node == nil {
		d.mu.Unlock()

		return models.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	values, err := models.ConfigValues(node.Data.Config)
	if err != nil {
		d.mu.Unlock()

		return models.Node{}, err
	}

	for key, value := range patch {
		if value == nil {
			delete(values, key)

			continue
		}

		values[key] = value
	}

	config, err := d.decodeConfig(node.Type, values)
	if err != nil {
		d.mu.Unlock()

		return models.Node{}, err
	}

	node.Data.Config = config
	node.RefreshLabel()
	updated := node.Clone()
	d.mu.Unlock()

	d.notify()

	return updated, nil
}

// SetGmailAuth attaches an authenticated Gmail identity to a node.
func (d *Draft) SetGmailAuth(nodeID, email, accessToken string) (models.Node, error) {
	if email == "" {
		return models.Node{}, ErrEmailRequired
	}

	d.mu.Lock()

	node, _ := d.workflow.NodeByID(nodeID)
	if node == nil {
		d.mu.Unlock()

		return models.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	node.Config().SetGmail(&models.GmailAuth{
		Email:           email,
		IsAuthenticated: true,
		AccessToken:     accessToken,
	})
	updated := node.Clone()
	d.mu.Unlock()

	d.notify()

	return updated, nil
}

// RemoveNode deletes a node and every edge touching it.
func (d *Draft) RemoveNode(nodeID string) error {
	d.mu.Lock()

	_, index := d.workflow.NodeByID(nodeID)
	if index < 0 {
		d.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	d.workflow.Nodes = append(d.workflow.Nodes[:index], d.workflow.Nodes[index+1:]...)

	edges := d.workflow.Edges[:0]
	for _, edge := range d.workflow.Edges {
		if edge.Source != nodeID && edge.Target != nodeID {
			edges = append(edges, edge)
		}
	}

	d.workflow.Edges = edges
	d.mu.Unlock()

	d.notify()

	return nil
}

// Connect links two nodes with an animated edge. Connecting an already linked
// pair of handles returns the existing edge.
func (d *Draft) Connect(source, target, sourceHandle, targetHandle string) (models.Edge, error) {
	if source == target {
		return models.Edge{}, ErrSelfConnection
	}

	d.mu.Lock()

	sourceNode, _ := d.workflow.NodeByID(source)
	if sourceNode == nil {
		d.mu.Unlock()

		return models.Edge{}, fmt.Errorf("%w: %s", ErrNodeNotFound, source)
	}

	if targetNode, _ := d.workflow.NodeByID(target); targetNode == nil {
		d.mu.Unlock()

		return models.Edge{}, fmt.Errorf("%w: %s", ErrNodeNotFound, target)
	}

	if sourceNode.Type == models.NodeTypeCondition && sourceHandle != "" &&
		sourceHandle != models.HandleTrue && sourceHandle != models.HandleFalse {
		d.mu.Unlock()

		return models.Edge{}, fmt.Errorf("%w: %q", ErrInvalidHandle, sourceHandle)
	}

	for _, edge := range d.workflow.Edges {
		if edge.Source == source && edge.Target == target &&
			edge.SourceHandle == sourceHandle && edge.TargetHandle == targetHandle {
			d.mu.Unlock()

			return edge, nil
		}
	}

	edge := models.Edge{
		ID:           EdgeID(source, sourceHandle, target, targetHandle),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
		Animated:     true,
	}

	d.workflow.Edges = append(d.workflow.Edges, edge)
	d.mu.Unlock()

	d.notify()

	return edge, nil
}

// RemoveEdge deletes an edge by id.
func (d *Draft) RemoveEdge(edgeID string) error {
	d.mu.Lock()

	for i, edge := range d.workflow.Edges {
		if edge.ID == edgeID {
			d.workflow.Edges = append(d.workflow.Edges[:i], d.workflow.Edges[i+1:]...)
			d.mu.Unlock()

			d.notify()

			return nil
		}
	}

	d.mu.Unlock()

	return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
}

// EdgeID builds the canvas edge id of a connection.
func EdgeID(source, sourceHandle, target, targetHandle string) string {
	return "reactflow__edge-" + source + sourceHandle + "-" + target + targetHandle
}

func (d *Draft) decodeConfig(nodeType models.NodeType, values map[string]any) (models.NodeConfig, error) {
	if err := d.catalog.ValidateConfig(nodeType, values); err != nil {
		return nil, err
	}

	body, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s config: %w", nodeType, err)
	}

	return models.DecodeNodeConfig(nodeType, body)
}

func (d *Draft) notify() {
	d.mu.Lock()
	observers := append([]ChangeFunc(nil), d.observers...)
	snapshot := d.workflow.Clone()
	d.mu.Unlock()

	for _, observer := range observers {
		observer(snapshot)
	}
}
