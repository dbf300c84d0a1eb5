// Package registry describes the node types the builder offers and validates their configs.
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrUnknownNodeType is returned for node types absent from the catalog.
var ErrUnknownNodeType = errors.New("unknown node type")

// Option is one selectable value of a node type's primary config field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// NodeType is a palette entry: display metadata plus the JSON Schema of its config.
type NodeType struct {
	Type        models.NodeType `json:"type"        yaml:"type"`
	Label       string          `json:"label"       yaml:"label"`
	Description string          `json:"description" yaml:"description"`
	Icon        string          `json:"icon"        yaml:"icon"`
	ConfigField string          `json:"configField" yaml:"configField"`
	Options     []Option        `json:"options"     yaml:"options"`
	Schema      map[string]any  `json:"schema"      yaml:"schema"`
}

type catalog struct {
	NodeTypes []NodeType `yaml:"nodeTypes"`
}

// ConfigError lists the schema violations of a node config.
type ConfigError struct {
	NodeType models.NodeType
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s config: %s", e.NodeType, strings.Join(e.Problems, "; "))
}

// Registry is the loaded node catalog. It is immutable after Load.
type Registry struct {
	nodeTypes []NodeType
	schemas   map[models.NodeType]*gojsonschema.Schema
	index     map[models.NodeType]int
}

// Default loads the embedded catalog.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// Load parses a YAML catalog and compiles every config schema.
func Load(r io.Reader) (*Registry, error) {
	var c catalog

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse node catalog: %w", err)
	}

	reg := &Registry{
		nodeTypes: c.NodeTypes,
		schemas:   make(map[models.NodeType]*gojsonschema.Schema, len(c.NodeTypes)),
		index:     make(map[models.NodeType]int, len(c.NodeTypes)),
	}

	for i, nodeType := range c.NodeTypes {
		if nodeType.Type == "" {
			return nil, fmt.Errorf("node catalog entry %d has no type", i)
		}

		if _, exists := reg.index[nodeType.Type]; exists {
			return nil, fmt.Errorf("node type %s declared twice", nodeType.Type)
		}

		schema, err := compileSchema(nodeType)
		if err != nil {
			return nil, fmt.Errorf("node type %s: %w", nodeType.Type, err)
		}

		reg.index[nodeType.Type] = i
		reg.schemas[nodeType.Type] = schema
	}

	return reg, nil
}

func compileSchema(nodeType NodeType) (*gojsonschema.Schema, error) {
	if nodeType.Schema == nil {
		return nil, errors.New("missing schema")
	}

	if nodeType.ConfigField != "" && len(nodeType.Options) > 0 {
		properties, ok := nodeType.Schema["properties"].(map[string]any)
		if !ok {
			return nil, errors.New("schema has no properties")
		}

		field, ok := properties[nodeType.ConfigField].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema does not declare config field %s", nodeType.ConfigField)
		}

		enum := []any{""}
		for _, option := range nodeType.Options {
			enum = append(enum, option.Value)
		}

		field["enum"] = enum
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(nodeType.Schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
}

// NodeTypes returns the catalog in declaration order.
func (r *Registry) NodeTypes() []NodeType {
	out := make([]NodeType, len(r.nodeTypes))
	copy(out, r.nodeTypes)

	return out
}

// Lookup returns the catalog entry of a node type.
func (r *Registry) Lookup(nodeType models.NodeType) (NodeType, bool) {
	i, ok := r.index[nodeType]
	if !ok {
		return NodeType{}, false
	}

	return r.nodeTypes[i], true
}

// ValidateConfig checks config values against the node type's schema.
func (r *Registry) ValidateConfig(nodeType models.NodeType, values map[string]any) error {
	schema, ok := r.schemas[nodeType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	if values == nil {
		values = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(values))
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", nodeType, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		problems = append(problems, resultErr.String())
	}

	return &ConfigError{NodeType: nodeType, Problems: problems}
}
