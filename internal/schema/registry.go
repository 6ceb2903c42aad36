// Package schema loads the declarative knowledge-graph schema and answers
// entity/relation normalization and validation queries.
package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// RelatedTo is the degradation sentinel for relations the schema does not
// recognize. Degrading instead of rejecting keeps every extracted edge.
const RelatedTo = "related_to"

// RelationSpec constrains the endpoint node types of a relation.
type RelationSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Registry answers normalization and validation queries against a schema
// file. Construct one with Load and pass it by reference; call Reload after
// editing the schema file.
type Registry struct {
	path string

	nodeTypes     map[string]yaml.Node // only membership is consumed
	relationTypes map[string]RelationSpec
	aliases       map[string]string // lowercased alias -> canonical
}

// schemaFile is the on-disk schema document layout.
type schemaFile struct {
	NodeTypes     map[string]yaml.Node    `yaml:"node_types"`
	RelationTypes map[string]RelationSpec `yaml:"relation_types"`
	Aliases       map[string]string       `yaml:"aliases"`
}

// Load reads the schema from path. An absent file yields an empty schema:
// all validations fail, every relation degrades, alias lookup is a
// passthrough.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the schema file, replacing the cached contents.
func (r *Registry) Reload() error {
	r.nodeTypes = map[string]yaml.Node{}
	r.relationTypes = map[string]RelationSpec{}
	r.aliases = map[string]string{}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading schema: %w", err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing schema: %w", err)
	}

	if file.NodeTypes != nil {
		r.nodeTypes = file.NodeTypes
	}
	if file.RelationTypes != nil {
		r.relationTypes = file.RelationTypes
	}

	// Lowercase alias keys for case-insensitive lookup. Keys are processed
	// in sorted order so collisions resolve deterministically.
	keys := make([]string, 0, len(file.Aliases))
	for k := range file.Aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.aliases[strings.ToLower(k)] = file.Aliases[k]
	}

	return nil
}

// NormalizeEntity maps an entity name to its canonical form via
// case-insensitive alias lookup. Unmatched names (and empty strings) pass
// through unchanged.
func (r *Registry) NormalizeEntity(name string) string {
	if canonical, ok := r.aliases[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

// ValidateEntity reports whether entityType is declared in the schema.
func (r *Registry) ValidateEntity(entityType string) bool {
	_, ok := r.nodeTypes[entityType]
	return ok
}

// ValidateRelation reports whether relType is declared with exactly the
// given endpoint types. Endpoint order matters; there is no implicit
// symmetry.
func (r *Registry) ValidateRelation(fromType, relType, toType string) bool {
	spec, ok := r.relationTypes[relType]
	if !ok {
		return false
	}
	return spec.From == fromType && spec.To == toType
}

// NormalizeRelationType returns relType when ValidateRelation succeeds and
// the RelatedTo sentinel otherwise. The edge is never rejected, only
// demoted to a generic relation.
func (r *Registry) NormalizeRelationType(fromType, relType, toType string) string {
	if r.ValidateRelation(fromType, relType, toType) {
		return relType
	}
	return RelatedTo
}

// NodeTypes returns the declared node type names, sorted.
func (r *Registry) NodeTypes() []string {
	types := make([]string, 0, len(r.nodeTypes))
	for t := range r.nodeTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// RelationTypes returns the declared relation type names, sorted.
func (r *Registry) RelationTypes() []string {
	types := make([]string, 0, len(r.relationTypes))
	for t := range r.relationTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
