// Package kg builds the knowledge graph from paper analyses: a writable
// store abstraction, a schema-normalizing decorator over it, and an
// LLM-driven entity/relation extractor.
package kg

import (
	"github.com/litgraph/litgraph/internal/graph"
	"github.com/litgraph/litgraph/internal/schema"
)

// GraphStore is the write surface the extractor targets. Implementations
// must tolerate repeated upserts of the same node or edge.
type GraphStore interface {
	UpsertNode(id string, n graph.Node) error
	UpsertEdge(source, target string, e graph.Edge) error
}

// GraphBacked writes directly into an in-memory graph.
type GraphBacked struct {
	g *graph.Graph
}

// NewGraphBacked wraps g as a GraphStore.
func NewGraphBacked(g *graph.Graph) *GraphBacked {
	return &GraphBacked{g: g}
}

func (s *GraphBacked) UpsertNode(id string, n graph.Node) error {
	n.ID = id
	s.g.UpsertNode(n)
	return nil
}

func (s *GraphBacked) UpsertEdge(source, target string, e graph.Edge) error {
	s.g.UpsertEdge(source, target, e)
	return nil
}

// NormalizingStore decorates a GraphStore with schema alias resolution.
// Node IDs, node names, and both edge endpoints are mapped to their
// canonical forms before the write reaches the inner store, so "GNN" and
// "Graph Neural Network" land on the same node. Relation-type degradation
// is the extractor's job; the store only canonicalizes identities.
type NormalizingStore struct {
	inner    GraphStore
	registry *schema.Registry
}

// NewNormalizingStore wraps inner with alias normalization from registry.
func NewNormalizingStore(inner GraphStore, registry *schema.Registry) *NormalizingStore {
	return &NormalizingStore{inner: inner, registry: registry}
}

func (s *NormalizingStore) UpsertNode(id string, n graph.Node) error {
	canonical := s.registry.NormalizeEntity(id)
	if n.Name != "" {
		n.Name = s.registry.NormalizeEntity(n.Name)
	}
	return s.inner.UpsertNode(canonical, n)
}

func (s *NormalizingStore) UpsertEdge(source, target string, e graph.Edge) error {
	return s.inner.UpsertEdge(
		s.registry.NormalizeEntity(source),
		s.registry.NormalizeEntity(target),
		e,
	)
}
