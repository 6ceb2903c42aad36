package kg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/litgraph/litgraph/internal/graph"
	"github.com/litgraph/litgraph/internal/schema"
)

const storeTestSchema = `
node_types:
  Paper: {}
  Concept: {}
  Method: {}
relation_types:
  uses_method:
    from: Paper
    to: Method
aliases:
  GNN: Graph Neural Network
  scRNA-seq: single-cell RNA sequencing
`

func loadTestRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(storeTestSchema), 0644); err != nil {
		t.Fatal(err)
	}
	reg, err := schema.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestGraphBackedUpsert(t *testing.T) {
	g := graph.New()
	store := NewGraphBacked(g)

	if err := store.UpsertNode("attention", graph.Node{EntityType: "Concept", Name: "attention"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertEdge("attention", "transformer", graph.Edge{RelationType: "related_to"}); err != nil {
		t.Fatal(err)
	}

	n, ok := g.Node("attention")
	if !ok || n.EntityType != "Concept" {
		t.Errorf("node = %+v, ok = %v", n, ok)
	}
	// Missing edge endpoint is auto-created.
	if !g.HasNode("transformer") {
		t.Error("edge target node not created")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestNormalizingStore_NodeAliases(t *testing.T) {
	g := graph.New()
	store := NewNormalizingStore(NewGraphBacked(g), loadTestRegistry(t))

	if err := store.UpsertNode("GNN", graph.Node{EntityType: "Method", Name: "gnn"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertNode("Graph Neural Network", graph.Node{Description: "message passing"}); err != nil {
		t.Fatal(err)
	}

	if g.NodeCount() != 1 {
		t.Fatalf("NodeCount = %d, want 1 (alias variants should converge)", g.NodeCount())
	}
	n, _ := g.Node("Graph Neural Network")
	if n.EntityType != "Method" || n.Description != "message passing" {
		t.Errorf("merged node = %+v", n)
	}
	// The name attribute hits the case-insensitive alias too.
	if n.Name != "Graph Neural Network" {
		t.Errorf("Name = %q, want canonical form", n.Name)
	}
}

func TestNormalizingStore_EdgeEndpoints(t *testing.T) {
	g := graph.New()
	store := NewNormalizingStore(NewGraphBacked(g), loadTestRegistry(t))

	if err := store.UpsertEdge("some paper", "scrna-seq", graph.Edge{RelationType: "uses_method"}); err != nil {
		t.Fatal(err)
	}

	if !g.HasNode("single-cell RNA sequencing") {
		t.Error("edge target was not canonicalized")
	}
	if g.HasNode("scrna-seq") {
		t.Error("raw alias node leaked into the graph")
	}
	// Unaliased endpoint passes through unchanged.
	if !g.HasNode("some paper") {
		t.Error("unaliased source missing")
	}
}
