package graph

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGraphML_RoundTrip(t *testing.T) {
	g := New()
	g.UpsertNode(Node{ID: "transformer", EntityType: "Method", Name: "transformer", Description: "attention-based architecture"})
	g.UpsertNode(Node{ID: "attention", EntityType: "Concept", Name: "attention"})
	g.UpsertNode(Node{ID: "untyped"})
	g.UpsertEdge("transformer", "attention", Edge{RelationType: "uses_method", Description: "core mechanism"})
	g.UpsertEdge("attention", "untyped", Edge{})

	path := filepath.Join(t.TempDir(), "kg.graphml")
	if err := SaveGraphML(g, path); err != nil {
		t.Fatalf("SaveGraphML: %v", err)
	}

	loaded, err := LoadGraphML(path)
	if err != nil {
		t.Fatalf("LoadGraphML: %v", err)
	}

	if loaded.NodeCount() != 3 || loaded.EdgeCount() != 2 {
		t.Fatalf("loaded %d nodes / %d edges, want 3/2", loaded.NodeCount(), loaded.EdgeCount())
	}

	n, ok := loaded.Node("transformer")
	if !ok {
		t.Fatal("node transformer missing after round-trip")
	}
	if n.EntityType != "Method" || n.Description != "attention-based architecture" {
		t.Errorf("node attributes lost: %+v", n)
	}

	var found bool
	for _, e := range loaded.Edges() {
		if e.RelationType == "uses_method" && e.Description == "core mechanism" {
			found = true
		}
	}
	if !found {
		t.Error("edge attributes lost in round-trip")
	}
}

func TestLoadGraphML_AbsentFile(t *testing.T) {
	g, err := LoadGraphML(filepath.Join(t.TempDir(), "nope.graphml"))
	if err != nil {
		t.Fatalf("LoadGraphML on absent file: %v", err)
	}
	if g.NodeCount() != 0 {
		t.Errorf("absent file yielded %d nodes, want empty graph", g.NodeCount())
	}
}

func TestFindGraphFile(t *testing.T) {
	dir := t.TempDir()

	if _, ok := FindGraphFile(dir); ok {
		t.Error("empty directory reported a graph file")
	}
	if _, ok := FindGraphFile(filepath.Join(dir, "missing")); ok {
		t.Error("absent directory reported a graph file")
	}

	for _, name := range []string{"zzz.graphml", "graph_chunk_entity_relation.graphml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	path, ok := FindGraphFile(dir)
	if !ok {
		t.Fatal("graph file not found")
	}
	if filepath.Base(path) != "graph_chunk_entity_relation.graphml" {
		t.Errorf("FindGraphFile = %s, want first match in sorted order", path)
	}
}
