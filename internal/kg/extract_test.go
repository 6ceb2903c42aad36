package kg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/litgraph/litgraph/internal/graph"
	"github.com/litgraph/litgraph/internal/llm"
	"github.com/litgraph/litgraph/internal/schema"
)

// fakeCompleter returns a canned response and records the last prompt.
type fakeCompleter struct {
	response string
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string, _ llm.Tier) (string, error) {
	f.lastUser = user
	return f.response, nil
}

const extractionPrompt = `
system: |
  Extract entities and relationships.
template: |
  Entity types: {{.entity_types}}
  Relation types: {{.relation_types}}

  {{.text}}
`

func writeExtractionPrompt(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "entity_extraction.yaml"), []byte(extractionPrompt), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestParseRecords(t *testing.T) {
	output := `Here are the extracted records:
("entity"|Graph Neural Network|Method|Message-passing architecture)
("entity"|node classification|Task|Predicting node labels)
("relationship"|Graph Neural Network|node classification|applied_to|GNNs solve it)
<|COMPLETE|>
not a record line
("entity"||Method|missing name)
("relationship"|only|four|fields)
`
	entities, relations := parseRecords(output)

	if len(entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(entities))
	}
	if entities[0].Name != "Graph Neural Network" || entities[0].EntityType != "Method" {
		t.Errorf("entity[0] = %+v", entities[0])
	}
	if len(relations) != 1 {
		t.Fatalf("relations = %d, want 1", len(relations))
	}
	if relations[0].RelationType != "applied_to" || relations[0].Target != "node classification" {
		t.Errorf("relation[0] = %+v", relations[0])
	}
}

func TestExtract(t *testing.T) {
	reg := loadTestRegistry(t)
	g := graph.New()
	store := NewNormalizingStore(NewGraphBacked(g), reg)

	completer := &fakeCompleter{response: `
("entity"|Some Paper|Paper|A study)
("entity"|GNN|Method|Graph model)
("relationship"|Some Paper|GNN|uses_method|the paper applies GNNs)
("relationship"|GNN|Some Paper|uses_method|wrong direction)
`}

	ex := NewExtractor(completer, reg, store, writeExtractionPrompt(t))
	res, err := ex.Extract(context.Background(), "full analysis text")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if res.Entities != 2 || res.Relations != 2 {
		t.Errorf("result = %+v", res)
	}

	// Aliased entity lands under its canonical ID.
	if !g.HasNode("Graph Neural Network") {
		t.Fatal("canonical node missing")
	}

	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("edges = %d, want 1 (undirected pair collapses)", len(edges))
	}
	// Valid Paper->Method direction keeps its type; the reversed duplicate
	// degrades but lands on the same undirected edge, overwriting it.
	if edges[0].RelationType != schema.RelatedTo {
		t.Errorf("RelationType = %q, want %q after degraded overwrite", edges[0].RelationType, schema.RelatedTo)
	}

	// The prompt received the schema vocabulary and the text.
	for _, want := range []string{"Concept, Method, Paper", "uses_method", "full analysis text"} {
		if !strings.Contains(completer.lastUser, want) {
			t.Errorf("prompt missing %q: %s", want, completer.lastUser)
		}
	}
}

func TestExtract_UnknownRelationDegrades(t *testing.T) {
	reg := loadTestRegistry(t)
	g := graph.New()
	store := NewNormalizingStore(NewGraphBacked(g), reg)

	completer := &fakeCompleter{response: `
("entity"|attention|Concept|weighting mechanism)
("entity"|transformer|Method|sequence model)
("relationship"|attention|transformer|invented_by|no such relation)
`}

	ex := NewExtractor(completer, reg, store, writeExtractionPrompt(t))
	if _, err := ex.Extract(context.Background(), "text"); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	edges := g.Edges()
	if len(edges) != 1 || edges[0].RelationType != schema.RelatedTo {
		t.Errorf("edges = %+v, want single %s edge", edges, schema.RelatedTo)
	}
}
