package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/litgraph/litgraph/internal/paper"
)

func testIndexPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "papers", "index.json")
}

func TestMerge_AddsNewPapers(t *testing.T) {
	path := testIndexPath(t)
	papers := paper.DedupBatch([]paper.Paper{
		{ArXivID: "1", Title: "One"},
		{ArXivID: "2", Title: "Two"},
		{DOI: "10.1/three", Title: "Three"},
	})

	added, updated, err := Merge(papers, path)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(added) != 3 {
		t.Errorf("added = %d, want 3", len(added))
	}
	if len(updated) != 0 {
		t.Errorf("updated = %d, want 0", len(updated))
	}

	persisted, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(persisted) != 3 {
		t.Errorf("persisted = %d records, want 3", len(persisted))
	}
	for _, p := range persisted {
		if p.DedupKey != paper.DedupKey(p) {
			t.Errorf("record %q has stale dedup key", p.Title)
		}
	}
}

func TestMerge_Idempotent(t *testing.T) {
	path := testIndexPath(t)
	papers := paper.DedupBatch([]paper.Paper{
		{ArXivID: "1", Title: "One", Citations: 5},
		{Title: "No IDs At All"},
	})

	if _, _, err := Merge(papers, path); err != nil {
		t.Fatalf("first Merge: %v", err)
	}

	added, updated, err := Merge(papers, path)
	if err != nil {
		t.Fatalf("second Merge: %v", err)
	}
	if len(added) != 0 || len(updated) != 0 {
		t.Errorf("second merge: added = %d, updated = %d, want 0/0", len(added), len(updated))
	}
}

func TestMerge_UpdatesVolatileFields(t *testing.T) {
	path := testIndexPath(t)
	original := paper.DedupBatch([]paper.Paper{
		{ArXivID: "1", Title: "One", Authors: []string{"A. Author"}, Year: 2020, Citations: 5},
	})
	if _, _, err := Merge(original, path); err != nil {
		t.Fatalf("initial Merge: %v", err)
	}

	newer := paper.DedupBatch([]paper.Paper{
		{ArXivID: "1", Title: "A Different Title", Citations: 9},
	})
	added, updated, err := Merge(newer, path)
	if err != nil {
		t.Fatalf("update Merge: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("added = %d, want 0", len(added))
	}
	if len(updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(updated))
	}
	if updated[0].Citations != 9 {
		t.Errorf("updated citations = %d, want 9", updated[0].Citations)
	}

	persisted, _ := Load(path)
	got := persisted[0]
	if got.Citations != 9 {
		t.Errorf("persisted citations = %d, want 9", got.Citations)
	}
	if got.Title != "One" {
		t.Errorf("non-volatile title changed: %q", got.Title)
	}
	if got.Year != 2020 || len(got.Authors) != 1 {
		t.Errorf("non-volatile fields changed: %+v", got)
	}
}

func TestMerge_NewDOIAndPDFURL(t *testing.T) {
	path := testIndexPath(t)
	if _, _, err := Merge(paper.DedupBatch([]paper.Paper{
		{ArXivID: "1", Title: "One"},
	}), path); err != nil {
		t.Fatalf("initial Merge: %v", err)
	}

	_, updated, err := Merge(paper.DedupBatch([]paper.Paper{
		{ArXivID: "1", Title: "One", DOI: "10.1/one", PDFURL: "https://x/one.pdf"},
	}), path)
	if err != nil {
		t.Fatalf("update Merge: %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(updated))
	}
	if updated[0].DOI != "10.1/one" || updated[0].PDFURL != "https://x/one.pdf" {
		t.Errorf("volatile fields not refreshed: %+v", updated[0])
	}
}

func TestMerge_EmptyBatchWritesFile(t *testing.T) {
	path := testIndexPath(t)

	added, updated, err := Merge(nil, path)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(added) != 0 || len(updated) != 0 {
		t.Errorf("empty merge reported changes: %d/%d", len(added), len(updated))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("index file not written: %v", err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("index file not a JSON array: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty collection, got %d records", len(records))
	}
}

func TestLoad_AbsentFile(t *testing.T) {
	papers, err := Load(filepath.Join(t.TempDir(), "nope", "index.json"))
	if err != nil {
		t.Fatalf("Load on absent file: %v", err)
	}
	if papers != nil {
		t.Errorf("expected nil, got %d records", len(papers))
	}
}

func TestWrite_StableOrder(t *testing.T) {
	path := testIndexPath(t)
	papers := paper.DedupBatch([]paper.Paper{
		{DOI: "10.1/z", Title: "Z"},
		{ArXivID: "1", Title: "One"},
	})

	if err := Write(path, papers); err != nil {
		t.Fatalf("Write: %v", err)
	}
	first, _ := os.ReadFile(path)

	// Reverse input order; output must be identical.
	if err := Write(path, []paper.Paper{papers[1], papers[0]}); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Error("index file order not stable across rewrites")
	}
}
