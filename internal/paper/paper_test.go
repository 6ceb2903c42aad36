package paper

import (
	"encoding/json"
	"testing"
)

func TestPaperJSON_ExtrasRoundTrip(t *testing.T) {
	in := []byte(`{
		"title": "A Paper",
		"authors": ["Ada Lovelace"],
		"year": 2024,
		"citations": 7,
		"venue": "NeurIPS",
		"fields_of_study": ["CS"]
	}`)

	var p Paper
	if err := json.Unmarshal(in, &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if p.Title != "A Paper" || p.Year != 2024 || p.Citations != 7 {
		t.Errorf("core fields not decoded: %+v", p)
	}
	if p.Extra["venue"] != "NeurIPS" {
		t.Errorf("extra field venue = %v, want NeurIPS", p.Extra["venue"])
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(out, &obj); err != nil {
		t.Fatalf("re-Unmarshal: %v", err)
	}
	if obj["venue"] != "NeurIPS" {
		t.Errorf("venue lost in round-trip: %v", obj)
	}
	if obj["title"] != "A Paper" {
		t.Errorf("title lost in round-trip: %v", obj)
	}
}

func TestPaperJSON_NoExtras(t *testing.T) {
	p := Paper{Title: "T", DedupKey: "arxiv:1"}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Paper
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Title != "T" || back.DedupKey != "arxiv:1" {
		t.Errorf("round-trip mismatch: %+v", back)
	}
	if len(back.Extra) != 0 {
		t.Errorf("unexpected extras: %v", back.Extra)
	}
}
