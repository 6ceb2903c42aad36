// Package index maintains the persistent paper identity index: a JSON file
// mapping dedup keys to paper records, merged idempotently across search
// runs, plus an ephemeral SQLite cache for queries.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/litgraph/litgraph/internal/paper"
)

// Load reads the index file into a slice of paper records.
// An absent file is an empty index, not an error.
func Load(path string) ([]paper.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var papers []paper.Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	return papers, nil
}

// Merge folds new papers into the index at path and rewrites it.
//
// New keys are inserted and reported as added. For existing keys, the
// volatile fields (citations, doi, pdf_url) are refreshed when the incoming
// record carries a non-zero value that differs from the stored one; the
// stored record (post-update) is reported as updated. All other stored
// fields keep their original values. Merging the same batch twice is a
// no-op the second time.
//
// The index file is always rewritten, even when the merge is empty.
func Merge(newPapers []paper.Paper, path string) (added, updated []paper.Paper, err error) {
	existing, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	byKey := make(map[string]int, len(existing))
	for i := range existing {
		key := existing[i].DedupKey
		if key == "" {
			key = paper.DedupKey(existing[i])
			existing[i].DedupKey = key
		}
		byKey[key] = i
	}

	for _, p := range newPapers {
		if p.DedupKey == "" {
			p.DedupKey = paper.DedupKey(p)
		}

		i, ok := byKey[p.DedupKey]
		if !ok {
			byKey[p.DedupKey] = len(existing)
			existing = append(existing, p)
			added = append(added, p)
			continue
		}

		if refreshVolatile(&existing[i], p) {
			updated = append(updated, existing[i])
		}
	}

	if err := Write(path, existing); err != nil {
		return nil, nil, err
	}
	return added, updated, nil
}

// refreshVolatile copies changed volatile fields from incoming onto stored.
// A zero value on the incoming record means the provider did not report the
// field, so it never clears a stored value.
func refreshVolatile(stored *paper.Paper, incoming paper.Paper) bool {
	changed := false
	if incoming.Citations != 0 && incoming.Citations != stored.Citations {
		stored.Citations = incoming.Citations
		changed = true
	}
	if incoming.DOI != "" && incoming.DOI != stored.DOI {
		stored.DOI = incoming.DOI
		changed = true
	}
	if incoming.PDFURL != "" && incoming.PDFURL != stored.PDFURL {
		stored.PDFURL = incoming.PDFURL
		changed = true
	}
	return changed
}

// Write persists the full index atomically, sorted by dedup key so rewrites
// are stable across runs. Parent directories are created as needed.
func Write(path string, papers []paper.Paper) error {
	sorted := make([]paper.Paper, len(papers))
	copy(sorted, papers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DedupKey < sorted[j].DedupKey
	})

	if papers == nil {
		sorted = []paper.Paper{} // encode as [] rather than null
	}

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-index-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing index: %w", err)
	}
	if _, err := tmpFile.WriteString("\n"); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing newline: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// Get returns the record with the given dedup key or paper ID, if present.
func Get(papers []paper.Paper, id string) (paper.Paper, bool) {
	for _, p := range papers {
		if p.DedupKey == id || (p.PaperID != "" && p.PaperID == id) {
			return p, true
		}
	}
	return paper.Paper{}, false
}
