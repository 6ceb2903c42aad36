package analysis

import (
	"context"
	"fmt"
	"os"

	"github.com/litgraph/litgraph/internal/paper"
)

// BatchError records one failed paper in a batch run.
type BatchError struct {
	PaperID string `json:"paper_id"`
	Error   string `json:"error"`
}

// Stats summarizes a batch analysis run.
type Stats struct {
	Analyzed int          `json:"analyzed"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Errors   []BatchError `json:"errors,omitempty"`
}

// AnalyzeBatch analyzes papers sequentially. Individual failures are
// recorded, not fatal; a canceled context stops the loop.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, papers []paper.Paper) Stats {
	var stats Stats

	for _, p := range papers {
		if ctx.Err() != nil {
			break
		}

		_, skipped, err := a.Analyze(ctx, p)
		switch {
		case err != nil:
			pid := p.PaperID
			if pid == "" {
				pid = p.DedupKey
			}
			fmt.Fprintf(os.Stderr, "warning: analysis failed for %s: %v\n", pid, err)
			stats.Failed++
			stats.Errors = append(stats.Errors, BatchError{PaperID: pid, Error: err.Error()})
		case skipped:
			stats.Skipped++
		default:
			stats.Analyzed++
		}
	}

	return stats
}

// SelectPapers narrows an index to the papers a batch should cover. With
// ids, only matching paper_id/dedup_key entries are returned. With
// pendingOnly, papers that already have a report are dropped. Otherwise the
// whole index is returned.
func (a *Analyzer) SelectPapers(all []paper.Paper, ids []string, pendingOnly bool) []paper.Paper {
	if len(ids) > 0 {
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		var selected []paper.Paper
		for _, p := range all {
			if want[p.PaperID] || want[p.DedupKey] {
				selected = append(selected, p)
			}
		}
		return selected
	}

	if pendingOnly {
		var pending []paper.Paper
		for _, p := range all {
			pid := p.PaperID
			if pid == "" {
				pid = p.DedupKey
			}
			if _, err := os.Stat(a.AnalysisPath(pid)); os.IsNotExist(err) {
				pending = append(pending, p)
			}
		}
		return pending
	}

	return all
}
