package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/litgraph/litgraph/internal/llm"
	"github.com/litgraph/litgraph/internal/paper"
)

// FilterOptions controls Filter behavior.
type FilterOptions struct {
	Keywords     []string
	MinCitations int

	// Completer enables the LLM relevance check; nil skips it.
	Completer  llm.Completer
	PromptsDir string
}

// Filter drops papers below the citation threshold and, when a Completer is
// set, papers the cheap model judges irrelevant to the keywords. A failed
// relevance check keeps the paper; filtering must never lose papers to
// transient LLM errors. Survivors are marked Relevant.
func Filter(ctx context.Context, papers []paper.Paper, opts FilterOptions) []paper.Paper {
	var kept []paper.Paper

	for _, p := range papers {
		if p.Citations < opts.MinCitations {
			continue
		}
		if opts.Completer != nil && len(opts.Keywords) > 0 && !relevanceCheck(ctx, p, opts) {
			continue
		}
		p.Relevant = true
		kept = append(kept, p)
	}

	return kept
}

// relevanceVerdict is the JSON verdict shape the prompt asks for.
type relevanceVerdict struct {
	Relevant bool `json:"relevant"`
}

func relevanceCheck(ctx context.Context, p paper.Paper, opts FilterOptions) bool {
	system, user, err := llm.LoadPrompt(opts.PromptsDir, "relevance_filter", map[string]any{
		"topic":    strings.Join(opts.Keywords, ", "),
		"title":    p.Title,
		"abstract": p.Abstract,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: relevance prompt failed for %q: %v\n", p.Title, err)
		return true
	}

	response, err := opts.Completer.Complete(ctx, system, user, llm.TierCheap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: relevance check failed for %q: %v\n", p.Title, err)
		return true
	}

	var verdict relevanceVerdict
	if err := json.Unmarshal([]byte(extractJSON(response)), &verdict); err != nil {
		fmt.Fprintf(os.Stderr, "warning: relevance verdict unparseable for %q: %v\n", p.Title, err)
		return true
	}
	return verdict.Relevant
}

// extractJSON pulls the first JSON object out of a response that may wrap it
// in prose or a markdown fence.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
