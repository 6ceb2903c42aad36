// Package search queries paper providers (arXiv, Semantic Scholar) and
// filters the results before they reach the identity index.
package search

import (
	"context"
	"fmt"
	"os"

	"github.com/litgraph/litgraph/internal/paper"
)

// Provider is a keyword paper search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, keyword string, limit int) ([]paper.Paper, error)
}

// SearchAll queries every provider for every keyword, up to maxResults
// papers total. A failed keyword/provider pair is a stderr warning, not a
// batch abort; partial results are better than none.
func SearchAll(ctx context.Context, providers []Provider, keywords []string, maxResults int) []paper.Paper {
	var all []paper.Paper

	for _, p := range providers {
		for _, kw := range keywords {
			if len(all) >= maxResults {
				return all[:maxResults]
			}

			papers, err := p.Search(ctx, kw, maxResults-len(all))
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %s search failed for %q: %v\n", p.Name(), kw, err)
				continue
			}
			all = append(all, papers...)
		}
	}

	if len(all) > maxResults {
		all = all[:maxResults]
	}
	return all
}
