package paper

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	// Characters stripped during title normalization: everything that is
	// not a letter, digit, underscore, or whitespace.
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

	// Runs of whitespace collapsed to a single space.
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lowercases a title, strips punctuation, and collapses
// whitespace. Two titles that differ only in case, punctuation, or spacing
// normalize to the same string.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = nonWordPattern.ReplaceAllString(t, "")
	t = whitespacePattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// TitleHash returns the first 16 hex characters of the SHA256 digest of the
// normalized title. Chosen for stability across runs, not security.
func TitleHash(title string) string {
	sum := sha256.Sum256([]byte(NormalizeTitle(title)))
	return hex.EncodeToString(sum[:])[:16]
}

// DedupKey returns the canonical identity key for a paper.
// Priority: arXiv ID > DOI > title hash.
func DedupKey(p Paper) string {
	if p.ArXivID != "" {
		return "arxiv:" + p.ArXivID
	}
	if p.DOI != "" {
		return "doi:" + p.DOI
	}
	return "title:" + TitleHash(p.Title)
}

// DedupBatch deduplicates papers within a single run, keeping the first
// occurrence per key. Every kept record is stamped with its dedup key.
func DedupBatch(papers []Paper) []Paper {
	seen := make(map[string]bool, len(papers))
	result := make([]Paper, 0, len(papers))

	for _, p := range papers {
		key := DedupKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		p.DedupKey = key
		result = append(result, p)
	}
	return result
}
