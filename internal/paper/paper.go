// Package paper defines the core domain type for academic papers and
// the deduplication identity used to merge records across sources.
package paper

import (
	"encoding/json"
)

// Paper represents a paper record returned by a search provider.
//
// Citations, DOI and PDFURL are the volatile fields: later search runs may
// supply fresher values for an already-indexed paper. A zero value on any of
// them means "not reported by the provider".
type Paper struct {
	DedupKey  string   `json:"dedup_key,omitempty"`
	PaperID   string   `json:"paper_id,omitempty"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
	Year      int      `json:"year,omitempty"`
	Source    string   `json:"source,omitempty"` // "arxiv", "semantic_scholar", ...
	Abstract  string   `json:"abstract,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	ArXivID   string   `json:"arxiv_id,omitempty"`
	Citations int      `json:"citations,omitempty"`
	PDFURL    string   `json:"pdf_url,omitempty"`
	Relevant  bool     `json:"relevant,omitempty"`

	// Extra holds provider-specific fields that are not part of the core
	// record. They round-trip through the index file unchanged.
	Extra map[string]any `json:"-"`
}

// knownFields are the JSON keys owned by the Paper struct itself.
var knownFields = map[string]bool{
	"dedup_key": true,
	"paper_id":  true,
	"title":     true,
	"authors":   true,
	"year":      true,
	"source":    true,
	"abstract":  true,
	"doi":       true,
	"arxiv_id":  true,
	"citations": true,
	"pdf_url":   true,
	"relevant":  true,
}

// paperAlias avoids recursion in the custom (un)marshalers.
type paperAlias Paper

// UnmarshalJSON decodes a paper record, routing unrecognized keys into Extra.
func (p *Paper) UnmarshalJSON(data []byte) error {
	var alias paperAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, val := range raw {
		if knownFields[key] {
			continue
		}
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			return err
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]any)
		}
		alias.Extra[key] = v
	}

	*p = Paper(alias)
	return nil
}

// MarshalJSON encodes a paper record, folding Extra back into the object.
func (p Paper) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(paperAlias(p))
	if err != nil {
		return nil, err
	}

	if len(p.Extra) == 0 {
		return data, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for key, val := range p.Extra {
		if !knownFields[key] {
			obj[key] = val
		}
	}
	return json.Marshal(obj)
}
