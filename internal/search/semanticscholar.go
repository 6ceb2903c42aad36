package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/litgraph/litgraph/internal/paper"
)

const (
	// SemanticScholarBaseURL is the Graph API paper search endpoint base.
	SemanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

	ssFields  = "title,abstract,authors,year,externalIds,citationCount,openAccessPdf"
	ssTimeout = 30 * time.Second
)

// SemanticScholarClient searches the Semantic Scholar Graph API. An API key
// from SEMANTIC_SCHOLAR_API_KEY raises the server-side rate allowance but is
// not required.
type SemanticScholarClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// SemanticScholarOption configures a SemanticScholarClient.
type SemanticScholarOption func(*SemanticScholarClient)

// WithSSBaseURL sets a custom endpoint (for testing).
func WithSSBaseURL(url string) SemanticScholarOption {
	return func(c *SemanticScholarClient) {
		c.baseURL = url
	}
}

// WithSSHTTPClient sets a custom HTTP client.
func WithSSHTTPClient(hc *http.Client) SemanticScholarOption {
	return func(c *SemanticScholarClient) {
		c.httpClient = hc
	}
}

// WithSSAPIKey sets the API key explicitly.
func WithSSAPIKey(key string) SemanticScholarOption {
	return func(c *SemanticScholarClient) {
		c.apiKey = key
	}
}

// NewSemanticScholarClient creates a search client limited to maxCalls
// requests per period seconds.
func NewSemanticScholarClient(maxCalls, period int, opts ...SemanticScholarOption) *SemanticScholarClient {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if period <= 0 {
		period = 1
	}

	c := &SemanticScholarClient{
		httpClient: &http.Client{Timeout: ssTimeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(maxCalls)/float64(period)), 1),
		apiKey:     os.Getenv("SEMANTIC_SCHOLAR_API_KEY"),
		baseURL:    SemanticScholarBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SemanticScholarClient) Name() string { return "semantic_scholar" }

// ssSearchResponse is the paper search response layout.
type ssSearchResponse struct {
	Data []ssPaper `json:"data"`
}

type ssPaper struct {
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	Year        int    `json:"year"`
	Citations   int    `json:"citationCount"`
	ExternalIDs struct {
		ArXiv string `json:"ArXiv"`
		DOI   string `json:"DOI"`
	} `json:"externalIds"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	OpenAccessPDF struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

// Search queries Semantic Scholar by keyword relevance.
func (c *SemanticScholarClient) Search(ctx context.Context, keyword string, limit int) ([]paper.Paper, error) {
	if limit <= 0 {
		return nil, nil
	}
	if limit > 100 {
		limit = 100 // API page size cap
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("limit", fmt.Sprint(limit))
	params.Set("fields", ssFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying semantic scholar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar returned status %d", resp.StatusCode)
	}

	var search ssSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]paper.Paper, 0, len(search.Data))
	for _, item := range search.Data {
		if item.Title == "" {
			continue
		}
		papers = append(papers, ssToPaper(item))
	}
	return papers, nil
}

func ssToPaper(item ssPaper) paper.Paper {
	var authors []string
	for _, a := range item.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	p := paper.Paper{
		Title:     item.Title,
		Authors:   authors,
		Year:      item.Year,
		Source:    "semantic_scholar",
		Abstract:  item.Abstract,
		DOI:       item.ExternalIDs.DOI,
		ArXivID:   item.ExternalIDs.ArXiv,
		Citations: item.Citations,
		PDFURL:    item.OpenAccessPDF.URL,
	}
	switch {
	case p.ArXivID != "":
		p.PaperID = "arxiv:" + p.ArXivID
	case p.DOI != "":
		p.PaperID = "doi:" + p.DOI
	}
	return p
}
