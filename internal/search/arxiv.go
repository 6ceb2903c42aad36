package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/litgraph/litgraph/internal/paper"
)

const (
	// ArxivBaseURL is the arXiv Atom query API endpoint.
	ArxivBaseURL = "https://export.arxiv.org/api/query"

	// arxivRateLimit honors arXiv's request of no more than one query
	// every three seconds.
	arxivRateLimit = 1.0 / 3.0

	arxivTimeout = 30 * time.Second
)

// ArxivClient searches the arXiv Atom API.
type ArxivClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ArxivOption configures an ArxivClient.
type ArxivOption func(*ArxivClient)

// WithArxivBaseURL sets a custom endpoint (for testing).
func WithArxivBaseURL(url string) ArxivOption {
	return func(c *ArxivClient) {
		c.baseURL = url
	}
}

// WithArxivHTTPClient sets a custom HTTP client.
func WithArxivHTTPClient(hc *http.Client) ArxivOption {
	return func(c *ArxivClient) {
		c.httpClient = hc
	}
}

// WithArxivLimiter replaces the default rate limiter.
func WithArxivLimiter(l *rate.Limiter) ArxivOption {
	return func(c *ArxivClient) {
		c.limiter = l
	}
}

// NewArxivClient creates an arXiv search client.
func NewArxivClient(opts ...ArxivOption) *ArxivClient {
	c := &ArxivClient{
		httpClient: &http.Client{Timeout: arxivTimeout},
		limiter:    rate.NewLimiter(rate.Limit(arxivRateLimit), 1),
		baseURL:    ArxivBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ArxivClient) Name() string { return "arxiv" }

// Search queries arXiv by keyword, newest first.
func (c *ArxivClient) Search(ctx context.Context, keyword string, limit int) ([]paper.Paper, error) {
	if limit <= 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("search_query", fmt.Sprintf("all:%q", keyword))
	params.Set("max_results", fmt.Sprint(limit))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing atom feed: %w", err)
	}

	papers := make([]paper.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		p := entryToPaper(entry)
		if p.Title == "" {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// Atom feed structures for the arXiv API.

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Authors   []atomAuthor `xml:"author"`
	Published string       `xml:"published"`
	DOI       string       `xml:"doi"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

// arxivIDFromEntryID extracts the bare paper ID from an entry URL like
// http://arxiv.org/abs/2301.00001v2, dropping the version suffix.
func arxivIDFromEntryID(entryID string) string {
	idx := strings.LastIndex(entryID, "/abs/")
	if idx < 0 {
		return ""
	}
	id := entryID[idx+len("/abs/"):]
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		id = id[:vIdx]
	}
	return id
}

func entryToPaper(entry atomEntry) paper.Paper {
	id := arxivIDFromEntryID(entry.ID)

	var authors []string
	for _, a := range entry.Authors {
		authors = append(authors, a.Name)
	}

	var pdfURL string
	for _, link := range entry.Links {
		if link.Title == "pdf" {
			pdfURL = link.Href
			break
		}
	}

	var year int
	if published, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		year = published.Year()
	}

	p := paper.Paper{
		ArXivID:  id,
		Title:    strings.Join(strings.Fields(entry.Title), " "),
		Authors:  authors,
		Year:     year,
		Source:   "arxiv",
		Abstract: strings.TrimSpace(entry.Summary),
		DOI:      entry.DOI,
		PDFURL:   pdfURL,
	}
	if id != "" {
		p.PaperID = "arxiv:" + id
	}
	return p
}
