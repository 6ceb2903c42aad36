package index

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/litgraph/litgraph/internal/paper"
)

// Cache is an ephemeral SQLite mirror of the index file, rebuilt wholesale
// for full-text queries. The JSON index remains the source of truth.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the SQLite cache at the given path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createCacheSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createCacheSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			dedup_key TEXT PRIMARY KEY,
			paper_id TEXT,
			title TEXT NOT NULL,
			abstract TEXT,
			authors_json TEXT,
			year INTEGER,
			source TEXT,
			doi TEXT,
			arxiv_id TEXT,
			citations INTEGER,
			pdf_url TEXT,
			relevant INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi) WHERE doi IS NOT NULL AND doi != '';

		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			dedup_key,
			title,
			abstract,
			authors_text
		);

		CREATE TABLE IF NOT EXISTS cache_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the cache and repopulates it from the index file,
// recording the index content hash for staleness checks.
// Returns the number of records loaded.
func (c *Cache) Rebuild(indexPath string) (int, error) {
	papers, err := Load(indexPath)
	if err != nil {
		return 0, err
	}

	hash, err := indexContentHash(indexPath)
	if err != nil {
		return 0, err
	}

	if _, err := c.db.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}
	if _, err := c.db.Exec("DELETE FROM papers_fts"); err != nil {
		return 0, fmt.Errorf("clearing papers_fts table: %w", err)
	}

	stmt, err := c.db.Prepare(`
		INSERT INTO papers (
			dedup_key, paper_id, title, abstract, authors_json,
			year, source, doi, arxiv_id, citations, pdf_url, relevant
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing papers insert: %w", err)
	}
	defer stmt.Close()

	ftsStmt, err := c.db.Prepare(`
		INSERT INTO papers_fts (dedup_key, title, abstract, authors_text)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, p := range papers {
		authorsJSON, err := json.Marshal(p.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %s: %w", p.DedupKey, err)
		}

		relevant := 0
		if p.Relevant {
			relevant = 1
		}

		if _, err := stmt.Exec(
			p.DedupKey, p.PaperID, p.Title, p.Abstract, string(authorsJSON),
			p.Year, p.Source, p.DOI, p.ArXivID, p.Citations, p.PDFURL, relevant,
		); err != nil {
			return 0, fmt.Errorf("inserting %s: %w", p.DedupKey, err)
		}

		authorsText := ""
		for i, a := range p.Authors {
			if i > 0 {
				authorsText += ", "
			}
			authorsText += a
		}
		if _, err := ftsStmt.Exec(p.DedupKey, p.Title, p.Abstract, authorsText); err != nil {
			return 0, fmt.Errorf("inserting fts row for %s: %w", p.DedupKey, err)
		}
	}

	if err := c.setMeta("index_hash", hash); err != nil {
		return 0, err
	}

	return len(papers), nil
}

// NeedsSync reports whether the index file has changed since the last
// Rebuild.
func (c *Cache) NeedsSync(indexPath string) (bool, error) {
	current, err := indexContentHash(indexPath)
	if err != nil {
		return true, err
	}

	stored, err := c.getMeta("index_hash")
	if err != nil {
		return true, err
	}
	return current != stored, nil
}

// Search runs an FTS5 match over titles, abstracts, and authors.
func (c *Cache) Search(query string, limit int) ([]paper.Paper, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := c.db.Query(`
		SELECT p.dedup_key, p.paper_id, p.title, p.abstract, p.authors_json,
		       p.year, p.source, p.doi, p.arxiv_id, p.citations, p.pdf_url, p.relevant
		FROM papers p
		JOIN papers_fts fts ON p.dedup_key = fts.dedup_key
		WHERE papers_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// Count returns the number of records in the cache.
func (c *Cache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

func scanPapers(rows *sql.Rows) ([]paper.Paper, error) {
	var papers []paper.Paper
	for rows.Next() {
		var p paper.Paper
		var authorsJSON string
		var relevant int

		if err := rows.Scan(
			&p.DedupKey, &p.PaperID, &p.Title, &p.Abstract, &authorsJSON,
			&p.Year, &p.Source, &p.DOI, &p.ArXivID, &p.Citations, &p.PDFURL, &relevant,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if authorsJSON != "" {
			if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
				return nil, fmt.Errorf("parsing authors for %s: %w", p.DedupKey, err)
			}
		}
		p.Relevant = relevant == 1

		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func (c *Cache) setMeta(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO cache_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting meta %s: %w", key, err)
	}
	return nil
}

func (c *Cache) getMeta(key string) (string, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM cache_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting meta %s: %w", key, err)
	}
	return value, nil
}

// indexContentHash hashes the index file. An absent file hashes as empty.
func indexContentHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			data = nil
		} else {
			return "", fmt.Errorf("reading index: %w", err)
		}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
