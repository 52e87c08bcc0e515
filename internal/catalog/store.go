// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps the cumulative history of every harvested record in
// a SQLite database shared by all authors and runs.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scholar-harvest/internal/ledger"
	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// DefaultFile is the catalog file name inside the output directory.
const DefaultFile = "catalog.db"

// Store wraps the catalog database.
type Store struct {
	db *sql.DB
}

// Entry is one catalog row: the latest known state of a publication for an
// author.
type Entry struct {
	AuthorID         string    `json:"author_id"`
	Title            string    `json:"title"`
	SourceURL        string    `json:"source_url"`
	PublicationDate  string    `json:"publication_date,omitempty"`
	Journal          string    `json:"journal,omitempty"`
	TotalCitations   int       `json:"total_citations"`
	ArtifactFilename string    `json:"artifact_filename"`
	Status           string    `json:"status"`
	RunID            string    `json:"run_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Filter narrows a Query. Empty fields match everything.
type Filter struct {
	AuthorID string
	Status   types.DownloadStatus
}

// Open opens or creates the catalog at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT NOT NULL,
			author_id TEXT NOT NULL,
			reference TEXT,
			started_at TEXT,
			finished_at TEXT,
			listed INTEGER,
			processed INTEGER,
			downloaded INTEGER,
			browser_fallback INTEGER,
			skipped INTEGER,
			failed INTEGER,
			no_artifact INTEGER,
			metadata_unavailable INTEGER,
			PRIMARY KEY (run_id, author_id)
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			author_id TEXT NOT NULL,
			source_url TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			publication_date TEXT,
			journal TEXT,
			publisher TEXT,
			total_citations INTEGER,
			artifact_filename TEXT,
			status TEXT,
			run_id TEXT,
			updated_at TEXT,
			PRIMARY KEY (author_id, source_url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_status ON records(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Upsert stores rec as the latest state of its publication for author.
func (s *Store) Upsert(ctx context.Context, runID string, author types.AuthorIdentity, rec types.PaperRecord) error {
	md := rec.Metadata
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (author_id, source_url, title, authors, publication_date, journal,
			publisher, total_citations, artifact_filename, status, run_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(author_id, source_url) DO UPDATE SET
			title=excluded.title, authors=excluded.authors,
			publication_date=excluded.publication_date, journal=excluded.journal,
			publisher=excluded.publisher, total_citations=excluded.total_citations,
			artifact_filename=excluded.artifact_filename, status=excluded.status,
			run_id=excluded.run_id, updated_at=excluded.updated_at`,
		author.ID, rec.SourceURL, rec.Title, md.Authors, md.PublicationDate, md.Journal,
		md.Publisher, md.TotalCitations, rec.ArtifactFilename, string(rec.Status),
		runID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", rec.SourceURL, err)
	}
	return nil
}

// RecordRun stores the counts from one author's run.
func (s *Store) RecordRun(ctx context.Context, sum ledger.Summary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, author_id, reference, started_at, finished_at, listed,
			processed, downloaded, browser_fallback, skipped, failed, no_artifact, metadata_unavailable)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, author_id) DO UPDATE SET
			finished_at=excluded.finished_at, listed=excluded.listed,
			processed=excluded.processed, downloaded=excluded.downloaded,
			browser_fallback=excluded.browser_fallback, skipped=excluded.skipped,
			failed=excluded.failed, no_artifact=excluded.no_artifact,
			metadata_unavailable=excluded.metadata_unavailable`,
		sum.RunID, sum.Author.ID, sum.Author.Reference,
		formatTime(sum.StartedAt), formatTime(sum.FinishedAt), sum.Listed,
		sum.Processed, sum.Downloaded, sum.BrowserFallback, sum.Skipped,
		sum.Failed, sum.NoArtifact, sum.MetadataUnavailable,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", sum.RunID, err)
	}
	return nil
}

// Runs returns the number of runs recorded for authorID.
func (s *Store) Runs(ctx context.Context, authorID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs WHERE author_id = ?`, authorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}

// Query returns catalog rows matching f, ordered by author and title.
func (s *Store) Query(ctx context.Context, f Filter) ([]Entry, error) {
	var qb strings.Builder
	var args []any
	qb.WriteString(`SELECT author_id, title, source_url, publication_date, journal,
		total_citations, artifact_filename, status, run_id, updated_at FROM records`)

	var where []string
	if f.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if len(where) > 0 {
		qb.WriteString(" WHERE ")
		qb.WriteString(strings.Join(where, " AND "))
	}
	qb.WriteString(" ORDER BY author_id, title")

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var date, journal, updated sql.NullString
		if err := rows.Scan(&e.AuthorID, &e.Title, &e.SourceURL, &date, &journal,
			&e.TotalCitations, &e.ArtifactFilename, &e.Status, &e.RunID, &updated); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.PublicationDate = date.String
		e.Journal = journal.String
		if updated.Valid {
			e.UpdatedAt, _ = time.Parse(time.RFC3339, updated.String)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
