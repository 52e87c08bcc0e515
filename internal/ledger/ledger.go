// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger reconciles an author's publications against the files
// already in the author's folder and persists the per-author metadata table.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// MetadataFile is the per-author metadata table.
const MetadataFile = "papers_metadata.csv"

const artifactGlob = "*.pdf"

// Columns is the header row of the metadata table.
var Columns = []string{
	"title", "authors", "publication_date", "journal", "volume", "issue",
	"pages", "publisher", "description", "total_citations", "source_url",
	"artifact_filename", "download_status",
}

// Ledger tracks one author's folder for the duration of a run: the
// artifact names present when the run started, the names saved since, and
// the records produced in processing order.
type Ledger struct {
	dir      string
	existing map[string]bool
	saved    map[string]bool
	records  []types.PaperRecord
}

// Open creates dir if needed and records the artifacts already in it.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	names, err := listArtifacts(dir)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		dir:      dir,
		existing: make(map[string]bool, len(names)),
		saved:    make(map[string]bool),
	}
	for _, n := range names {
		l.existing[n] = true
	}
	return l, nil
}

// Dir returns the author folder.
func (l *Ledger) Dir() string { return l.dir }

// Existing returns the number of artifacts present when the run started.
func (l *Ledger) Existing() int { return len(l.existing) }

// Has reports whether name was present at the start of the run or has been
// saved during it.
func (l *Ledger) Has(name string) bool {
	return l.existing[name] || l.saved[name]
}

// Classify decides a publication's disposition. A name the ledger already
// has is StatusAlreadyExists and attempt is not called; otherwise attempt
// runs and its status is returned, with successful downloads remembered so
// a later publication deriving the same name is not fetched again.
func (l *Ledger) Classify(name string, attempt func() types.DownloadStatus) types.DownloadStatus {
	if l.Has(name) {
		return types.StatusAlreadyExists
	}
	status := attempt()
	if status == types.StatusDownloaded {
		l.saved[name] = true
	}
	return status
}

// Append adds a finished record to the table.
func (l *Ledger) Append(rec types.PaperRecord) {
	l.records = append(l.records, rec)
}

// Records returns the table rows in processing order.
func (l *Ledger) Records() []types.PaperRecord {
	out := make([]types.PaperRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Flush writes the table to MetadataFile in the author folder, replacing
// whatever an earlier run left there. Nothing is written for an empty table.
func (l *Ledger) Flush() (string, error) {
	if len(l.records) == 0 {
		return "", nil
	}
	path := filepath.Join(l.dir, MetadataFile)
	tmp, err := os.CreateTemp(l.dir, ".metadata-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(Columns)
	for _, rec := range l.records {
		if writeErr != nil {
			break
		}
		writeErr = w.Write(row(rec))
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr == nil {
			writeErr = closeErr
		}
		return "", fmt.Errorf("writing %s: %w", MetadataFile, writeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming %s: %w", MetadataFile, err)
	}
	return path, nil
}

// CountArtifacts returns the number of artifacts currently in the folder.
func (l *Ledger) CountArtifacts() (int, error) {
	names, err := listArtifacts(l.dir)
	return len(names), err
}

func row(rec types.PaperRecord) []string {
	md := rec.Metadata
	return []string{
		rec.Title, md.Authors, md.PublicationDate, md.Journal, md.Volume,
		md.Issue, md.Pages, md.Publisher, md.Description,
		strconv.Itoa(md.TotalCitations), rec.SourceURL, rec.ArtifactFilename,
		string(rec.Status),
	}
}

func listArtifacts(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, artifactGlob))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names, nil
}
