// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source loads the input table of author references from a local
// CSV file or a Google Sheets share link.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultColumn is the column holding profile references unless overridden.
const DefaultColumn = "Google Scholar Page"

// FallbackColumn is tried when the configured column is absent.
const FallbackColumn = "scholar_link"

// SheetsExportBase is the export endpoint prefix. Tests may override it.
var SheetsExportBase = "https://docs.google.com/spreadsheets/d/"

const fetchTimeout = 30 * time.Second

// InputError reports an input table that cannot be used. It is raised before
// any author is processed.
type InputError struct {
	Source  string
	Message string
	Columns []string
	Cause   error
}

func (e *InputError) Error() string {
	msg := e.Message
	if len(e.Columns) > 0 {
		msg += "; available columns: " + strings.Join(e.Columns, ", ")
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Source != "" {
		return fmt.Sprintf("input %s: %s", e.Source, msg)
	}
	return "input: " + msg
}

func (e *InputError) Unwrap() error { return e.Cause }

// Table is a parsed input table. Rows exclude the header.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// IsSheetsURL reports whether src looks like a Google Sheets link.
func IsSheetsURL(src string) bool {
	return strings.HasPrefix(src, "http") && strings.Contains(src, "docs.google.com/spreadsheets")
}

// SheetsExportURL converts a Sheets share link into its CSV export address.
func SheetsExportURL(link string) (string, error) {
	_, rest, ok := strings.Cut(link, "/d/")
	if !ok {
		return "", &InputError{Source: link, Message: "sheets link has no document id; use the shareable link"}
	}
	id, _, _ := strings.Cut(rest, "/")
	id, _, _ = strings.Cut(id, "?")
	if id == "" {
		return "", &InputError{Source: link, Message: "sheets link has an empty document id"}
	}
	return SheetsExportBase + id + "/export?format=csv", nil
}

// Load reads the table at src: a Sheets share link, any other http(s) URL,
// or a local file path. A nil client uses http.DefaultClient.
func Load(ctx context.Context, client *http.Client, src string, w io.Writer) (*Table, error) {
	if client == nil {
		client = http.DefaultClient
	}
	switch {
	case IsSheetsURL(src):
		exportURL, err := SheetsExportURL(src)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "Loading data from Google Sheets: %s\n", exportURL)
		return fetch(ctx, client, src, exportURL)
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		fmt.Fprintf(w, "Loading data from %s\n", src)
		return fetch(ctx, client, src, src)
	default:
		fmt.Fprintf(w, "Loading data from CSV file: %s\n", src)
		f, err := os.Open(src)
		if err != nil {
			return nil, &InputError{Source: src, Message: "cannot open file", Cause: err}
		}
		defer f.Close()
		return Parse(src, f)
	}
}

func fetch(ctx context.Context, client *http.Client, src, url string) (*Table, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &InputError{Source: src, Message: "invalid address", Cause: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &InputError{Source: src, Message: "download failed", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &InputError{Source: src, Message: fmt.Sprintf("download returned HTTP %d", resp.StatusCode)}
	}
	return Parse(src, resp.Body)
}

// Parse reads CSV from r. The first record is the header.
func Parse(src string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &InputError{Source: src, Message: "malformed CSV", Cause: err}
	}
	if len(records) == 0 {
		return nil, &InputError{Source: src, Message: "table is empty"}
	}
	header := records[0]
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.TrimSpace(h)
	}
	return &Table{Source: src, Header: header, Rows: records[1:]}, nil
}

// References returns the values of column, one per row in order, falling
// back to FallbackColumn when column is absent. Values are trimmed; empty
// cells are returned as empty strings so row numbers stay aligned.
func (t *Table) References(column string, w io.Writer) ([]string, error) {
	idx := t.columnIndex(column)
	if idx < 0 {
		idx = t.columnIndex(FallbackColumn)
		if idx < 0 {
			return nil, &InputError{
				Source:  t.Source,
				Message: fmt.Sprintf("column %q not found", column),
				Columns: t.Header,
			}
		}
		fmt.Fprintf(w, "Column %q not found, using %q instead\n", column, FallbackColumn)
	}

	refs := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			refs[i] = strings.TrimSpace(row[idx])
		}
	}
	return refs, nil
}

func (t *Table) columnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}
