// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetsExportURL(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{"edit link", "https://docs.google.com/spreadsheets/d/abc123/edit#gid=0", "https://docs.google.com/spreadsheets/d/abc123/export?format=csv", false},
		{"bare id", "https://docs.google.com/spreadsheets/d/abc123", "https://docs.google.com/spreadsheets/d/abc123/export?format=csv", false},
		{"user path", "https://docs.google.com/spreadsheets/u/1/d/XyZ_9/view?usp=sharing", "https://docs.google.com/spreadsheets/d/XyZ_9/export?format=csv", false},
		{"no id", "https://docs.google.com/spreadsheets/create", "", true},
		{"empty id", "https://docs.google.com/spreadsheets/d/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SheetsExportURL(tt.link)
			if tt.wantErr {
				var ierr *InputError
				assert.True(t, errors.As(err, &ierr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSheetsURL(t *testing.T) {
	assert.True(t, IsSheetsURL("https://docs.google.com/spreadsheets/d/x/edit"))
	assert.False(t, IsSheetsURL("authors.csv"))
	assert.False(t, IsSheetsURL("https://example.com/authors.csv"))
}

func TestReferences_ConfiguredColumn(t *testing.T) {
	tbl, err := Parse("t", strings.NewReader("Name,Google Scholar Page\nA,https://x?user=1\nB,  \nC, Jane Doe \n"))
	require.NoError(t, err)

	refs, err := tbl.References(DefaultColumn, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x?user=1", "", "Jane Doe"}, refs)
}

func TestReferences_FallbackColumn(t *testing.T) {
	tbl, err := Parse("t", strings.NewReader("\ufeffscholar_link,other\nhttps://x?user=1,z\n"))
	require.NoError(t, err)

	var out bytes.Buffer
	refs, err := tbl.References(DefaultColumn, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x?user=1"}, refs)
	assert.Contains(t, out.String(), "using \"scholar_link\"")
}

func TestReferences_MissingColumnNamesAvailable(t *testing.T) {
	tbl, err := Parse("t", strings.NewReader("Name,Email\nA,a@x\n"))
	require.NoError(t, err)

	_, err = tbl.References(DefaultColumn, io.Discard)
	var ierr *InputError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, []string{"Name", "Email"}, ierr.Columns)
	assert.Contains(t, err.Error(), "Name, Email")
}

func TestReferences_ShortRows(t *testing.T) {
	tbl, err := Parse("t", strings.NewReader("Name,scholar_link\nA\nB,ref\n"))
	require.NoError(t, err)

	refs, err := tbl.References("scholar_link", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "ref"}, refs)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("t", strings.NewReader(""))
	var ierr *InputError
	assert.True(t, errors.As(err, &ierr))
}

func TestLoad_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authors.csv")
	require.NoError(t, os.WriteFile(path, []byte("scholar_link\nref1\n"), 0o644))

	tbl, err := Load(context.Background(), nil, path, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ref1"}}, tbl.Rows)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), nil, filepath.Join(t.TempDir(), "nope.csv"), io.Discard)
	var ierr *InputError
	assert.True(t, errors.As(err, &ierr))
}

func TestLoad_SheetsExport(t *testing.T) {
	var gotPath, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, "Google Scholar Page\nhttps://x?user=9\n")
	}))
	defer ts.Close()

	orig := SheetsExportBase
	SheetsExportBase = ts.URL + "/spreadsheets/d/"
	defer func() { SheetsExportBase = orig }()

	tbl, err := Load(context.Background(), ts.Client(), "https://docs.google.com/spreadsheets/d/SHEET/edit", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/spreadsheets/d/SHEET/export", gotPath)
	assert.Equal(t, "format=csv", gotQuery)

	refs, err := tbl.References(DefaultColumn, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x?user=9"}, refs)
}

func TestLoad_RemoteNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := Load(context.Background(), ts.Client(), ts.URL+"/authors.csv", io.Discard)
	var ierr *InputError
	require.True(t, errors.As(err, &ierr))
	assert.Contains(t, err.Error(), "401")
}
