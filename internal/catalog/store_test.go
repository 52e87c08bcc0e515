// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-harvest/internal/ledger"
	"github.com/pdiddy/scholar-harvest/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "out", DefaultFile))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(title, url string, status types.DownloadStatus) types.PaperRecord {
	return types.PaperRecord{
		Title:            title,
		SourceURL:        url,
		Metadata:         types.PublicationMetadata{PublicationDate: "2020", TotalCitations: 3},
		ArtifactFilename: title + "(2020).pdf",
		Status:           status,
	}
}

func TestUpsert_LatestStateWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	author := types.AuthorIdentity{ID: "A1"}

	require.NoError(t, s.Upsert(ctx, "run-1", author, record("Foo", "https://x/1", types.StatusDownloaded)))
	require.NoError(t, s.Upsert(ctx, "run-2", author, record("Foo", "https://x/1", types.StatusAlreadyExists)))

	got, err := s.Query(ctx, Filter{AuthorID: "A1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "already_exists", got[0].Status)
	assert.Equal(t, "run-2", got[0].RunID)
	assert.Equal(t, 3, got[0].TotalCitations)
	assert.False(t, got[0].UpdatedAt.IsZero())
}

func TestQuery_Filters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "r", types.AuthorIdentity{ID: "A1"}, record("B paper", "https://x/1", types.StatusDownloaded)))
	require.NoError(t, s.Upsert(ctx, "r", types.AuthorIdentity{ID: "A1"}, record("A paper", "https://x/2", types.StatusFailed)))
	require.NoError(t, s.Upsert(ctx, "r", types.AuthorIdentity{ID: "A2"}, record("C paper", "https://x/1", types.StatusDownloaded)))

	all, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A paper", all[0].Title)

	downloaded, err := s.Query(ctx, Filter{Status: types.StatusDownloaded})
	require.NoError(t, err)
	assert.Len(t, downloaded, 2)

	one, err := s.Query(ctx, Filter{AuthorID: "A1", Status: types.StatusFailed})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "https://x/2", one[0].SourceURL)

	none, err := s.Query(ctx, Filter{AuthorID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	sum := ledger.Summary{
		RunID:      "run-1",
		Author:     types.AuthorIdentity{Reference: "Jane Doe", ID: "A1"},
		StartedAt:  time.Now(),
		Downloaded: 2,
	}
	require.NoError(t, s.RecordRun(ctx, sum))
	sum.FinishedAt = time.Now()
	sum.Downloaded = 3
	require.NoError(t, s.RecordRun(ctx, sum))
	require.NoError(t, s.RecordRun(ctx, ledger.Summary{RunID: "run-2", Author: sum.Author}))

	n, err := s.Runs(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpen_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(context.Background(), "r", types.AuthorIdentity{ID: "A1"}, record("Foo", "https://x/1", types.StatusDownloaded)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Query(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
