// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// SummaryFile is the per-author run summary written next to the metadata table.
const SummaryFile = "harvest.yaml"

// Summary holds the counts from harvesting one author.
type Summary struct {
	RunID      string               `yaml:"run_id"`
	Author     types.AuthorIdentity `yaml:"author"`
	StartedAt  time.Time            `yaml:"started_at"`
	FinishedAt time.Time            `yaml:"finished_at"`

	// Listed is the number of publications on the profile.
	Listed int `yaml:"listed"`

	// Processed is the number of records written to the metadata table.
	Processed           int `yaml:"processed"`
	Downloaded          int `yaml:"downloaded"`
	BrowserFallback     int `yaml:"browser_fallback"`
	Skipped             int `yaml:"skipped"`
	Failed              int `yaml:"failed"`
	NoArtifact          int `yaml:"no_artifact"`
	MetadataUnavailable int `yaml:"metadata_unavailable"`

	// CapReached is set when the download cap stopped the run early.
	CapReached bool `yaml:"cap_reached,omitempty"`

	// ArtifactsInFolder counts the PDFs in the folder when the run ended.
	ArtifactsInFolder int `yaml:"artifacts_in_folder"`
}

// Tally records one disposition in the counts.
func (s *Summary) Tally(status types.DownloadStatus) {
	s.Processed++
	switch status {
	case types.StatusDownloaded:
		s.Downloaded++
	case types.StatusBrowserFallback:
		s.BrowserFallback++
	case types.StatusAlreadyExists:
		s.Skipped++
	case types.StatusFailed:
		s.Failed++
	case types.StatusNoArtifact:
		s.NoArtifact++
	}
}

// DownloadCount is the number of downloads that count toward the cap.
func (s Summary) DownloadCount() int {
	return s.Downloaded + s.BrowserFallback
}

// WriteSummary writes s to SummaryFile in the author folder.
func (l *Ledger) WriteSummary(s Summary) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	return os.WriteFile(filepath.Join(l.dir, SummaryFile), data, 0o644)
}

// ReadSummary loads a summary written by an earlier run.
func ReadSummary(dir string) (*Summary, error) {
	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	if err != nil {
		return nil, err
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SummaryFile, err)
	}
	return &s, nil
}
