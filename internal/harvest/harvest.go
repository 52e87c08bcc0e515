// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest drives one or more authors through identity resolution,
// listing, detail extraction, artifact acquisition and reconciliation.
package harvest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/scholar-harvest/internal/acquire"
	"github.com/pdiddy/scholar-harvest/internal/ledger"
	"github.com/pdiddy/scholar-harvest/internal/scholar"
	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// Recorder receives every record and run summary for cumulative storage.
// *catalog.Store satisfies it.
type Recorder interface {
	Upsert(ctx context.Context, runID string, author types.AuthorIdentity, rec types.PaperRecord) error
	RecordRun(ctx context.Context, sum ledger.Summary) error
}

// Harvester runs harvests sequentially. It is not safe for concurrent use.
type Harvester struct {
	client     *scholar.Client
	downloader *acquire.Downloader
	recorder   Recorder
	outputDir  string
	maxPapers  int
	runID      string
	out        io.Writer
	now        func() time.Time
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithRecorder stores records and summaries in r as they are produced.
func WithRecorder(r Recorder) Option {
	return func(h *Harvester) { h.recorder = r }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(h *Harvester) { h.runID = id }
}

// New creates a Harvester writing author folders under cfg.OutputDir and
// progress lines to w.
func New(client *scholar.Client, downloader *acquire.Downloader, cfg types.HarvestConfig, w io.Writer, opts ...Option) *Harvester {
	h := &Harvester{
		client:     client,
		downloader: downloader,
		outputDir:  cfg.OutputDir,
		maxPapers:  cfg.MaxPapers,
		runID:      uuid.NewString(),
		out:        w,
		now:        time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// RunID returns the identifier stamped on every summary of this harvester.
func (h *Harvester) RunID() string { return h.runID }

// AuthorDir returns the folder holding an author's artifacts and tables.
func AuthorDir(outputDir, authorID string) string {
	return filepath.Join(outputDir, "author_"+authorID)
}

// Author harvests one author. Resolution and listing failures are returned
// before any file is written. Per-publication failures are recorded and
// never stop the loop. On cancellation the records gathered so far are
// still flushed and the context error is returned with the summary.
func (h *Harvester) Author(ctx context.Context, reference string) (ledger.Summary, error) {
	identity, err := h.client.Resolve(ctx, reference)
	if err != nil {
		return ledger.Summary{}, err
	}
	fmt.Fprintf(h.out, "Author ID: %s\n", identity.ID)

	stubs, err := h.client.Publications(ctx, identity.ID)
	if err != nil {
		return ledger.Summary{}, err
	}

	dir := AuthorDir(h.outputDir, identity.ID)
	if prev, err := ledger.ReadSummary(dir); err == nil {
		fmt.Fprintf(h.out, "Previous run %s: %d downloaded, %d skipped, %d failed\n",
			prev.FinishedAt.Format(time.RFC3339), prev.DownloadCount(), prev.Skipped, prev.Failed)
	}
	led, err := ledger.Open(dir)
	if err != nil {
		return ledger.Summary{}, err
	}
	fmt.Fprintf(h.out, "Found %d publications; %d existing papers in folder\n", len(stubs), led.Existing())

	sum := ledger.Summary{
		RunID:     h.runID,
		Author:    identity,
		StartedAt: h.now(),
		Listed:    len(stubs),
	}

	downloads := 0
	for i, stub := range stubs {
		if h.maxPapers > 0 && downloads >= h.maxPapers {
			sum.CapReached = true
			fmt.Fprintf(h.out, "Reached limit of %d downloads\n", h.maxPapers)
			break
		}
		if ctx.Err() != nil {
			break
		}

		fmt.Fprintf(h.out, "Processing (%d/%d): %s\n", i+1, len(stubs), stub.Title)
		rec, ok := h.publication(ctx, led, stub)
		if !ok {
			sum.MetadataUnavailable++
			continue
		}
		led.Append(rec)
		sum.Tally(rec.Status)
		if rec.Status.Counted() {
			downloads++
		}
		if h.recorder != nil {
			if err := h.recorder.Upsert(ctx, h.runID, identity, rec); err != nil {
				fmt.Fprintf(h.out, "  warning: catalog: %v\n", err)
			}
		}
	}

	if err := h.finish(ctx, led, &sum); err != nil {
		return sum, err
	}
	return sum, ctx.Err()
}

// publication fetches one publication's detail page and settles its
// disposition. It reports false when the detail page is unavailable.
func (h *Harvester) publication(ctx context.Context, led *ledger.Ledger, stub types.PublicationStub) (types.PaperRecord, bool) {
	page, err := h.client.Detail(ctx, stub.URL)
	if err != nil {
		fmt.Fprintf(h.out, "  warning: failed to extract metadata for %q: %v\n", stub.Title, err)
		return types.PaperRecord{}, false
	}

	name := acquire.Filename(stub.Title, acquire.Year(page.Metadata.PublicationDate))
	var outcome acquire.Outcome
	status := led.Classify(name, func() types.DownloadStatus {
		outcome = h.downloader.Acquire(ctx, stub.URL, page.Document, led.Dir(), name)
		return outcome.Status
	})

	switch status {
	case types.StatusAlreadyExists:
		fmt.Fprintf(h.out, "  skipped: %s (already exists)\n", name)
	case types.StatusDownloaded:
		fmt.Fprintf(h.out, "  downloaded: %s\n", name)
	case types.StatusBrowserFallback:
		fmt.Fprintf(h.out, "  browser fallback: %s\n", outcome.ArtifactURL)
	case types.StatusNoArtifact:
		fmt.Fprintf(h.out, "  no artifact: %s\n", stub.Title)
	default:
		fmt.Fprintf(h.out, "  failed: %s (%v)\n", name, outcome.Err)
	}

	return types.PaperRecord{
		Title:            stub.Title,
		SourceURL:        stub.URL,
		Metadata:         page.Metadata,
		ArtifactFilename: name,
		Status:           status,
	}, true
}

// finish persists the author's table and summary and prints the counts.
func (h *Harvester) finish(ctx context.Context, led *ledger.Ledger, sum *ledger.Summary) error {
	path, err := led.Flush()
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(h.out, "Saved metadata to: %s\n", path)
	}

	n, err := led.CountArtifacts()
	if err != nil {
		return err
	}
	sum.ArtifactsInFolder = n
	sum.FinishedAt = h.now()

	if err := led.WriteSummary(*sum); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if h.recorder != nil {
		// The run row is still recorded after an interrupt.
		if err := h.recorder.RecordRun(context.WithoutCancel(ctx), *sum); err != nil {
			fmt.Fprintf(h.out, "  warning: catalog: %v\n", err)
		}
	}

	fmt.Fprintf(h.out, "\nSummary for %s:\n", led.Dir())
	fmt.Fprintf(h.out, "- Processed: %d\n", sum.Processed)
	fmt.Fprintf(h.out, "- Downloaded: %d new papers", sum.Downloaded)
	if sum.BrowserFallback > 0 {
		fmt.Fprintf(h.out, " (+%d via browser)", sum.BrowserFallback)
	}
	fmt.Fprintln(h.out)
	fmt.Fprintf(h.out, "- Skipped: %d existing papers\n", sum.Skipped)
	fmt.Fprintf(h.out, "- Failed: %d, no artifact: %d, metadata unavailable: %d\n",
		sum.Failed, sum.NoArtifact, sum.MetadataUnavailable)
	fmt.Fprintf(h.out, "- Total papers in folder: %d\n", sum.ArtifactsInFolder)
	return nil
}

// Batch is the outcome of harvesting every row of an input table.
type Batch struct {
	Authors []ledger.Summary
	Skipped int
	Failed  int
}

// Source harvests each reference in order. Empty references are skipped.
// An author's failure is printed and does not stop later rows; only
// cancellation ends the batch early.
func (h *Harvester) Source(ctx context.Context, refs []string) (Batch, error) {
	var b Batch
	fmt.Fprintf(h.out, "Found %d authors to process\n", len(refs))

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return b, err
		}
		if ref == "" {
			fmt.Fprintf(h.out, "Skipping row %d: empty scholar link\n", i+1)
			b.Skipped++
			continue
		}

		fmt.Fprintf(h.out, "\nProcessing author %d/%d: %s\n", i+1, len(refs), ref)
		sum, err := h.Author(ctx, ref)
		// Only the batch context ends the loop; a request timeout inside
		// one author is that author's failure.
		if ctx.Err() != nil {
			if sum.RunID != "" {
				b.Authors = append(b.Authors, sum)
			}
			return b, ctx.Err()
		}
		if err != nil {
			fmt.Fprintf(h.out, "Error processing %s: %v\n", ref, err)
			b.Failed++
			continue
		}
		b.Authors = append(b.Authors, sum)
	}
	return b, nil
}
