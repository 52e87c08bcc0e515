// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire locates the artifact linked from a publication's detail
// page and saves it into the author's folder.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-harvest/internal/httputil"
	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// Fallback is a secondary download path handed the artifact URL when the
// HTTP client is refused. Implementations may return before the file is
// complete.
type Fallback interface {
	Download(ctx context.Context, url, dir string) error
}

// Outcome is the result of one acquisition attempt.
type Outcome struct {
	Status types.DownloadStatus

	// ArtifactURL is the resolved link that was tried, if any.
	ArtifactURL string

	// Path is the saved file; empty unless Status is StatusDownloaded.
	Path string

	// Err explains StatusNoArtifact and StatusFailed outcomes.
	Err error
}

// Downloader fetches artifacts through a browser-like session.
type Downloader struct {
	session  *httputil.Session
	timeout  time.Duration
	fallback Fallback
}

// NewDownloader creates a Downloader. A nil fallback disables the
// secondary path.
func NewDownloader(session *httputil.Session, timeout time.Duration, fallback Fallback) *Downloader {
	return &Downloader{session: session, timeout: timeout, fallback: fallback}
}

// Acquire picks the artifact link on the detail page at pageURL, downloads
// it and saves it as dir/filename. Failures are reported in the Outcome and
// never abort the caller.
func (d *Downloader) Acquire(ctx context.Context, pageURL string, doc *goquery.Document, dir, filename string) Outcome {
	cand, ok := SelectCandidate(Candidates(doc))
	if !ok {
		return Outcome{Status: types.StatusNoArtifact, Err: &NoArtifactError{PageURL: pageURL}}
	}

	artifactURL, err := ResolveURL(pageURL, d.session.BaseURL(), cand.Href)
	if err != nil {
		return Outcome{Status: types.StatusFailed, Err: &DownloadError{URL: cand.Href, Message: "invalid link", Cause: err}}
	}

	destPath := filepath.Join(dir, filename)
	err = d.download(ctx, artifactURL, destPath)
	if err == nil {
		return Outcome{Status: types.StatusDownloaded, ArtifactURL: artifactURL, Path: destPath}
	}

	var refused *refusedError
	if d.fallback != nil && errors.As(err, &refused) {
		if ferr := d.fallback.Download(ctx, artifactURL, dir); ferr != nil {
			return Outcome{Status: types.StatusFailed, ArtifactURL: artifactURL,
				Err: &DownloadError{URL: artifactURL, Message: "browser fallback failed", Cause: ferr}}
		}
		return Outcome{Status: types.StatusBrowserFallback, ArtifactURL: artifactURL}
	}
	return Outcome{Status: types.StatusFailed, ArtifactURL: artifactURL, Err: err}
}

// refusedError marks a non-200 artifact response, the only case the
// fallback path is tried for.
type refusedError struct {
	statusCode int
}

func (e *refusedError) Error() string {
	return fmt.Sprintf("HTTP %d", e.statusCode)
}

// download streams url into destPath through a temporary file in the same
// directory, renaming it into place only after a complete write.
func (d *Downloader) download(ctx context.Context, url, destPath string) error {
	resp, err := d.session.Get(ctx, url, d.timeout)
	if err != nil {
		return &DownloadError{URL: url, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &DownloadError{URL: url, Message: "refused", Cause: &refusedError{statusCode: resp.StatusCode}}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return &DownloadError{URL: url, Message: "creating temp file", Cause: err}
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return &DownloadError{URL: url, Message: "writing download", Cause: copyErr}
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return &DownloadError{URL: url, Message: "closing temp file", Cause: closeErr}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return &DownloadError{URL: url, Message: "renaming temp file", Cause: err}
	}
	return nil
}
