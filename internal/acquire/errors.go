// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import "fmt"

// NoArtifactError means the detail page links no downloadable artifact.
// The publication keeps its metadata.
type NoArtifactError struct {
	PageURL string
}

func (e *NoArtifactError) Error() string {
	return fmt.Sprintf("no artifact link on %s", e.PageURL)
}

// DownloadError means an artifact was located but could not be fetched or
// saved. It is recorded as a failed disposition.
type DownloadError struct {
	URL     string
	Message string
	Cause   error
}

func (e *DownloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("download %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("download %s: %s", e.URL, e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}
