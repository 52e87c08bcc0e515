// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import "fmt"

// ResolutionError means an author reference could not be mapped to a
// Scholar user ID. It is fatal for that author.
type ResolutionError struct {
	Reference string
	Message   string
	Cause     error
}

func (e *ResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resolving author %q: %s: %v", e.Reference, e.Message, e.Cause)
	}
	return fmt.Sprintf("resolving author %q: %s", e.Reference, e.Message)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// FetchError is a network failure or non-2xx response on a listing page.
// It is fatal for that author.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// MetadataUnavailableError means a publication's detail page could not be
// retrieved. The publication is skipped.
type MetadataUnavailableError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *MetadataUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("detail page %s unavailable: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("detail page %s unavailable: HTTP %d", e.URL, e.StatusCode)
}

func (e *MetadataUnavailableError) Unwrap() error {
	return e.Cause
}
