// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AuthorIdentity pairs the reference an author was given by (profile link or
// free-text name) with the Scholar user ID it resolved to.
type AuthorIdentity struct {
	// Reference is the profile link or name as supplied by the caller.
	Reference string `json:"reference" yaml:"reference"`

	// ID is the Scholar user identifier (the "user" query parameter).
	ID string `json:"id" yaml:"id"`
}

// PublicationStub is one row of an author's publication listing.
// Two stubs are the same publication when both fields match.
type PublicationStub struct {
	Title string `json:"title" yaml:"title"`

	// URL is the absolute address of the publication's detail page.
	URL string `json:"url" yaml:"url"`
}

// PublicationMetadata holds the bibliographic fields read from a
// publication's detail page. Every string field may be empty.
type PublicationMetadata struct {
	Authors         string `json:"authors" yaml:"authors"`
	PublicationDate string `json:"publication_date" yaml:"publication_date"`
	Journal         string `json:"journal" yaml:"journal"`
	Volume          string `json:"volume" yaml:"volume"`
	Issue           string `json:"issue" yaml:"issue"`
	Pages           string `json:"pages" yaml:"pages"`
	Publisher       string `json:"publisher" yaml:"publisher"`
	Description     string `json:"description" yaml:"description"`

	// TotalCitations is 0 when the count could not be parsed.
	TotalCitations int `json:"total_citations" yaml:"total_citations"`
}

// DownloadStatus is the per-publication disposition recorded in the
// metadata table.
type DownloadStatus string

const (
	StatusDownloaded      DownloadStatus = "downloaded"
	StatusAlreadyExists   DownloadStatus = "already_exists"
	StatusFailed          DownloadStatus = "failed"
	StatusNoArtifact      DownloadStatus = "no_artifact"
	StatusBrowserFallback DownloadStatus = "browser_fallback"
)

// Counted reports whether the status counts toward the per-author
// download cap.
func (s DownloadStatus) Counted() bool {
	return s == StatusDownloaded || s == StatusBrowserFallback
}

// PaperRecord is one row of an author's metadata table.
type PaperRecord struct {
	Title            string              `json:"title" yaml:"title"`
	SourceURL        string              `json:"source_url" yaml:"source_url"`
	Metadata         PublicationMetadata `json:"metadata" yaml:"metadata"`
	ArtifactFilename string              `json:"artifact_filename" yaml:"artifact_filename"`
	Status           DownloadStatus      `json:"download_status" yaml:"download_status"`
}
