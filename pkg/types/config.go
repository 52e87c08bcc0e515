// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings used by every stage that talks to
// the index site.
type HTTPConfig struct {
	// UserAgent is the browser User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" validate:"required"`

	// RequestDelay is the minimum spacing between consecutive requests.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" validate:"gte=0"`

	// MaxRetries is the number of 429 backoff retries. Zero disables retrying.
	MaxRetries int `json:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
}

// Timeouts holds the per-call deadlines for each kind of request.
type Timeouts struct {
	Identity time.Duration `json:"identity" yaml:"identity" validate:"gt=0"`
	Listing  time.Duration `json:"listing" yaml:"listing" validate:"gt=0"`
	Detail   time.Duration `json:"detail" yaml:"detail" validate:"gt=0"`
	Artifact time.Duration `json:"artifact" yaml:"artifact" validate:"gt=0"`
	Cookies  time.Duration `json:"cookies" yaml:"cookies" validate:"gt=0"`
}

// DefaultTimeouts mirrors the deadlines the index site tolerates well.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Identity: 20 * time.Second,
		Listing:  20 * time.Second,
		Detail:   25 * time.Second,
		Artifact: 60 * time.Second,
		Cookies:  10 * time.Second,
	}
}

// HarvestConfig holds settings for a harvest run.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	Timeouts Timeouts `json:"timeouts" yaml:"timeouts"`

	// OutputDir is the root folder holding one author_<id> folder per author.
	OutputDir string `json:"output_dir" yaml:"output_dir" validate:"required"`

	// MaxPapers caps successful downloads per author; zero or negative means unlimited.
	MaxPapers int `json:"max_papers" yaml:"max_papers" validate:"gte=-1"`

	// BrowserFallback enables the headless browser path for downloads the
	// plain HTTP client could not fetch.
	BrowserFallback bool `json:"browser_fallback" yaml:"browser_fallback"`

	// BrowserSettle is how long the browser is given to start a download.
	BrowserSettle time.Duration `json:"browser_settle" yaml:"browser_settle" validate:"gte=0"`

	// Column is the input table column holding author references.
	Column string `json:"column" yaml:"column" validate:"required"`

	// CatalogPath is the SQLite catalog location; empty disables the catalog.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
}

// Validate checks the field constraints declared in the struct tags.
func (c HarvestConfig) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}
