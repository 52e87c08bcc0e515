// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"regexp"
	"strings"
)

// ArtifactExt is the extension given to every saved artifact.
const ArtifactExt = ".pdf"

// DefaultName replaces a title that sanitizes to nothing.
const DefaultName = "paper"

// unsafeRun matches runs of characters that are not safe in filenames.
var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9\-._ ]+`)

// yearPattern finds the first four-digit run in a publication date.
var yearPattern = regexp.MustCompile(`\d{4}`)

// Sanitize replaces each run of characters outside [A-Za-z0-9-._ ] with a
// single underscore and trims surrounding spaces and underscores. An empty
// result becomes DefaultName. Sanitize(Sanitize(s)) == Sanitize(s) for every s.
func Sanitize(name string) string {
	name = strings.Trim(unsafeRun.ReplaceAllString(name, "_"), " _")
	if name == "" {
		return DefaultName
	}
	return name
}

// Year returns the first four-digit year in a publication date, or "".
func Year(publicationDate string) string {
	return yearPattern.FindString(publicationDate)
}

// Filename derives the artifact filename for a publication: the sanitized
// title, then "(year)" when a year is known, then ArtifactExt. Different
// publications with the same title and year share a filename.
func Filename(title, year string) string {
	base := Sanitize(title)
	if year != "" {
		base += "(" + year + ")"
	}
	return base + ArtifactExt
}
