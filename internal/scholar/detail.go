// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// citedByPattern matches the "Total citations" value, e.g. "Cited by 2515".
var citedByPattern = regexp.MustCompile(`Cited by (\d+)`)

// DetailPage is a fetched publication detail page and the metadata read
// from it.
type DetailPage struct {
	// URL is the address the page was requested from.
	URL      string
	Document *goquery.Document
	Metadata types.PublicationMetadata
}

// Detail fetches a publication's detail page and extracts its metadata.
// Any failure to retrieve the page is a *MetadataUnavailableError.
func (c *Client) Detail(ctx context.Context, detailURL string) (*DetailPage, error) {
	doc, status, err := c.getDocument(ctx, detailURL, c.timeouts.Detail)
	if err != nil {
		return nil, &MetadataUnavailableError{URL: detailURL, Cause: err}
	}
	if doc == nil {
		return nil, &MetadataUnavailableError{URL: detailURL, StatusCode: status}
	}
	return &DetailPage{
		URL:      detailURL,
		Document: doc,
		Metadata: ExtractMetadata(doc),
	}, nil
}

// ExtractMetadata reads the label/value rows of the detail page's metadata
// table. Labels are matched exactly; unknown labels are ignored. A page
// without the table yields zero-valued metadata.
func ExtractMetadata(doc *goquery.Document) types.PublicationMetadata {
	var md types.PublicationMetadata
	doc.Find("#gsc_oci_table .gs_scl").Each(func(_ int, row *goquery.Selection) {
		field := row.Find(".gsc_oci_field").First()
		value := row.Find(".gsc_oci_value").First()
		if field.Length() == 0 || value.Length() == 0 {
			return
		}

		text := strings.TrimSpace(value.Text())
		switch strings.TrimSpace(field.Text()) {
		case "Authors":
			md.Authors = text
		case "Publication date":
			md.PublicationDate = text
		case "Journal":
			md.Journal = text
		case "Volume":
			md.Volume = text
		case "Issue":
			md.Issue = text
		case "Pages":
			md.Pages = text
		case "Publisher":
			md.Publisher = text
		case "Description":
			md.Description = strings.ReplaceAll(text, "\u00a0", " ")
		case "Total citations":
			md.TotalCitations = citationCount(value)
		}
	})
	return md
}

// citationCount reads "Cited by N" from the value cell's first child
// element, falling back to the cell text. Unparsable counts are 0.
func citationCount(value *goquery.Selection) int {
	text := value.Text()
	if child := value.Children().First(); child.Length() > 0 {
		text = child.Text()
	}
	m := citedByPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
