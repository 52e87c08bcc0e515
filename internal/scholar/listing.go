// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// PageSize is the number of rows requested per listing page.
const PageSize = 100

// Publications returns every publication stub on an author's profile in
// listing order. Pages are requested at offsets 0, PageSize, 2*PageSize, ...
// until the site returns an empty page or repeats the tail already seen.
func (c *Client) Publications(ctx context.Context, authorID string) ([]types.PublicationStub, error) {
	var stubs []types.PublicationStub
	for offset := 0; ; offset += PageSize {
		page, err := c.listingPage(ctx, authorID, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return stubs, nil
		}
		// The site answers past-the-end offsets with its last rows again.
		if len(stubs) > 0 && stubs[len(stubs)-1] == page[len(page)-1] {
			return stubs, nil
		}
		stubs = append(stubs, page...)
	}
}

// ListingURL returns the listing page address for an author at offset.
func (c *Client) ListingURL(authorID string, offset int) string {
	params := url.Values{
		"user":     {authorID},
		"oi":       {"ao"},
		"cstart":   {strconv.Itoa(offset)},
		"pagesize": {strconv.Itoa(PageSize)},
		"hl":       {"en"},
	}
	return c.absolute("/citations") + "?" + params.Encode()
}

func (c *Client) listingPage(ctx context.Context, authorID string, offset int) ([]types.PublicationStub, error) {
	pageURL := c.ListingURL(authorID, offset)
	doc, status, err := c.getDocument(ctx, pageURL, c.timeouts.Listing)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Cause: err}
	}
	if doc == nil {
		return nil, &FetchError{URL: pageURL, StatusCode: status}
	}
	return c.parseListing(doc), nil
}

// parseListing reads the publication rows of one listing page.
func (c *Client) parseListing(doc *goquery.Document) []types.PublicationStub {
	var stubs []types.PublicationStub
	doc.Find("tr.gsc_a_tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.gsc_a_at").First()
		stub := types.PublicationStub{Title: strings.TrimSpace(link.Text())}
		if href, ok := link.Attr("href"); ok && href != "" {
			stub.URL = c.absolute(href)
		}
		stubs = append(stubs, stub)
	})
	return stubs
}
