// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar reads author profiles, publication listings and
// publication detail pages from Google Scholar.
package scholar

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-harvest/internal/httputil"
	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// Client fetches and parses Scholar pages through a browser-like session.
type Client struct {
	session  *httputil.Session
	base     *url.URL
	timeouts types.Timeouts
}

// NewClient creates a Client rooted at the session's base URL.
func NewClient(session *httputil.Session, timeouts types.Timeouts) (*Client, error) {
	base, err := url.Parse(session.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", session.BaseURL(), err)
	}
	return &Client{session: session, base: base, timeouts: timeouts}, nil
}

// BaseURL returns the site root links are resolved against.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Session returns the underlying HTTP session.
func (c *Client) Session() *httputil.Session {
	return c.session
}

// absolute resolves href against the site root.
func (c *Client) absolute(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return c.base.ResolveReference(ref).String()
}

// getDocument fetches a page and parses it. A non-2xx response yields a nil
// document with the status code and no error; network failures yield an error.
func (c *Client) getDocument(ctx context.Context, pageURL string, timeout time.Duration) (*goquery.Document, int, error) {
	resp, err := c.session.Get(ctx, pageURL, timeout)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, resp.StatusCode, nil
}
