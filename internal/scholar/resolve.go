// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// IsProfileLink reports whether reference is an http(s) URL rather than a
// free-text name.
func IsProfileLink(reference string) bool {
	u, err := url.Parse(strings.TrimSpace(reference))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// UserParam returns the "user" query parameter of link, or "" when link does
// not parse or carries none.
func UserParam(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("user"))
}

// Resolve maps an author reference to a Scholar user ID. A reference carrying
// a user parameter is read directly, with or without a scheme; any other
// link is an error; anything else is searched for by name and the first
// matching author row is taken. It never returns an empty ID without an error.
func (c *Client) Resolve(ctx context.Context, reference string) (types.AuthorIdentity, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return types.AuthorIdentity{}, &ResolutionError{Reference: reference, Message: "empty reference"}
	}

	if id := UserParam(ref); id != "" {
		return types.AuthorIdentity{Reference: ref, ID: id}, nil
	}
	if IsProfileLink(ref) {
		return types.AuthorIdentity{}, &ResolutionError{Reference: ref, Message: "profile link has no user parameter"}
	}

	return c.search(ctx, ref)
}

func (c *Client) search(ctx context.Context, name string) (types.AuthorIdentity, error) {
	params := url.Values{
		"as_sdt": {"0,5"},
		"q":      {name},
		"btnG":   {""},
		"hl":     {"en"},
	}
	searchURL := c.absolute("/scholar") + "?" + params.Encode()

	doc, status, err := c.getDocument(ctx, searchURL, c.timeouts.Identity)
	if err != nil {
		return types.AuthorIdentity{}, &ResolutionError{Reference: name, Message: "search request failed", Cause: err}
	}
	if doc == nil {
		return types.AuthorIdentity{}, &ResolutionError{Reference: name, Message: fmt.Sprintf("search returned HTTP %d", status)}
	}

	table := doc.Find(`div[role="main"] div.gs_r table`).First()
	if table.Length() == 0 {
		return types.AuthorIdentity{}, &ResolutionError{Reference: name, Message: "no author row in search results"}
	}
	href, ok := table.Find("a[href]").First().Attr("href")
	if !ok {
		return types.AuthorIdentity{}, &ResolutionError{Reference: name, Message: "author row has no link"}
	}

	id := UserParam(c.absolute(href))
	if id == "" {
		return types.AuthorIdentity{}, &ResolutionError{Reference: name, Message: "author link has no user parameter"}
	}
	return types.AuthorIdentity{Reference: name, ID: id}, nil
}
