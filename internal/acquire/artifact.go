// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// candidateSelector finds the artifact links beside a publication's title.
const candidateSelector = `div[role="main"] #gsc_oci_title_wrapper .gsc_oci_title_ggi a`

// Candidate is one artifact link on a detail page.
type Candidate struct {
	Text string
	Href string
}

// Candidates returns the artifact links of a detail page in document order.
func Candidates(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find(candidateSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		out = append(out, Candidate{
			Text: strings.TrimSpace(a.Text()),
			Href: strings.TrimSpace(href),
		})
	})
	return out
}

// SelectCandidate picks the link to download. A single candidate is used as
// is. Among several, the first whose text mentions "pdf" (any case) wins,
// otherwise the last one. It reports false when there is nothing usable.
func SelectCandidate(cands []Candidate) (Candidate, bool) {
	var chosen Candidate
	switch len(cands) {
	case 0:
		return Candidate{}, false
	case 1:
		chosen = cands[0]
	default:
		chosen = cands[len(cands)-1]
		for _, c := range cands {
			if strings.Contains(strings.ToLower(c.Text), "pdf") {
				chosen = c
				break
			}
		}
	}
	return chosen, chosen.Href != ""
}

// ResolveURL resolves href against the detail page address, or against
// baseURL when the page address is not absolute http(s).
func ResolveURL(pageURL, baseURL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	root := baseURL
	if strings.HasPrefix(pageURL, "http") {
		root = pageURL
	}
	base, err := url.Parse(root)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
