// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-harvest/internal/httputil"
	"github.com/pdiddy/scholar-harvest/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake"

func detailPage(links ...string) string {
	return `<html><body><div role="main"><div id="gsc_oci_title_wrapper">` +
		`<div class="gsc_oci_title_ggi">` + strings.Join(links, "") + `</div>` +
		`<div id="gsc_oci_title">A Paper</div></div></div></body></html>`
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func newTestSession(ts *httptest.Server) *httputil.Session {
	return httputil.NewSession(types.HTTPConfig{},
		httputil.WithBaseURL(ts.URL),
		httputil.WithHTTPClient(ts.Client()),
		httputil.WithoutCookies(),
	)
}

// recordingFallback remembers the URLs it was handed.
type recordingFallback struct {
	urls []string
	err  error
}

func (f *recordingFallback) Download(_ context.Context, url, _ string) error {
	f.urls = append(f.urls, url)
	return f.err
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Deep Learning", "Deep Learning"},
		{"punctuation run", "What? A: study!", "What_ A_ study"},
		{"keeps safe set", "a-b.c_d e", "a-b.c_d e"},
		{"trims", "  spaced  ", "spaced"},
		{"all invalid", "???///", DefaultName},
		{"empty", "", DefaultName},
		{"only spaces", "    ", DefaultName},
		{"unicode", "Über Straße", "ber Stra_e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"", " ", "___", "a__b", "x/y\\z", "Foo(2020)", "  ??  ", "tab\there",
		"日本語のタイトル", "mixed -._ ok", "_leading", "trailing_", "a _ b",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Foo(2020).pdf", Filename("Foo", "2020"))
	assert.Equal(t, "Foo.pdf", Filename("Foo", ""))
	assert.Equal(t, "paper(2020).pdf", Filename("???", "2020"))
	assert.Equal(t, "A_ B(1999).pdf", Filename("A: B", "1999"))
}

func TestYear(t *testing.T) {
	assert.Equal(t, "2019", Year("2019/3/14"))
	assert.Equal(t, "2021", Year("March 2021"))
	assert.Equal(t, "", Year("n.d."))
	assert.Equal(t, "", Year(""))
}

func TestSelectCandidate(t *testing.T) {
	tests := []struct {
		name   string
		cands  []Candidate
		want   string
		wantOK bool
	}{
		{"none", nil, "", false},
		{"single", []Candidate{{Text: "[HTML] site", Href: "/a"}}, "/a", true},
		{"prefers pdf text", []Candidate{{Text: "[HTML] site", Href: "/a"}, {Text: "Download PDF", Href: "/b"}}, "/b", true},
		{"first pdf wins", []Candidate{{Text: "[PDF] one", Href: "/a"}, {Text: "[pdf] two", Href: "/b"}}, "/a", true},
		{"falls back to last", []Candidate{{Text: "x", Href: "/a"}, {Text: "y", Href: "/b"}, {Text: "z", Href: "/c"}}, "/c", true},
		{"empty href", []Candidate{{Text: "[PDF]", Href: ""}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectCandidate(tt.cands)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Href)
		})
	}
}

func TestCandidates_DocumentOrder(t *testing.T) {
	doc := parse(t, detailPage(
		`<a href="/site">[HTML] from site</a>`,
		`<a href="/file.pdf"><span>[PDF]</span> from repo</a>`,
	))
	cands := Candidates(doc)
	require.Len(t, cands, 2)
	assert.Equal(t, "/site", cands[0].Href)
	assert.Equal(t, "[PDF] from repo", cands[1].Text)
}

func TestCandidates_OutsideWrapperIgnored(t *testing.T) {
	doc := parse(t, `<div role="main"><a href="/stray.pdf">PDF</a></div>`)
	assert.Empty(t, Candidates(doc))
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name, page, base, href, want string
	}{
		{"relative to page", "https://scholar.google.com/citations?view_op=x", "https://base", "/files/a.pdf", "https://scholar.google.com/files/a.pdf"},
		{"absolute href", "https://scholar.google.com/citations", "https://base", "https://arxiv.org/pdf/1", "https://arxiv.org/pdf/1"},
		{"non-absolute page uses base", "/citations?x", "https://base.example", "a.pdf", "https://base.example/a.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.page, tt.base, tt.href)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAcquire_DownloadsSelectedCandidate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/second.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	dir := t.TempDir()
	doc := parse(t, detailPage(`<a href="/first">[HTML] site</a>`, `<a href="/second.pdf">Download PDF</a>`))
	d := NewDownloader(newTestSession(ts), 5*time.Second, nil)

	out := d.Acquire(context.Background(), ts.URL+"/citations?view_op=x", doc, dir, "Foo(2020).pdf")
	require.NoError(t, out.Err)
	assert.Equal(t, types.StatusDownloaded, out.Status)
	assert.Equal(t, ts.URL+"/second.pdf", out.ArtifactURL)

	data, err := os.ReadFile(filepath.Join(dir, "Foo(2020).pdf"))
	require.NoError(t, err)
	assert.Equal(t, fakePDFContent, string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAcquire_NoCandidates(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	d := NewDownloader(newTestSession(ts), time.Second, nil)
	out := d.Acquire(context.Background(), ts.URL+"/p", parse(t, detailPage()), t.TempDir(), "x.pdf")

	assert.Equal(t, types.StatusNoArtifact, out.Status)
	var nerr *NoArtifactError
	assert.True(t, errors.As(out.Err, &nerr))
}

func TestAcquire_RefusedWithoutFallbackFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	dir := t.TempDir()
	d := NewDownloader(newTestSession(ts), time.Second, nil)
	out := d.Acquire(context.Background(), ts.URL+"/p", parse(t, detailPage(`<a href="/a.pdf">PDF</a>`)), dir, "x.pdf")

	assert.Equal(t, types.StatusFailed, out.Status)
	var derr *DownloadError
	assert.True(t, errors.As(out.Err, &derr))
	_, statErr := os.Stat(filepath.Join(dir, "x.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAcquire_RefusedUsesFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	fb := &recordingFallback{}
	d := NewDownloader(newTestSession(ts), time.Second, fb)
	out := d.Acquire(context.Background(), ts.URL+"/p", parse(t, detailPage(`<a href="/a.pdf">PDF</a>`)), t.TempDir(), "x.pdf")

	assert.Equal(t, types.StatusBrowserFallback, out.Status)
	assert.Equal(t, []string{ts.URL + "/a.pdf"}, fb.urls)
}

func TestAcquire_FallbackErrorFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	fb := &recordingFallback{err: errors.New("no chrome")}
	d := NewDownloader(newTestSession(ts), time.Second, fb)
	out := d.Acquire(context.Background(), ts.URL+"/p", parse(t, detailPage(`<a href="/a.pdf">PDF</a>`)), t.TempDir(), "x.pdf")

	assert.Equal(t, types.StatusFailed, out.Status)
	assert.ErrorContains(t, out.Err, "no chrome")
}

func TestAcquire_NetworkErrorSkipsFallback(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	session := newTestSession(ts)
	pageURL := ts.URL + "/p"
	ts.Close()

	fb := &recordingFallback{}
	d := NewDownloader(session, time.Second, fb)
	out := d.Acquire(context.Background(), pageURL, parse(t, detailPage(`<a href="/a.pdf">PDF</a>`)), t.TempDir(), "x.pdf")

	assert.Equal(t, types.StatusFailed, out.Status)
	assert.Empty(t, fb.urls)
}

func TestAcquire_WriteErrorFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	d := NewDownloader(newTestSession(ts), time.Second, nil)
	out := d.Acquire(context.Background(), ts.URL+"/p", parse(t, detailPage(`<a href="/a.pdf">PDF</a>`)), missing, "x.pdf")

	assert.Equal(t, types.StatusFailed, out.Status)
	var derr *DownloadError
	assert.True(t, errors.As(out.Err, &derr))
}
