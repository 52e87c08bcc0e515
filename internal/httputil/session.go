// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-harvest/pkg/types"
)

// DefaultBaseURL is the index site root used for cookie priming and as the
// Referer header.
const DefaultBaseURL = "https://scholar.google.com"

// DefaultUserAgent is a current desktop Chrome string; the site serves
// reduced pages to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"

const defaultCookieTimeout = 10 * time.Second

// Session sends browser-like GET requests. Every request carries a realistic
// header set and a freshly primed set of cookies, and requests are spaced by
// the configured delay. A Session is used from one goroutine at a time.
type Session struct {
	client        *http.Client
	limiter       *rate.Limiter
	baseURL       string
	userAgent     string
	maxRetries    int
	cookieTimeout time.Duration
	primeCookies  bool
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Session) {
		s.client = hc
	}
}

// WithBaseURL sets the site root (for testing).
func WithBaseURL(url string) Option {
	return func(s *Session) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithCookieTimeout sets the deadline for the cookie priming request.
func WithCookieTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.cookieTimeout = d
	}
}

// WithoutCookies disables cookie priming.
func WithoutCookies() Option {
	return func(s *Session) {
		s.primeCookies = false
	}
}

// NewSession creates a Session from the HTTP settings.
func NewSession(cfg types.HTTPConfig, opts ...Option) *Session {
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	s := &Session{
		client:        &http.Client{},
		limiter:       rate.NewLimiter(limit, 1),
		baseURL:       DefaultBaseURL,
		userAgent:     ua,
		maxRetries:    cfg.MaxRetries,
		cookieTimeout: defaultCookieTimeout,
		primeCookies:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the site root the session primes cookies against.
func (s *Session) BaseURL() string { return s.baseURL }

// Get issues a GET for url with the browser header set and fresh cookies.
// The timeout bounds the whole exchange including reading the body; the
// returned body releases the deadline when closed. Non-2xx responses are
// returned as-is for the caller to classify.
func (s *Session) Get(ctx context.Context, url string, timeout time.Duration) (*http.Response, error) {
	cookies := s.Cookies(ctx)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating request: %w", err)
	}
	s.setHeaders(req)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := DoWithRetry(reqCtx, s.client, req, s.maxRetries)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// Cookies fetches the site root with a bare user agent and returns whatever
// cookies it sets. Any failure yields no cookies.
func (s *Session) Cookies(ctx context.Context) []*http.Cookie {
	if !s.primeCookies {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cookieTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	return resp.Cookies()
}

func (s *Session) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Referer", s.baseURL+"/")
	req.Header.Set("Connection", "keep-alive")
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
