// Package fetch is the HTTP GET collaborator used by extractors and the
// asset pipeline.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/readitlater/internal/apperr"
)

const (
	// DefaultTimeout bounds every request; the transport has none by default.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodyBytes caps response bodies (pages and media alike).
	DefaultMaxBodyBytes = 50 << 20
	// DesktopUserAgent is sent to sources that block non-browser clients.
	DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	maxRedirects = 5
)

// Fetcher performs HTTP GET requests.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, opts ...Option) (*Response, error)
}

// Response is a fully read HTTP response.
type Response struct {
	URL         *url.URL
	StatusCode  int
	ContentType string
	Body        []byte
}

// MediaType returns the response media type without parameters.
func (r *Response) MediaType() string {
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return ""
	}
	return mt
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Code)
}

// Unwrap lets callers match apperr.ErrFetch.
func (e *StatusError) Unwrap() error { return apperr.ErrFetch }

type request struct {
	headers http.Header
}

// Option customises a single request.
type Option func(*request)

// WithHeader sets a request header.
func WithHeader(key, value string) Option {
	return func(r *request) { r.headers.Set(key, value) }
}

// WithDesktopUserAgent spoofs a desktop browser.
func WithDesktopUserAgent() Option {
	return WithHeader("User-Agent", DesktopUserAgent)
}

// Client implements Fetcher over net/http.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the default User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithHTTPClient replaces the underlying client (tests use httptest clients).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient creates a Client with a 30s timeout and a redirect cap.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent: "readitlater/1.0",
		maxBody:   DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get downloads rawURL. Network errors, non-2xx statuses and oversized
// bodies are returned as errors matching apperr.ErrFetch.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", apperr.ErrFetch, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme: %s", apperr.ErrFetch, parsed.Scheme)
	}

	r := &request{headers: http.Header{}}
	r.headers.Set("User-Agent", c.userAgent)
	for _, opt := range opts {
		opt(r)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrFetch, err)
	}
	req.Header = r.headers

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", apperr.ErrFetch, err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", apperr.ErrFetch, c.maxBody)
	}

	return &Response{
		URL:         resp.Request.URL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// GetJSON fetches rawURL and decodes the body into v.
func GetJSON(ctx context.Context, f Fetcher, rawURL string, v any, opts ...Option) error {
	opts = append([]Option{WithHeader("Accept", "application/json")}, opts...)
	resp, err := f.Get(ctx, rawURL, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", apperr.ErrParse, rawURL, err)
	}
	return nil
}

// GetDocument fetches rawURL and parses it as HTML. The final URL (after
// redirects) is returned alongside the document.
func GetDocument(ctx context.Context, f Fetcher, rawURL string, opts ...Option) (*goquery.Document, *url.URL, error) {
	resp, err := f.Get(ctx, rawURL, opts...)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse html %s: %v", apperr.ErrParse, rawURL, err)
	}
	doc.Url = resp.URL
	return doc, resp.URL, nil
}
