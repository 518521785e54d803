// Package rest talks to a ledger-rest style HTTP service:
// GET <base>/<resource>?query=<ledger query> answering with JSON.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ledgerbilling/internal/core"
	"ledgerbilling/internal/ledger"
	applog "ledgerbilling/internal/log"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 5
	maxBodyBytes        = 32 << 20
)

var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrMissingLocation  = errors.New("redirect without location")
)

// Ensure interface conformance
var _ ledger.Reader = (*Client)(nil)

// Options tune the client. Zero values select the defaults.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	// RequestsPerSecond paces calls to the service; 0 disables pacing.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *applog.Logger
}

type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	maxRedirects int
	limiter      *rate.Limiter
	logger       *applog.Logger
}

type registerResponse struct {
	Postings []core.Posting `json:"postings"`
}

// NewClient creates a client for the service rooted at baseURL,
// e.g. http://127.0.0.1:9292/rest.
func NewClient(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ledger url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid ledger url scheme %q: must be http or https", u.Scheme)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout)
	} else {
		copied := *httpClient
		httpClient = &copied
	}
	// Redirects are followed by Client.get so the hop count stays bounded.
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:      u,
		httpClient:   httpClient,
		maxRedirects: opts.MaxRedirects,
		limiter:      limiter,
		logger:       opts.Logger.WithComponent(applog.ComponentLedger),
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Balance implements ledger.BalanceReader
func (c *Client) Balance(ctx context.Context, query string) (core.BalanceReport, error) {
	var report core.BalanceReport
	if err := c.get(ctx, ledger.ResourceBalance, query, &report); err != nil {
		return core.BalanceReport{}, err
	}
	return report, nil
}

// Register implements ledger.RegisterReader
func (c *Client) Register(ctx context.Context, query string) ([]core.Posting, error) {
	var resp registerResponse
	if err := c.get(ctx, ledger.ResourceRegister, query, &resp); err != nil {
		return nil, err
	}
	if resp.Postings == nil {
		resp.Postings = []core.Posting{}
	}
	return resp.Postings, nil
}

func (c *Client) resourceURL(resource, query string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + resource
	u.RawQuery = url.Values{"query": []string{query}}.Encode()
	return u.String()
}

// get fetches one resource and decodes its JSON body into out. Redirects are
// followed in a loop capped at maxRedirects.
func (c *Client) get(ctx context.Context, resource, query string, out any) error {
	fail := func(status int, err error) error {
		c.logger.ErrorContext(ctx, "Ledger query failed",
			applog.FieldResource, resource,
			applog.FieldQuery, query,
			applog.FieldStatusCode, status,
			applog.FieldError, err)
		return &ledger.QueryError{Resource: resource, Query: query, Status: status, Err: err}
	}

	start := time.Now()
	target := c.resourceURL(resource, query)

	for hops := 0; ; hops++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fail(0, err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fail(0, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		c.logger.DebugContext(ctx, "Ledger request", applog.FieldURL, target, applog.FieldRedirects, hops)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fail(0, fmt.Errorf("execute request: %w", err))
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			drain(resp.Body)
			if location == "" {
				return fail(resp.StatusCode, ErrMissingLocation)
			}
			if hops >= c.maxRedirects {
				return fail(resp.StatusCode, fmt.Errorf("%w: more than %d", ErrTooManyRedirects, c.maxRedirects))
			}
			next, err := resp.Request.URL.Parse(location)
			if err != nil {
				return fail(resp.StatusCode, fmt.Errorf("parse redirect location: %w", err))
			}
			target = next.String()
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			return fail(resp.StatusCode, fmt.Errorf("read response body: %w", err))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fail(resp.StatusCode, fmt.Errorf("unexpected response: %s", snippet(body)))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
		}

		c.logger.DebugContext(ctx, "Ledger response",
			applog.FieldResource, resource,
			applog.FieldStatusCode, resp.StatusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
		return nil
	}
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}
