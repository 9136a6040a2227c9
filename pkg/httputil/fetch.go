package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/observability"
)

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 10 * time.Second

// maxBodySize bounds how much of a response body is read (32 MiB; full
// packuments of large packages run to several MiB).
const maxBodySize = 32 << 20

// ErrNotFound matches a [StatusError] for HTTP 404 via errors.Is.
var ErrNotFound = errors.New("resource not found")

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	StatusText string
	Method     string
	URL        string

	// RetryAfter is the delay requested by the server, if any.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed: %d %s", e.StatusCode, e.StatusText)
}

// Is makes errors.Is(err, ErrNotFound) true for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Code maps the status to an error code for [apperrors.GetCode].
func (e *StatusError) Code() apperrors.Code {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return apperrors.ErrCodeNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return apperrors.ErrCodeRateLimited
	case e.StatusCode == http.StatusGatewayTimeout:
		return apperrors.ErrCodeTimeout
	default:
		return apperrors.ErrCodeHTTPStatus
	}
}

// RetryAfterDelay returns the server-requested delay.
func (e *StatusError) RetryAfterDelay() time.Duration { return e.RetryAfter }

// Client fetches JSON documents with caching, retries and optional
// coalescing and rate limiting. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   *Cache
	headers map[string]string
	policy  Policy
	limiter *rate.Limiter
	group   *singleflight.Group
	logger  *log.Logger
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache enables response caching.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) { c.cache = cache }
}

// WithHeaders sets headers sent with every request.
// Per-call headers override these for the same key.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) { maps.Copy(c.headers, headers) }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.headers["User-Agent"] = ua
		}
	}
}

// WithPolicy replaces the default retry policy.
func WithPolicy(p Policy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// WithRateLimit limits outgoing requests to rps per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithCoalescing shares one in-flight request among concurrent fetches with
// the same cache key. Fetches without a cache key are never coalesced.
func WithCoalescing() ClientOption {
	return func(c *Client) { c.group = new(singleflight.Group) }
}

// WithLogger sets the logger for retry and cache diagnostics.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client. Without options it does not cache and uses
// [DefaultPolicy] with a [DefaultTimeout] HTTP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: map[string]string{},
		policy:  DefaultPolicy(),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache returns the client's cache, which may be nil.
func (c *Client) Cache() *Cache { return c.cache }

// request is the per-call state assembled from FetchOptions.
type request struct {
	method     string
	url        string
	headers    map[string]string
	body       any
	retries    int
	hasRetries bool
	retryDelay time.Duration
	cacheKey   string
	cacheTTL   time.Duration
	refresh    bool
}

func (r *request) cacheable() bool { return r.cacheKey != "" && r.cacheTTL > 0 }

// FetchOption configures a single fetch.
type FetchOption func(*request)

// Header sets a per-call header.
func Header(key, value string) FetchOption {
	return func(r *request) { r.headers[key] = value }
}

// Headers sets several per-call headers.
func Headers(headers map[string]string) FetchOption {
	return func(r *request) { maps.Copy(r.headers, headers) }
}

// Retries overrides the number of retries after the first attempt.
func Retries(n int) FetchOption {
	return func(r *request) { r.retries, r.hasRetries = max(n, 0), true }
}

// RetryDelay overrides the base backoff delay.
func RetryDelay(d time.Duration) FetchOption {
	return func(r *request) { r.retryDelay = d }
}

// CacheAs caches the response under key for ttl. Caching only happens when
// both are set.
func CacheAs(key string, ttl time.Duration) FetchOption {
	return func(r *request) { r.cacheKey, r.cacheTTL = key, ttl }
}

// Refresh skips the cache read while still writing the fresh response.
func Refresh(refresh bool) FetchOption {
	return func(r *request) { r.refresh = refresh }
}

// PostJSON sends body JSON-encoded with the POST method.
func PostJSON(body any) FetchOption {
	return func(r *request) { r.method, r.body = http.MethodPost, body }
}

// FetchJSON fetches url and decodes the JSON response into a T.
func FetchJSON[T any](ctx context.Context, c *Client, url string, opts ...FetchOption) (T, error) {
	var v T
	err := c.Fetch(ctx, url, &v, opts...)
	return v, err
}

// Fetch retrieves url and decodes the JSON response into v.
//
// A fresh cache entry is decoded without network I/O. Otherwise the request
// runs under the retry policy; a body that fails to decode is returned as a
// DECODE_ERROR without retrying. A successful body is written to the cache
// when [CacheAs] was given; cache failures never fail the fetch.
func (c *Client) Fetch(ctx context.Context, url string, v any, opts ...FetchOption) error {
	r := &request{method: http.MethodGet, url: url, headers: map[string]string{}}
	for _, opt := range opts {
		opt(r)
	}

	if r.cacheable() && !r.refresh {
		if c.cache.Get(ctx, r.cacheKey, r.cacheTTL, v) {
			c.logger.Debug("cache hit", "key", r.cacheKey)
			return nil
		}
	}

	body, err := c.load(ctx, r)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeDecode, err, "decode %s", url)
	}
	if r.cacheable() {
		c.cache.Write(ctx, r.cacheKey, body, r.cacheTTL)
	}
	return nil
}

// load fetches the raw body, sharing it with concurrent callers when
// coalescing is enabled.
func (c *Client) load(ctx context.Context, r *request) ([]byte, error) {
	if c.group == nil || r.cacheKey == "" {
		return c.fetchWithRetry(ctx, r)
	}
	// The shared request belongs to no single caller, so one caller giving up
	// must not fail the others.
	ch := c.group.DoChan(r.method+" "+r.cacheKey, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.sharedBudget(r))
		defer cancel()
		return c.fetchWithRetry(sctx, r)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("coalesced request", "key", r.cacheKey)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// sharedBudget bounds a coalesced fetch: every attempt may take the client
// timeout plus the longest honored Retry-After.
func (c *Client) sharedBudget(r *request) time.Duration {
	per := c.http.Timeout
	if per <= 0 {
		per = DefaultTimeout
	}
	retries := c.policy.Retries
	if r.hasRetries {
		retries = r.retries
	}
	return time.Duration(max(retries, 0)+1) * (per + maxRetryAfter)
}

func (c *Client) fetchWithRetry(ctx context.Context, r *request) ([]byte, error) {
	policy := c.policy
	if r.hasRetries {
		policy.Retries = r.retries
	}
	if r.retryDelay > 0 {
		policy.BaseDelay = r.retryDelay
	}
	host := hostOf(r.url)
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Debug("retrying request", "url", r.url, "attempt", attempt, "delay", delay, "err", err)
		observability.HTTP().OnRetry(ctx, host, attempt, delay, err)
	}

	var body []byte
	err := policy.Do(ctx, func(int) error {
		b, err := c.do(ctx, r)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, r *request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reqBody io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "encode request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, reqBody)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, r.method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, r.method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "%s %s", r.method, r.url))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, r.method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(r, resp); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "read %s", r.url))
	}
	return data, nil
}

func checkStatus(r *request, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err := &StatusError{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Method:     r.method,
		URL:        r.url,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Retryable(err)
	}
	return err
}

// statusText returns the reason phrase, e.g. "Not Found" from "404 Not Found".
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(t.Sub(now), 0)
	}
	return 0
}

func hostOf(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
