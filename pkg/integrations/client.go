package integrations

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
)

// DefaultTTL is the cache lifetime used when a Client is created with ttl 0.
const DefaultTTL = time.Hour

// Client provides shared HTTP functionality for all upstream API clients.
// It pairs an [httputil.Client] with a cache lifetime and refresh flag.
type Client struct {
	http    *httputil.Client
	ttl     time.Duration
	refresh bool
}

// NewClient creates a Client over hc. A ttl of 0 uses [DefaultTTL]; a
// negative ttl disables caching for this client.
func NewClient(hc *httputil.Client, ttl time.Duration) *Client {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Client{http: hc, ttl: max(ttl, 0)}
}

// WithTTL returns a copy of c that caches with ttl.
func (c *Client) WithTTL(ttl time.Duration) *Client {
	cp := *c
	cp.ttl = max(ttl, 0)
	return &cp
}

// WithRefresh returns a copy of c that bypasses cache reads when refresh is
// true. Fresh responses are still written.
func (c *Client) WithRefresh(refresh bool) *Client {
	cp := *c
	cp.refresh = refresh
	return &cp
}

// TTL returns the cache lifetime applied by [Client.Cached].
func (c *Client) TTL() time.Duration { return c.ttl }

// HTTP returns the underlying fetch client.
func (c *Client) HTTP() *httputil.Client { return c.http }

// Cached fetches url into v, caching the response under key.
func (c *Client) Cached(ctx context.Context, key, url string, v any, opts ...httputil.FetchOption) error {
	opts = append(opts, httputil.CacheAs(key, c.ttl), httputil.Refresh(c.refresh))
	return c.http.Fetch(ctx, url, v, opts...)
}

// Get fetches url into v without caching.
func (c *Client) Get(ctx context.Context, url string, v any, opts ...httputil.FetchOption) error {
	return c.http.Fetch(ctx, url, v, opts...)
}

// NotFound rewrites a 404 from the fetch client into a NOT_FOUND error that
// names the missing resource. Other errors are returned unchanged.
func NotFound(err error, format string, args ...any) error {
	if errors.Is(err, httputil.ErrNotFound) {
		return apperrors.Wrap(apperrors.ErrCodeNotFound, err, format, args...)
	}
	return err
}
