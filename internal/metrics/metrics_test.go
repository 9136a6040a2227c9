package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/pkgexplorer/pkg/observability"
)

func TestCacheHooks(t *testing.T) {
	ctx := context.Background()
	h := CacheHooks{}

	hits := testutil.ToFloat64(CacheHits.WithLabelValues("npm"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("npm"))
	bytes := testutil.ToFloat64(CacheWriteBytes.WithLabelValues("npm"))
	errs := testutil.ToFloat64(CacheErrors.WithLabelValues("npm", "set"))

	h.OnCacheHit(ctx, "npm")
	h.OnCacheHit(ctx, "npm")
	h.OnCacheMiss(ctx, "npm")
	h.OnCacheSet(ctx, "npm", 128)
	h.OnCacheError(ctx, "npm", "set", errors.New("quota"))

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("npm")) - hits; got != 2 {
		t.Errorf("hits delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("npm")) - misses; got != 1 {
		t.Errorf("misses delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheWriteBytes.WithLabelValues("npm")) - bytes; got != 128 {
		t.Errorf("bytes delta = %v, want 128", got)
	}
	if got := testutil.ToFloat64(CacheErrors.WithLabelValues("npm", "set")) - errs; got != 1 {
		t.Errorf("errors delta = %v, want 1", got)
	}
}

func TestHTTPHooks(t *testing.T) {
	ctx := context.Background()
	h := HTTPHooks{}
	const host = "registry.test"

	ok := testutil.ToFloat64(UpstreamRequests.WithLabelValues(host, "200"))
	failed := testutil.ToFloat64(UpstreamRequests.WithLabelValues(host, "error"))
	canceled := testutil.ToFloat64(UpstreamRequests.WithLabelValues(host, "canceled"))
	retries := testutil.ToFloat64(UpstreamRetries.WithLabelValues(host))

	h.OnRequest(ctx, "GET", host, "/react")
	h.OnResponse(ctx, "GET", host, "/react", 200, 20*time.Millisecond)
	h.OnError(ctx, "GET", host, "/react", errors.New("connection refused"))
	h.OnError(ctx, "GET", host, "/react", context.Canceled)
	h.OnRetry(ctx, host, 1, 300*time.Millisecond, errors.New("503"))

	checks := []struct {
		name string
		got  float64
	}{
		{"200", testutil.ToFloat64(UpstreamRequests.WithLabelValues(host, "200")) - ok},
		{"error", testutil.ToFloat64(UpstreamRequests.WithLabelValues(host, "error")) - failed},
		{"canceled", testutil.ToFloat64(UpstreamRequests.WithLabelValues(host, "canceled")) - canceled},
		{"retries", testutil.ToFloat64(UpstreamRetries.WithLabelValues(host)) - retries},
	}
	for _, c := range checks {
		if c.got != 1 {
			t.Errorf("%s delta = %v, want 1", c.name, c.got)
		}
	}
}

func TestRegister(t *testing.T) {
	t.Cleanup(observability.Reset)
	Register()
	if _, ok := observability.Cache().(CacheHooks); !ok {
		t.Errorf("cache hooks = %T, want CacheHooks", observability.Cache())
	}
	if _, ok := observability.HTTP().(HTTPHooks); !ok {
		t.Errorf("http hooks = %T, want HTTPHooks", observability.HTTP())
	}
}

func TestObserveAPI(t *testing.T) {
	before := testutil.ToFloat64(APIRequests.WithLabelValues("/api/v1/package", "404"))
	ObserveAPI("/api/v1/package", 404, time.Millisecond)
	if got := testutil.ToFloat64(APIRequests.WithLabelValues("/api/v1/package", "404")) - before; got != 1 {
		t.Errorf("api requests delta = %v, want 1", got)
	}
}
