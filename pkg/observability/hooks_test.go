package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "npm")
	c.OnCacheMiss(ctx, "bundle")
	c.OnCacheSet(ctx, "github", 1024)
	c.OnCacheError(ctx, "npm", "write", nil)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "registry.npmjs.org", "/react")
	h.OnResponse(ctx, "GET", "registry.npmjs.org", "/react", 200, time.Second)
	h.OnError(ctx, "GET", "registry.npmjs.org", "/react", nil)
	h.OnRetry(ctx, "registry.npmjs.org", 1, 300*time.Millisecond, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset() should restore NoopCacheHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testCacheHooks{}
	SetCacheHooks(custom)
	SetCacheHooks(nil)
	if Cache() != custom {
		t.Error("SetCacheHooks(nil) should keep the previous hooks")
	}

	SetHTTPHooks(nil)
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("SetHTTPHooks(nil) should keep the default hooks")
	}
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testCacheHooks{}
	SetCacheHooks(custom)

	ctx := context.Background()
	Cache().OnCacheHit(ctx, "npm")
	Cache().OnCacheHit(ctx, "npm")
	Cache().OnCacheMiss(ctx, "npm")

	if custom.hits != 2 || custom.misses != 1 {
		t.Errorf("hits=%d misses=%d, want 2 and 1", custom.hits, custom.misses)
	}
}

type testCacheHooks struct {
	NoopCacheHooks
	hits, misses int
}

func (h *testCacheHooks) OnCacheHit(context.Context, string)  { h.hits++ }
func (h *testCacheHooks) OnCacheMiss(context.Context, string) { h.misses++ }

type testHTTPHooks struct{ NoopHTTPHooks }
