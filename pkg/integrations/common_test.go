package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

func TestNormalizeRepoURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"https://github.com/facebook/react", "https://github.com/facebook/react"},
		{"git+https://github.com/facebook/react.git", "https://github.com/facebook/react"},
		{"git@github.com:facebook/react.git", "https://github.com/facebook/react"},
		{"git://github.com/facebook/react.git", "https://github.com/facebook/react"},
		{"git+ssh://git@github.com/facebook/react.git", "https://github.com/facebook/react"},
		{"github:facebook/react", "https://github.com/facebook/react"},
		{"gitlab:gitlab-org/gitlab-ui", "https://gitlab.com/gitlab-org/gitlab-ui"},
		{"git+ssh://git@gitlab.com/gitlab-org/gitlab-ui.git", "https://gitlab.com/gitlab-org/gitlab-ui"},
		{"  https://github.com/facebook/react/  ", "https://github.com/facebook/react"},
	}

	for _, tt := range tests {
		if got := NormalizeRepoURL(tt.in); got != tt.want {
			t.Errorf("NormalizeRepoURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractRepoURL(t *testing.T) {
	re := regexp.MustCompile(`https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

	tests := []struct {
		name       string
		candidates []string
		owner      string
		repo       string
		ok         bool
	}{
		{"first match", []string{"git+https://github.com/lodash/lodash.git"}, "lodash", "lodash", true},
		{"skip sponsors", []string{"https://github.com/sponsors/someone", "https://github.com/a/b"}, "a", "b", true},
		{"skip non-github", []string{"https://gitlab.com/a/b", "https://github.com/c/d#readme"}, "c", "d", true},
		{"none", []string{"https://example.com"}, "", "", false},
		{"empty", nil, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, ok := ExtractRepoURL(re, tt.candidates...)
			if owner != tt.owner || repo != tt.repo || ok != tt.ok {
				t.Errorf("ExtractRepoURL() = %q, %q, %v; want %q, %q, %v", owner, repo, ok, tt.owner, tt.repo, tt.ok)
			}
		})
	}
}

func TestKeyAndEscape(t *testing.T) {
	if got := Key("npm", "pkg", "react"); got != "npm:pkg:react" {
		t.Errorf("Key() = %q", got)
	}
	if got := EscapePkgName("@babel/core"); got != "@babel%2Fcore" {
		t.Errorf("EscapePkgName() = %q", got)
	}
	if got := NormalizePkgName("  React "); got != "react" {
		t.Errorf("NormalizePkgName() = %q", got)
	}
}

func TestClientCachedAndRefresh(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	s, _ := store.NewFileStore(t.TempDir())
	hc := httputil.NewClient(httputil.WithHTTPClient(srv.Client()), httputil.WithCache(httputil.NewCache(s, nil)))
	c := NewClient(hc, time.Hour)
	ctx := context.Background()

	var v map[string]int
	for range 2 {
		if err := c.Cached(ctx, "test:n", srv.URL, &v); err != nil {
			t.Fatalf("Cached() error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}

	if err := c.WithRefresh(true).Cached(ctx, "test:n", srv.URL, &v); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("requests after refresh = %d, want 2", calls.Load())
	}

	if err := c.WithTTL(-1).Cached(ctx, "test:n", srv.URL, &v); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("requests without ttl = %d, want 3", calls.Load())
	}
}

func TestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(httputil.NewClient(httputil.WithHTTPClient(srv.Client())), 0)
	if c.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", c.TTL(), DefaultTTL)
	}

	var v any
	err := NotFound(c.Get(context.Background(), srv.URL, &v), "npm package %s", "nope")
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if apperrors.UserMessage(err) != "npm package nope" {
		t.Errorf("UserMessage() = %q", apperrors.UserMessage(err))
	}
}
