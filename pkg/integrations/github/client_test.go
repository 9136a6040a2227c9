package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	hc := httputil.NewClient(httputil.WithHTTPClient(srv.Client()), httputil.WithPolicy(httputil.Policy{}))
	return NewClient(integrations.NewClient(hc, time.Hour), srv.URL)
}

func TestClient_Fetch(t *testing.T) {
	var accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/repos/owner/repo":
			accept = r.Header.Get("Accept")
			w.Write([]byte(`{"html_url":"https://github.com/Owner/repo","stargazers_count":100,"forks_count":7,"size":500,"license":{"spdx_id":"MIT"},"pushed_at":"2024-01-02T03:04:05Z","topics":["ui"]}`))
		case "/repos/owner/repo/releases/latest":
			w.WriteHeader(http.StatusNotFound)
		case "/repos/owner/repo/contributors":
			json.NewEncoder(w).Encode([]contributorResponse{
				{Login: "user1", Contributions: 10, Type: "User"},
				{Login: "dependabot[bot]", Contributions: 99, Type: "Bot"},
				{Login: "renovate[bot]", Contributions: 50, Type: "User"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server)

	metrics, err := c.Fetch(context.Background(), "owner", "repo")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if metrics.Stars != 100 || metrics.Forks != 7 {
		t.Errorf("stars/forks = %d/%d", metrics.Stars, metrics.Forks)
	}
	if metrics.SizeKB != 500 {
		t.Errorf("expected 500 KB, got %d", metrics.SizeKB)
	}
	if metrics.License != "MIT" {
		t.Errorf("license = %q", metrics.License)
	}
	if metrics.RepoURL != "https://github.com/Owner/repo" {
		t.Errorf("repo url = %q", metrics.RepoURL)
	}
	if metrics.LastCommitAt == nil || metrics.LastCommitAt.Year() != 2024 {
		t.Errorf("last commit = %v", metrics.LastCommitAt)
	}
	if metrics.LastReleaseAt != nil {
		t.Errorf("last release = %v, want nil when no release exists", metrics.LastReleaseAt)
	}
	if len(metrics.Contributors) != 1 || metrics.Contributors[0].Login != "user1" {
		t.Errorf("contributors = %+v", metrics.Contributors)
	}
	if accept != "application/vnd.github+json" {
		t.Errorf("Accept = %q", accept)
	}
}

func TestClient_FetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := testClient(t, server).Fetch(context.Background(), "nobody", "nothing")
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestClient_FetchInvalid(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	for _, tc := range [][2]string{{"", "repo"}, {"owner", ""}, {"..", "x"}} {
		_, err := testClient(t, server).Fetch(context.Background(), tc[0], tc[1])
		if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("Fetch(%q, %q) err = %v, want INVALID_INPUT", tc[0], tc[1], err)
		}
	}
}

func TestClient_FetchURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/lodash/lodash" {
			w.Write([]byte(`{"stargazers_count":1}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()
	c := testClient(t, server)

	m, ok, err := c.FetchURL(context.Background(), "git+https://github.com/lodash/lodash.git")
	if err != nil || !ok || m.Stars != 1 {
		t.Errorf("FetchURL() = %+v, %v, %v", m, ok, err)
	}

	_, ok, err = c.FetchURL(context.Background(), "https://gitlab.com/a/b")
	if ok || err != nil {
		t.Errorf("non-github FetchURL() = %v, %v; want false, nil", ok, err)
	}
}

func TestExtractURL(t *testing.T) {
	tests := []struct {
		urls      []string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{[]string{"https://github.com/facebook/react"}, "facebook", "react", true},
		{[]string{"git@github.com:facebook/react.git"}, "facebook", "react", true},
		{[]string{"", "https://github.com/expressjs/express#readme"}, "expressjs", "express", true},
		{[]string{"https://example.com"}, "", "", false},
	}

	for _, tt := range tests {
		owner, repo, ok := ExtractURL(tt.urls...)
		if owner != tt.wantOwner || repo != tt.wantRepo || ok != tt.wantOK {
			t.Errorf("ExtractURL(%v) = %q, %q, %v", tt.urls, owner, repo, ok)
		}
	}
}
