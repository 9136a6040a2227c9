package npms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

func newServer(t *testing.T, calls *atomic.Int32, body *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/v2/package/mget" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{
			"react": {"analyzedAt": "2024-01-01T00:00:00.000Z", "score": {"final": 0.9, "detail": {"quality": 0.8, "popularity": 0.95, "maintenance": 0.99}}},
			"vue": {"score": {"final": 0.85, "detail": {"quality": 0.9, "popularity": 0.8, "maintenance": 0.9}}}
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	s, _ := store.NewFileStore(t.TempDir())
	hc := httputil.NewClient(httputil.WithHTTPClient(srv.Client()), httputil.WithCache(httputil.NewCache(s, nil)))
	return NewClient(integrations.NewClient(hc, time.Hour), srv.URL)
}

func TestScores(t *testing.T) {
	var calls atomic.Int32
	var body []string
	srv := newServer(t, &calls, &body)
	c := newTestClient(t, srv)
	ctx := context.Background()

	scores, err := c.Scores(ctx, []string{"vue", "React", "vue"})
	if err != nil {
		t.Fatalf("Scores() error: %v", err)
	}
	if len(body) != 2 || body[0] != "react" || body[1] != "vue" {
		t.Errorf("request body = %v, want [react vue]", body)
	}
	react := scores["react"]
	if react == nil || react.Popularity != 0.95 || react.AnalyzedAt == nil {
		t.Errorf("react score = %+v", react)
	}

	// Same set in another order is served from the cache.
	if _, err := c.Scores(ctx, []string{"react", "vue"}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}
}

func TestScore(t *testing.T) {
	var calls atomic.Int32
	var body []string
	srv := newServer(t, &calls, &body)
	c := newTestClient(t, srv)

	s, err := c.Score(context.Background(), "vue")
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if s.Final != 0.85 {
		t.Errorf("final = %v", s.Final)
	}

	_, err = c.Score(context.Background(), "left-pad")
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestScoresValidation(t *testing.T) {
	var calls atomic.Int32
	var body []string
	srv := newServer(t, &calls, &body)
	c := newTestClient(t, srv)

	if got, err := c.Scores(context.Background(), nil); err != nil || len(got) != 0 {
		t.Errorf("Scores(nil) = %v, %v", got, err)
	}
	if _, err := c.Scores(context.Background(), []string{"ok", "../bad"}); !apperrors.Is(err, apperrors.ErrCodeInvalidPackage) {
		t.Errorf("err = %v, want INVALID_PACKAGE", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests = %d, want 0", calls.Load())
	}
}
