// Package fakeupstream serves canned npm registry, downloads, bundlephobia,
// GitHub and npms.io responses from one httptest server.
package fakeupstream

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
)

// Package describes one fake package.
type Package struct {
	Downloads int
	Gzip      int64
	Stars     int
	Score     float64
	Deps      []string

	// GitLab hosts the repository on gitlab.com instead of github.com.
	GitLab bool
}

// Packages is the default data set. lodash has no bundle data and answers
// 500 on the bundle endpoint.
var Packages = map[string]Package{
	"react":        {Downloads: 20_000_000, Gzip: 2600, Stars: 220_000, Score: 0.9, Deps: []string{"loose-envify"}},
	"preact":       {Downloads: 2_000_000, Gzip: 4500, Stars: 36_000, Score: 0.85},
	"loose-envify": {Downloads: 25_000_000, Gzip: 600, Stars: 20, Score: 0.6, Deps: []string{"js-tokens"}},
	"js-tokens":    {Downloads: 30_000_000, Gzip: 700, Stars: 90, Score: 0.7},
	"lodash":       {Downloads: 40_000_000, Stars: 58_000, Score: 0.8},
	"gitlab-ui":    {Downloads: 50_000, Gzip: 30_000, Stars: 900, Score: 0.5, GitLab: true},
}

// Server is a running fake.
type Server struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits returns the number of requests served.
func (s *Server) Hits() int64 { return s.hits.Load() }

// New starts a fake closed at test cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		serve(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/-/v1/search":
		search(w, r.URL.Query().Get("text"))
	case path == "/api/size":
		name, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Query().Get("package"), "@"), "@")
		p, ok := Packages[name]
		if !ok || p.Gzip == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"name":%q,"version":"1.0.0","size":%d,"gzip":%d,"dependencyCount":%d}`, name, p.Gzip*3, p.Gzip, len(p.Deps))
	case path == "/v2/package/mget":
		names := make([]string, 0, len(Packages))
		for name := range Packages {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf(`%q:{"score":{"final":%v,"detail":{"quality":1,"popularity":1,"maintenance":1}}}`, name, Packages[name].Score)
		}
		fmt.Fprintf(w, "{%s}", strings.Join(parts, ","))
	case strings.HasPrefix(path, "/downloads/point/"):
		period, name, _ := strings.Cut(strings.TrimPrefix(path, "/downloads/point/"), "/")
		p, ok := Packages[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"package":%q,"downloads":%d,"start":"2024-01-01","end":"2024-01-07","period":%q}`, name, p.Downloads, period)
	case strings.HasPrefix(path, "/downloads/range/"):
		_, name, _ := strings.Cut(strings.TrimPrefix(path, "/downloads/range/"), "/")
		p, ok := Packages[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"package":%q,"start":"2024-01-01","end":"2024-01-02","downloads":[{"day":"2024-01-01","downloads":%d},{"day":"2024-01-02","downloads":%d}]}`,
			name, p.Downloads/7, p.Downloads/7)
	case strings.HasPrefix(path, "/projects/"):
		rest := strings.TrimPrefix(path, "/projects/")
		if strings.HasSuffix(rest, "/releases/permalink/latest") {
			fmt.Fprint(w, `{"released_at":"2024-06-01T00:00:00Z"}`)
			return
		}
		_, name, _ := strings.Cut(rest, "/")
		p, ok := Packages[name]
		if !ok || !p.GitLab {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"web_url":"https://gitlab.com/%s","star_count":%d,"forks_count":2,"default_branch":"main"}`, rest, p.Stars)
	case strings.HasPrefix(path, "/repos/"):
		parts := strings.Split(strings.TrimPrefix(path, "/repos/"), "/")
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		p, ok := Packages[parts[1]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch strings.Join(parts[2:], "/") {
		case "releases/latest":
			fmt.Fprint(w, `{"tag_name":"v1.0.0","published_at":"2024-06-01T00:00:00Z"}`)
			return
		case "contributors":
			fmt.Fprint(w, `[{"login":"dev","contributions":10,"type":"User"},{"login":"renovate[bot]","contributions":99,"type":"Bot"}]`)
			return
		case "":
		default:
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"full_name":"%s/%s","stargazers_count":%d,"forks_count":10,"default_branch":"main"}`, parts[0], parts[1], p.Stars)
	default:
		packument(w, r, strings.TrimPrefix(path, "/"))
	}
}

func search(w http.ResponseWriter, text string) {
	var objects []string
	names := make([]string, 0, len(Packages))
	for name := range Packages {
		if strings.Contains(name, text) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		objects = append(objects, fmt.Sprintf(
			`{"package":{"name":%q,"version":"1.0.0","description":"fake %s"},"score":{"final":%v},"searchScore":1}`,
			name, name, Packages[name].Score))
	}
	fmt.Fprintf(w, `{"total":%d,"objects":[%s]}`, len(objects), strings.Join(objects, ","))
}

func packument(w http.ResponseWriter, r *http.Request, name string) {
	p, ok := Packages[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	host := "github"
	if p.GitLab {
		host = "gitlab"
	}
	deps := make([]string, len(p.Deps))
	for i, d := range p.Deps {
		deps[i] = fmt.Sprintf(`%q:"^1.0.0"`, d)
	}
	fmt.Fprintf(w, `{"name":%q,"description":"fake %s","license":"MIT","dist-tags":{"latest":"1.0.0"},
		"repository":"%s:org/%s",
		"time":{"1.0.0":"2024-01-01T00:00:00Z"},
		"versions":{"1.0.0":{"name":%q,"version":"1.0.0","license":"MIT","dependencies":{%s}}}}`,
		name, name, host, name, name, strings.Join(deps, ","))
}
