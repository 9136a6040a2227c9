package httputil_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

func ExampleCache() {
	ctx := context.Background()
	dir, _ := os.MkdirTemp("", "pkgexplorer-example")
	defer os.RemoveAll(dir)
	s, _ := store.NewFileStore(dir)
	defer s.Close()

	cache := httputil.NewCache(s, nil)
	cache.Write(ctx, "npm:pkg:left-pad", json.RawMessage(`{"name":"left-pad"}`), time.Hour)

	entry, ok := cache.Read(ctx, "npm:pkg:left-pad", time.Hour)
	fmt.Println("Found:", ok)
	fmt.Println("Value:", string(entry.Value))

	_, ok = cache.Read(ctx, "npm:pkg:right-pad", time.Hour)
	fmt.Println("Missing found:", ok)
	// Output:
	// Found: true
	// Value: {"name":"left-pad"}
	// Missing found: false
}

func ExampleFetchJSON() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"react","dist-tags":{"latest":"18.2.0"}}`)
	}))
	defer srv.Close()

	type packument struct {
		Name     string            `json:"name"`
		DistTags map[string]string `json:"dist-tags"`
	}

	client := httputil.NewClient(httputil.WithHTTPClient(srv.Client()))
	pkg, err := httputil.FetchJSON[packument](context.Background(), client, srv.URL+"/react")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(pkg.Name, pkg.DistTags["latest"])
	// Output:
	// react 18.2.0
}

func ExamplePolicy_Backoff() {
	p := httputil.Policy{BaseDelay: 300 * time.Millisecond}
	for attempt := range 3 {
		fmt.Println(p.Backoff(attempt))
	}
	// Output:
	// 300ms
	// 600ms
	// 1.2s
}
