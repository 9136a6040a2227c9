//go:build integration

package github

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
)

func TestFetch_Integration(t *testing.T) {
	client := NewClient(integrations.NewClient(httputil.NewClient(), -1), "")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	metrics, err := client.Fetch(ctx, "facebook", "react")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if metrics.Stars == 0 {
		t.Error("expected stars > 0")
	}
}
