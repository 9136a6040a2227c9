// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package fetches repository metrics from GitHub (https://api.github.com)
// to enrich package metadata with popularity and maintenance signals.
//
// # Usage
//
//	client := github.NewClient(base, "")
//	metrics, err := client.Fetch(ctx, "facebook", "react")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Stars:", metrics.Stars)
//	fmt.Println("Contributors:", metrics.Contributors)
//
// # Rate Limits
//
// Requests are unauthenticated and limited to 60 per hour per IP. Responses
// are cached, and the latest release and contributor lookups are best-effort:
// their failure leaves the corresponding fields empty.
//
// # RepoMetrics
//
// [integrations.RepoMetrics] includes:
//   - Stars, forks, watchers and open issues
//   - Last push and last release dates
//   - Top contributors, excluding bots
//   - License, language, topics and archived status
//
// [integrations.RepoMetrics]: github.com/matzehuels/pkgexplorer/pkg/integrations.RepoMetrics
package github
