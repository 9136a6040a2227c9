// Package gitlab provides an HTTP client for the GitLab API.
//
// It complements the github package for npm packages whose repository lives
// on gitlab.com, mapping project metadata onto [integrations.RepoMetrics]:
//
//	client := gitlab.NewClient(base, "")
//	m, ok, err := client.FetchURL(ctx, pkg.Repository)
//
// Requests are unauthenticated, so only public projects resolve. The latest
// release lookup is best-effort. GitLab does not expose watchers or a
// contributor ranking without authentication, so those fields stay empty.
package gitlab
