package integrations

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// RepoMetrics holds repository-level data fetched from GitHub or GitLab.
// Used to enrich package metadata with maintenance and popularity indicators.
type RepoMetrics struct {
	RepoURL       string        `json:"repo_url"`                   // Canonical repository URL (https://...)
	Owner         string        `json:"owner"`                      // Repository owner username
	Name          string        `json:"name"`                       // Repository name
	Description   string        `json:"description,omitempty"`      // Repository description
	Stars         int           `json:"stars"`                      // Stargazer count
	Forks         int           `json:"forks"`                      // Fork count
	OpenIssues    int           `json:"open_issues"`                // Open issues and pull requests
	Watchers      int           `json:"watchers"`                   // Subscriber count
	SizeKB        int           `json:"size_kb,omitempty"`          // Repository size in kilobytes
	DefaultBranch string        `json:"default_branch,omitempty"`   // Default branch name
	CreatedAt     *time.Time    `json:"created_at,omitempty"`       // Repository creation date
	LastCommitAt  *time.Time    `json:"last_commit_at,omitempty"`   // Date of most recent push
	LastReleaseAt *time.Time    `json:"last_release_at,omitempty"`  // Date of most recent release
	License       string        `json:"license,omitempty"`          // SPDX license identifier
	Contributors  []Contributor `json:"top_contributors,omitempty"` // Top contributors by commit count
	Language      string        `json:"language,omitempty"`         // Primary repository language
	Topics        []string      `json:"topics,omitempty"`           // Repository topic tags
	Archived      bool          `json:"archived"`                   // Whether the repository is archived
}

// Contributor represents a repository contributor with their contribution count.
type Contributor struct {
	Login         string `json:"login"`         // Account name
	Contributions int    `json:"contributions"` // Number of commits
}

// Key joins cache key segments with ":", e.g. Key("npm", "pkg", "react")
// is "npm:pkg:react".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// NormalizePkgName converts an npm package name to its canonical form.
// Registry names are lowercase; surrounding whitespace is dropped.
func NormalizePkgName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// EscapePkgName escapes a package name for use as a registry path segment.
// Scoped names keep the leading "@" and encode the slash: "@babel/core"
// becomes "@babel%2Fcore".
func EscapePkgName(name string) string {
	return url.PathEscape(name)
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
	"ssh://git@github.com/", "https://github.com/",
	"git+ssh://git@github.com/", "https://github.com/",
	"git@gitlab.com:", "https://gitlab.com/",
	"git+ssh://git@gitlab.com/", "https://gitlab.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, ssh:// and git+ prefixes, the "github:owner/repo"
// and "gitlab:owner/repo" shorthands, and removes .git suffixes.
// Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(s, "github:"); ok {
		s = "https://github.com/" + rest
	} else if rest, ok := strings.CutPrefix(s, "gitlab:"); ok {
		s = "https://gitlab.com/" + rest
	}
	s = repoURLReplacer.Replace(s)
	s = strings.TrimPrefix(s, "git+")
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}

// ExtractRepoURL finds the owner and repo in the first candidate URL that
// re matches. The re parameter should match URLs and capture owner
// (group 1) and repo name (group 2). Sponsor links are skipped.
// Returns ok=false if no valid repository URL is found.
func ExtractRepoURL(re *regexp.Regexp, candidates ...string) (owner, repo string, ok bool) {
	for _, u := range candidates {
		u = NormalizeRepoURL(u)
		if u == "" || strings.Contains(u, "/sponsors/") {
			continue
		}
		if m := re.FindStringSubmatch(u); len(m) >= 3 {
			return m[1], strings.TrimSuffix(m[2], ".git"), true
		}
	}
	return "", "", false
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }
