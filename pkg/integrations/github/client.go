package github

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
)

// DefaultBaseURL is the GitHub REST API host.
const DefaultBaseURL = "https://api.github.com"

var repoURLPattern = regexp.MustCompile(`https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// Client provides access to the GitHub API for repository metadata enrichment.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client over base. An empty baseURL uses
// [DefaultBaseURL].
func NewClient(base *integrations.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{Client: base, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Fetch retrieves repository metrics (stars, contributors, activity).
func (c *Client) Fetch(ctx context.Context, owner, repo string) (*integrations.RepoMetrics, error) {
	owner, repo, err := apperrors.ValidateRepoSlug(owner + "/" + repo)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchRepo(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	m := &integrations.RepoMetrics{
		RepoURL:       fmt.Sprintf("https://github.com/%s/%s", owner, repo),
		Owner:         owner,
		Name:          repo,
		Description:   data.Description,
		Stars:         data.Stars,
		Forks:         data.Forks,
		OpenIssues:    data.OpenIssues,
		Watchers:      data.Subscribers,
		SizeKB:        data.Size,
		DefaultBranch: data.DefaultBranch,
		CreatedAt:     data.CreatedAt,
		LastCommitAt:  data.PushedAt,
		License:       data.License.SPDXID,
		Language:      data.Language,
		Topics:        data.Topics,
		Archived:      data.Archived,
	}
	if data.HTMLURL != "" {
		m.RepoURL = data.HTMLURL
	}
	if rel, err := c.fetchRelease(ctx, owner, repo); err == nil && !rel.PublishedAt.IsZero() {
		m.LastReleaseAt = &rel.PublishedAt
	}
	if contribs, err := c.fetchContributors(ctx, owner, repo); err == nil {
		m.Contributors = contribs
	}
	return m, nil
}

// FetchURL resolves a repository URL as found in package metadata and
// fetches its metrics. ok is false when the URL is not a GitHub repository.
func (c *Client) FetchURL(ctx context.Context, repoURL string) (m *integrations.RepoMetrics, ok bool, err error) {
	owner, repo, ok := ExtractURL(repoURL)
	if !ok {
		return nil, false, nil
	}
	m, err = c.Fetch(ctx, owner, repo)
	return m, true, err
}

func (c *Client) fetchRepo(ctx context.Context, owner, repo string) (*repoResponse, error) {
	var data repoResponse
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.Cached(ctx, c.key("repo", owner, repo), url, &data, apiHeaders); err != nil {
		return nil, integrations.NotFound(err, "github repo %s/%s", owner, repo)
	}
	return &data, nil
}

func (c *Client) fetchRelease(ctx context.Context, owner, repo string) (*releaseResponse, error) {
	var data releaseResponse
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)
	if err := c.Cached(ctx, c.key("release", owner, repo), url, &data, apiHeaders, httputil.Retries(0)); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) fetchContributors(ctx context.Context, owner, repo string) ([]integrations.Contributor, error) {
	var data []contributorResponse
	url := fmt.Sprintf("%s/repos/%s/%s/contributors?per_page=10", c.baseURL, owner, repo)
	if err := c.Cached(ctx, c.key("contributors", owner, repo), url, &data, apiHeaders, httputil.Retries(0)); err != nil {
		return nil, err
	}

	var result []integrations.Contributor
	for _, cr := range data {
		if cr.Type != "Bot" && !strings.HasSuffix(cr.Login, "[bot]") {
			result = append(result, integrations.Contributor{
				Login:         cr.Login,
				Contributions: cr.Contributions,
			})
		}
	}
	return result, nil
}

func (c *Client) key(kind, owner, repo string) string {
	return integrations.Key("github", kind, strings.ToLower(owner+"/"+repo))
}

var apiHeaders = httputil.Headers(map[string]string{
	"Accept":               "application/vnd.github+json",
	"X-GitHub-Api-Version": "2022-11-28",
})

// ExtractURL finds the GitHub owner and repo in the first matching URL.
func ExtractURL(urls ...string) (owner, repo string, ok bool) {
	return integrations.ExtractRepoURL(repoURLPattern, urls...)
}

type repoResponse struct {
	HTMLURL       string     `json:"html_url"`
	Description   string     `json:"description"`
	Stars         int        `json:"stargazers_count"`
	Forks         int        `json:"forks_count"`
	OpenIssues    int        `json:"open_issues_count"`
	Subscribers   int        `json:"subscribers_count"`
	Size          int        `json:"size"`
	DefaultBranch string     `json:"default_branch"`
	CreatedAt     *time.Time `json:"created_at"`
	PushedAt      *time.Time `json:"pushed_at"`
	License       struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
	Language string   `json:"language"`
	Topics   []string `json:"topics"`
	Archived bool     `json:"archived"`
}

type releaseResponse struct {
	PublishedAt time.Time `json:"published_at"`
}

type contributorResponse struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	Type          string `json:"type"`
}
