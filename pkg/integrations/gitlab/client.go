package gitlab

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
)

// DefaultBaseURL is the GitLab REST API root.
const DefaultBaseURL = "https://gitlab.com/api/v4"

var repoURLPattern = regexp.MustCompile(`https?://gitlab\.com/([^/]+)/([^/?#]+)`)

// Client provides access to the GitLab API for repository metadata enrichment.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitLab API client over base. An empty baseURL uses
// [DefaultBaseURL].
func NewClient(base *integrations.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{Client: base, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Fetch retrieves project metrics for owner/repo.
func (c *Client) Fetch(ctx context.Context, owner, repo string) (*integrations.RepoMetrics, error) {
	owner, repo, err := apperrors.ValidateRepoSlug(owner + "/" + repo)
	if err != nil {
		return nil, err
	}

	var data projectResponse
	slug := owner + "/" + repo
	u := fmt.Sprintf("%s/projects/%s?license=true", c.baseURL, url.PathEscape(slug))
	if err := c.Cached(ctx, integrations.Key("gitlab", "project", strings.ToLower(slug)), u, &data); err != nil {
		return nil, integrations.NotFound(err, "gitlab project %s", slug)
	}

	m := &integrations.RepoMetrics{
		RepoURL:       data.WebURL,
		Owner:         owner,
		Name:          repo,
		Description:   data.Description,
		Stars:         data.Stars,
		Forks:         data.Forks,
		OpenIssues:    data.OpenIssues,
		DefaultBranch: data.DefaultBranch,
		CreatedAt:     data.CreatedAt,
		LastCommitAt:  data.LastActivityAt,
		Topics:        data.Topics,
		Archived:      data.Archived,
	}
	if m.RepoURL == "" {
		m.RepoURL = "https://gitlab.com/" + slug
	}
	if data.License != nil {
		m.License = strings.ToUpper(data.License.Key)
	}
	if rel, err := c.fetchRelease(ctx, slug); err == nil && rel.ReleasedAt != nil {
		m.LastReleaseAt = rel.ReleasedAt
	}
	return m, nil
}

// FetchURL resolves a repository URL as found in package metadata and
// fetches its metrics. ok is false when the URL is not a GitLab project.
func (c *Client) FetchURL(ctx context.Context, repoURL string) (m *integrations.RepoMetrics, ok bool, err error) {
	owner, repo, ok := ExtractURL(repoURL)
	if !ok {
		return nil, false, nil
	}
	m, err = c.Fetch(ctx, owner, repo)
	return m, true, err
}

func (c *Client) fetchRelease(ctx context.Context, slug string) (*releaseResponse, error) {
	var data releaseResponse
	u := fmt.Sprintf("%s/projects/%s/releases/permalink/latest", c.baseURL, url.PathEscape(slug))
	if err := c.Cached(ctx, integrations.Key("gitlab", "release", strings.ToLower(slug)), u, &data, httputil.Retries(0)); err != nil {
		return nil, err
	}
	return &data, nil
}

// ExtractURL finds the GitLab owner and project in the first matching URL.
func ExtractURL(urls ...string) (owner, repo string, ok bool) {
	return integrations.ExtractRepoURL(repoURLPattern, urls...)
}

type projectResponse struct {
	WebURL         string     `json:"web_url"`
	Description    string     `json:"description"`
	Stars          int        `json:"star_count"`
	Forks          int        `json:"forks_count"`
	OpenIssues     int        `json:"open_issues_count"`
	DefaultBranch  string     `json:"default_branch"`
	CreatedAt      *time.Time `json:"created_at"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	Topics         []string   `json:"topics"`
	Archived       bool       `json:"archived"`
	License        *struct {
		Key string `json:"key"`
	} `json:"license"`
}

type releaseResponse struct {
	ReleasedAt *time.Time `json:"released_at"`
}
