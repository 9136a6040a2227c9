// Package npms provides a client for the npms.io package scoring API.
//
// npms.io rates packages on three axes, each in [0, 1]: quality (tests,
// docs, linting), popularity (downloads, stars, dependents) and maintenance
// (release cadence, issue handling). Scores for many packages are fetched
// with a single POST request.
package npms

import (
	"context"
	"slices"
	"strings"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
)

// DefaultBaseURL is the npms.io API host.
const DefaultBaseURL = "https://api.npms.io"

// MaxBatch is the largest number of names accepted by one mget request.
const MaxBatch = 250

// Score is the npms.io evaluation of one package.
type Score struct {
	Name        string     `json:"name"`
	Final       float64    `json:"final"`
	Quality     float64    `json:"quality"`
	Popularity  float64    `json:"popularity"`
	Maintenance float64    `json:"maintenance"`
	AnalyzedAt  *time.Time `json:"analyzed_at,omitempty"`
}

// Client talks to the npms.io API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npms client over base. An empty baseURL uses
// [DefaultBaseURL].
func NewClient(base *integrations.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{Client: base, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Scores fetches scores for names in one request. Packages npms.io has not
// analysed are absent from the result.
func (c *Client) Scores(ctx context.Context, names []string) (map[string]*Score, error) {
	norm := make([]string, 0, len(names))
	for _, n := range names {
		n = integrations.NormalizePkgName(n)
		if err := apperrors.ValidatePackageName(n); err != nil {
			return nil, err
		}
		if !slices.Contains(norm, n) {
			norm = append(norm, n)
		}
	}
	if len(norm) == 0 {
		return map[string]*Score{}, nil
	}
	if len(norm) > MaxBatch {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "too many packages: %d (max %d)", len(norm), MaxBatch)
	}

	sorted := slices.Sorted(slices.Values(norm))
	key := integrations.Key("npms", "mget", strings.Join(sorted, ","))

	var data map[string]packageResponse
	if err := c.Cached(ctx, key, c.baseURL+"/v2/package/mget", &data, httputil.PostJSON(sorted)); err != nil {
		return nil, err
	}

	out := make(map[string]*Score, len(data))
	for name, p := range data {
		out[name] = p.score(name)
	}
	return out, nil
}

// Score fetches the score of a single package.
func (c *Client) Score(ctx context.Context, name string) (*Score, error) {
	scores, err := c.Scores(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	s, ok := scores[integrations.NormalizePkgName(name)]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "npms score for %s", name)
	}
	return s, nil
}

type packageResponse struct {
	AnalyzedAt *time.Time `json:"analyzedAt"`
	Score      struct {
		Final  float64 `json:"final"`
		Detail struct {
			Quality     float64 `json:"quality"`
			Popularity  float64 `json:"popularity"`
			Maintenance float64 `json:"maintenance"`
		} `json:"detail"`
	} `json:"score"`
}

func (p packageResponse) score(name string) *Score {
	return &Score{
		Name:        name,
		Final:       p.Score.Final,
		Quality:     p.Score.Detail.Quality,
		Popularity:  p.Score.Detail.Popularity,
		Maintenance: p.Score.Detail.Maintenance,
		AnalyzedAt:  p.AnalyzedAt,
	}
}
