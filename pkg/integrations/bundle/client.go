// Package bundle provides a client for bundlephobia's bundle size analysis.
package bundle

import (
	"context"
	"net/url"
	"strings"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
)

// DefaultBaseURL is the bundlephobia API host.
const DefaultBaseURL = "https://bundlephobia.com"

// Size is the bundle analysis of one package version.
type Size struct {
	Name            string           `json:"name"`
	Version         string           `json:"version"`
	Description     string           `json:"description,omitempty"`
	Size            int64            `json:"size"` // minified bytes
	Gzip            int64            `json:"gzip"` // minified + gzipped bytes
	DependencyCount int              `json:"dependencyCount"`
	HasJSModule     any              `json:"hasJSModule,omitempty"`
	HasSideEffects  any              `json:"hasSideEffects,omitempty"`
	IsModuleType    bool             `json:"isModuleType,omitempty"`
	Scoped          bool             `json:"scoped,omitempty"`
	Repository      string           `json:"repository,omitempty"`
	DependencySizes []DependencySize `json:"dependencySizes,omitempty"`
}

// TreeShakeable reports whether the package ships an ES module entry point.
func (s *Size) TreeShakeable() bool {
	switch v := s.HasJSModule.(type) {
	case bool:
		return v
	case string:
		return v != ""
	}
	return s.IsModuleType
}

// DependencySize is one dependency's approximate share of the bundle.
type DependencySize struct {
	Name            string `json:"name"`
	ApproximateSize int64  `json:"approximateSize"`
}

// Client talks to the bundlephobia API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a bundle client over base. An empty baseURL uses
// [DefaultBaseURL].
func NewClient(base *integrations.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{Client: base, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// FetchSize analyses name at version. An empty version means the latest
// release.
func (c *Client) FetchSize(ctx context.Context, name, version string) (*Size, error) {
	name, version = SplitSpec(name, version)
	name = integrations.NormalizePkgName(name)
	if err := apperrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	spec := name
	if version != "" {
		spec += "@" + version
	}
	key := integrations.Key("bundle", "size", spec)
	u := c.baseURL + "/api/size?" + url.Values{"package": {spec}}.Encode()

	var s Size
	err := c.Cached(ctx, key, u, &s, httputil.Header("X-Bundlephobia-User", "pkgexplorer"))
	if err != nil {
		return nil, integrations.NotFound(err, "bundle size for %s", spec)
	}
	return &s, nil
}

// SplitSpec separates a "name@version" spec. An explicit version argument
// wins over one embedded in name. The "@" of a scope is not a separator.
func SplitSpec(name, version string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "@"); i > 0 {
		if version == "" {
			version = name[i+1:]
		}
		name = name[:i]
	}
	return name, strings.TrimSpace(version)
}
