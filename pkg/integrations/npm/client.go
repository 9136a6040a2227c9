package npm

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
)

// Default API hosts.
const (
	DefaultRegistryURL  = "https://registry.npmjs.org"
	DefaultDownloadsURL = "https://api.npmjs.org"
)

// Search page size limits enforced by the registry.
const (
	DefaultSearchSize = 20
	MaxSearchSize     = 250
)

// Download periods accepted by the downloads API besides explicit ranges.
var Periods = []string{"last-day", "last-week", "last-month", "last-year"}

var dateRange = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(:\d{4}-\d{2}-\d{2})?$`)

// Client talks to the npm registry and downloads API.
type Client struct {
	*integrations.Client
	registryURL  string
	downloadsURL string

	// search and downloads share the base client unless given their own TTL.
	search    *integrations.Client
	downloads *integrations.Client
}

// Option configures a Client.
type Option func(*Client)

// WithRegistryURL overrides the registry host.
func WithRegistryURL(u string) Option {
	return func(c *Client) { c.registryURL = strings.TrimSuffix(u, "/") }
}

// WithDownloadsURL overrides the downloads API host.
func WithDownloadsURL(u string) Option {
	return func(c *Client) { c.downloadsURL = strings.TrimSuffix(u, "/") }
}

// WithSearchTTL caches search results for ttl instead of the base lifetime.
func WithSearchTTL(ttl time.Duration) Option {
	return func(c *Client) { c.search = c.Client.WithTTL(ttl) }
}

// WithDownloadsTTL caches download counts for ttl instead of the base lifetime.
func WithDownloadsTTL(ttl time.Duration) Option {
	return func(c *Client) { c.downloads = c.Client.WithTTL(ttl) }
}

// NewClient creates an npm client over base.
func NewClient(base *integrations.Client, opts ...Option) *Client {
	c := &Client{
		Client:       base,
		registryURL:  DefaultRegistryURL,
		downloadsURL: DefaultDownloadsURL,
		search:       base,
		downloads:    base,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the registry. A size of 0 uses [DefaultSearchSize];
// larger sizes are clamped to [MaxSearchSize].
func (c *Client) Search(ctx context.Context, query string, size int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "search query is empty")
	}
	if size <= 0 {
		size = DefaultSearchSize
	}
	size = min(size, MaxSearchSize)

	q := url.Values{"text": {query}, "size": {strconv.Itoa(size)}}
	key := integrations.Key("npm", "search", strings.ToLower(query), strconv.Itoa(size))

	var res SearchResult
	if err := c.search.Cached(ctx, key, c.registryURL+"/-/v1/search?"+q.Encode(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchPackage fetches and normalizes the full package document.
func (c *Client) FetchPackage(ctx context.Context, name string) (*Package, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}

	var data packumentResponse
	err = c.Cached(ctx, integrations.Key("npm", "pkg", name), c.registryURL+"/"+integrations.EscapePkgName(name), &data)
	if err != nil {
		return nil, integrations.NotFound(err, "npm package %s", name)
	}
	return data.normalize(), nil
}

// FetchVersion fetches one version manifest. version may be an exact
// version or a dist-tag such as "latest".
func (c *Client) FetchVersion(ctx context.Context, name, version string) (*Version, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	version = strings.TrimSpace(version)
	if version == "" {
		version = "latest"
	}

	var data versionResponse
	u := c.registryURL + "/" + integrations.EscapePkgName(name) + "/" + url.PathEscape(version)
	if err := c.Cached(ctx, integrations.Key("npm", "version", name, version), u, &data); err != nil {
		return nil, integrations.NotFound(err, "npm package %s@%s", name, version)
	}
	return data.normalize(nil), nil
}

// Downloads returns the total downloads of name over period, which is one
// of [Periods] or a "YYYY-MM-DD:YYYY-MM-DD" range.
func (c *Client) Downloads(ctx context.Context, name, period string) (*Downloads, error) {
	name, period, err := c.downloadsArgs(name, period)
	if err != nil {
		return nil, err
	}

	var res Downloads
	u := fmt.Sprintf("%s/downloads/point/%s/%s", c.downloadsURL, period, integrations.EscapePkgName(name))
	if err := c.downloads.Cached(ctx, integrations.Key("npm", "downloads", period, name), u, &res); err != nil {
		return nil, integrations.NotFound(err, "download statistics for %s", name)
	}
	return &res, nil
}

// DownloadRange returns daily downloads of name over period.
func (c *Client) DownloadRange(ctx context.Context, name, period string) (*DownloadRange, error) {
	name, period, err := c.downloadsArgs(name, period)
	if err != nil {
		return nil, err
	}

	var res DownloadRange
	u := fmt.Sprintf("%s/downloads/range/%s/%s", c.downloadsURL, period, integrations.EscapePkgName(name))
	if err := c.downloads.Cached(ctx, integrations.Key("npm", "range", period, name), u, &res); err != nil {
		return nil, integrations.NotFound(err, "download statistics for %s", name)
	}
	return &res, nil
}

func (c *Client) downloadsArgs(name, period string) (string, string, error) {
	name, err := validName(name)
	if err != nil {
		return "", "", err
	}
	if period == "" {
		period = "last-week"
	}
	if !slices.Contains(Periods, period) && !dateRange.MatchString(period) {
		return "", "", apperrors.New(apperrors.ErrCodeInvalidInput,
			"invalid period %q: want one of %s or YYYY-MM-DD:YYYY-MM-DD", period, strings.Join(Periods, ", "))
	}
	return name, period, nil
}

func validName(name string) (string, error) {
	name = integrations.NormalizePkgName(name)
	if err := apperrors.ValidatePackageName(name); err != nil {
		return "", err
	}
	return name, nil
}

func (r *packumentResponse) normalize() *Package {
	created := parseTime(r.Time["created"])
	modified := parseTime(r.Time["modified"])

	versions := slices.Collect(maps.Keys(r.Versions))
	slices.SortStableFunc(versions, func(a, b string) int {
		ta, tb := parseTime(r.Time[a]), parseTime(r.Time[b])
		if ta != nil && tb != nil && !ta.Equal(*tb) {
			return ta.Compare(*tb)
		}
		return strings.Compare(a, b)
	})

	pkg := &Package{
		Name:        r.Name,
		Description: r.Description,
		DistTags:    r.DistTags,
		Versions:    versions,
		Keywords:    stringList(r.Keywords),
		License:     license(r.License),
		Homepage:    r.Homepage,
		Repository:  integrations.NormalizeRepoURL(extractField(r.Repository, "url")),
		BugsURL:     extractField(r.Bugs, "url"),
		Created:     created,
		Modified:    modified,
	}
	for _, m := range r.Maintainers {
		if p := person(m); p.Name != "" {
			pkg.Maintainers = append(pkg.Maintainers, p)
		}
	}

	if v, ok := r.Versions[pkg.LatestVersion()]; ok {
		pkg.Latest = v.normalize(parseTime(r.Time[v.Version]))
		if pkg.Description == "" {
			pkg.Description = pkg.Latest.Description
		}
		if pkg.License == "" {
			pkg.License = pkg.Latest.License
		}
		if pkg.Repository == "" {
			pkg.Repository = pkg.Latest.Repository
		}
		if pkg.Homepage == "" {
			pkg.Homepage = pkg.Latest.Homepage
		}
	}
	return pkg
}

func (v *versionResponse) normalize(published *time.Time) *Version {
	out := &Version{
		Name:                 v.Name,
		Version:              v.Version,
		Description:          v.Description,
		License:              license(v.License),
		Author:               person(v.Author).Name,
		Homepage:             v.HomePage,
		Repository:           integrations.NormalizeRepoURL(extractField(v.Repository, "url")),
		Dependencies:         v.Dependencies,
		DevDependencies:      v.DevDependencies,
		PeerDependencies:     v.PeerDependencies,
		OptionalDependencies: v.OptionalDependencies,
		Dist: Dist{
			Tarball:      v.Dist.Tarball,
			Shasum:       v.Dist.Shasum,
			Integrity:    v.Dist.Integrity,
			FileCount:    v.Dist.FileCount,
			UnpackedSize: v.Dist.UnpackedSize,
		},
		PublishedAt: published,
	}
	if s, ok := v.Deprecated.(string); ok {
		out.Deprecated = s
	}
	if m, ok := v.Engines.(map[string]any); ok {
		out.Engines = make(map[string]string, len(m))
		for k, val := range m {
			if s, ok := val.(string); ok {
				out.Engines[k] = s
			}
		}
	}
	return out
}

// extractField returns v itself when it is a string, or v[field] when v is
// an object. Registry metadata uses both shapes for many fields.
func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}

// license handles "MIT", {"type":"MIT"} and the legacy [{"type":"MIT"}, ...].
func license(v any) string {
	if list, ok := v.([]any); ok {
		var names []string
		for _, item := range list {
			if s := extractField(item, "type"); s != "" {
				names = append(names, s)
			}
		}
		return strings.Join(names, " OR ")
	}
	return extractField(v, "type")
}

var personPattern = regexp.MustCompile(`^\s*([^<(]*?)\s*(?:<([^>]*)>)?\s*(?:\(([^)]*)\))?\s*$`)

// person parses {"name","email"} objects and "Name <email> (url)" strings.
func person(v any) Person {
	switch val := v.(type) {
	case map[string]any:
		return Person{Name: extractField(val, "name"), Email: extractField(val, "email")}
	case string:
		if m := personPattern.FindStringSubmatch(val); m != nil {
			return Person{Name: m[1], Email: m[2]}
		}
		return Person{Name: strings.TrimSpace(val)}
	}
	return Person{}
}

// stringList accepts a JSON array of strings or a comma-separated string.
func stringList(v any) []string {
	var out []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case string:
		for s := range strings.SplitSeq(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func parseTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
