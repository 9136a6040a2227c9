// Package app assembles the store, fetch client, upstream bindings and
// explorer service from a [config.Config]. The CLI and the HTTP server
// share it.
package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgexplorer/pkg/config"
	"github.com/matzehuels/pkgexplorer/pkg/depgraph"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/explorer"
	"github.com/matzehuels/pkgexplorer/pkg/httputil"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/bundle"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/github"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/gitlab"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/npm"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/npms"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

// Options adjusts a single invocation.
type Options struct {
	// NoCache replaces the configured store with a null store.
	NoCache bool

	// Refresh skips cache reads; fresh responses are still written.
	Refresh bool

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// App holds the wired components.
type App struct {
	Config *config.Config
	Logger *log.Logger

	Store store.Store
	Cache *httputil.Cache
	HTTP  *httputil.Client

	NPM    *npm.Client
	Bundle *bundle.Client
	GitHub *github.Client
	GitLab *gitlab.Client
	NPMS   *npms.Client

	Explorer *explorer.Service
}

// New wires every component. A store that cannot be opened is replaced by
// a null store with a warning: caching is an optimisation, never a
// requirement.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := openStore(ctx, cfg, logger, opts.NoCache)
	cache := httputil.NewCache(s, logger)

	hc := httputil.NewClient(clientOptions(cfg, cache, logger, opts)...)

	base := integrations.NewClient(hc, ttlOrDisabled(cfg.TTL.Package)).WithRefresh(opts.Refresh)
	a := &App{
		Config: cfg,
		Logger: logger,
		Store:  s,
		Cache:  cache,
		HTTP:   hc,
		NPM: npm.NewClient(base,
			npm.WithRegistryURL(cfg.Endpoints.Registry),
			npm.WithDownloadsURL(cfg.Endpoints.Downloads),
			npm.WithSearchTTL(ttlOrDisabled(cfg.TTL.Search)),
			npm.WithDownloadsTTL(ttlOrDisabled(cfg.TTL.Downloads)),
		),
		Bundle: bundle.NewClient(base.WithTTL(ttlOrDisabled(cfg.TTL.Bundle)), cfg.Endpoints.Bundle),
		GitHub: github.NewClient(base.WithTTL(ttlOrDisabled(cfg.TTL.Repo)), cfg.Endpoints.GitHub),
		GitLab: gitlab.NewClient(base.WithTTL(ttlOrDisabled(cfg.TTL.Repo)), cfg.Endpoints.GitLab),
		NPMS:   npms.NewClient(base.WithTTL(ttlOrDisabled(cfg.TTL.Score)), cfg.Endpoints.NPMS),
	}
	a.Explorer = explorer.New(explorer.Clients{
		NPM:    a.NPM,
		Bundle: a.Bundle,
		GitHub: a.GitHub,
		GitLab: a.GitLab,
		NPMS:   a.NPMS,
	}, logger)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger, noCache bool) store.Store {
	if noCache {
		return store.NewNullStore()
	}
	s, err := store.Open(ctx, cfg.Cache.StoreOptions(), logger)
	if err != nil {
		logger.Warn("cache unavailable, continuing without it", "backend", cfg.Cache.Backend, "err", err)
		return store.NewNullStore()
	}
	logger.Debug("cache opened", "backend", cfg.Cache.Backend)
	return s
}

func clientOptions(cfg *config.Config, cache *httputil.Cache, logger *log.Logger, opts Options) []httputil.ClientOption {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.HTTP.Timeout}
	}
	policy := httputil.DefaultPolicy()
	policy.Retries = cfg.HTTP.Retries
	policy.BaseDelay = cfg.HTTP.RetryDelay

	out := []httputil.ClientOption{
		httputil.WithHTTPClient(hc),
		httputil.WithCache(cache),
		httputil.WithPolicy(policy),
		httputil.WithLogger(logger),
	}
	if cfg.HTTP.UserAgent != "" {
		out = append(out, httputil.WithUserAgent(cfg.HTTP.UserAgent))
	}
	if cfg.HTTP.RateLimit > 0 {
		out = append(out, httputil.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.Burst))
	}
	if cfg.HTTP.Coalesce {
		out = append(out, httputil.WithCoalescing())
	}
	return out
}

// A configured TTL of zero turns caching off for that resource, unlike
// integrations.NewClient where zero means the default.
func ttlOrDisabled(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return -1
	}
	return ttl
}

// Graph resolves the dependency graph of name through the npm binding.
func (a *App) Graph(ctx context.Context, name string, opts depgraph.Options) (*depgraph.Graph, error) {
	if opts.Logger == nil {
		opts.Logger = a.Logger
	}
	return depgraph.Resolve(ctx, a.NPM, name, opts)
}

// Repository hosts accepted by [App.Repo].
const (
	HostGitHub = "github"
	HostGitLab = "gitlab"
)

// RepoHosts lists the accepted hosts.
var RepoHosts = []string{HostGitHub, HostGitLab}

// Repo fetches repository metrics from host. An empty host means GitHub.
func (a *App) Repo(ctx context.Context, host, owner, repo string) (*integrations.RepoMetrics, error) {
	switch host {
	case HostGitHub, "":
		return a.GitHub.Fetch(ctx, owner, repo)
	case HostGitLab:
		return a.GitLab.Fetch(ctx, owner, repo)
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown repository host %q (want github or gitlab)", host)
	}
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
