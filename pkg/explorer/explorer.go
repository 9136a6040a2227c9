package explorer

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/bundle"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/github"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/gitlab"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/npm"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/npms"
)

// Comparison bounds.
const (
	MinCompare = 2
	MaxCompare = 10

	// compareWorkers bounds concurrent overviews in Compare.
	compareWorkers = 4
)

// Sources names the upstreams an Overview draws from.
const (
	SourceRegistry  = "registry"
	SourceDownloads = "downloads"
	SourceBundle    = "bundle"
	SourceRepo      = "repo"
	SourceScore     = "score"
)

// Clients holds the upstream bindings. Only NPM is required; a nil
// binding skips its source.
type Clients struct {
	NPM    *npm.Client
	Bundle *bundle.Client
	GitHub *github.Client
	GitLab *gitlab.Client
	NPMS   *npms.Client
}

// Service builds package overviews and comparisons.
type Service struct {
	clients Clients
	logger  *log.Logger
	now     func() time.Time
}

// New creates a Service. A nil logger discards diagnostics.
func New(clients Clients, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{clients: clients, logger: logger, now: time.Now}
}

// Warning records an optional source that could not be fetched.
type Warning struct {
	Source  string         `json:"source"`
	Code    apperrors.Code `json:"code,omitempty"`
	Message string         `json:"message"`
}

// Overview is the aggregated view of one package.
type Overview struct {
	Package         *npm.Package              `json:"package"`
	WeeklyDownloads *npm.Downloads            `json:"weekly_downloads,omitempty"`
	Bundle          *bundle.Size              `json:"bundle,omitempty"`
	Repo            *integrations.RepoMetrics `json:"repo,omitempty"`
	Score           *npms.Score               `json:"score,omitempty"`
	Warnings        []Warning                 `json:"warnings,omitempty"`
	FetchedAt       time.Time                 `json:"fetched_at"`
}

// Name returns the package name.
func (o *Overview) Name() string { return o.Package.Name }

// Overview fetches the package document and its optional enrichments
// concurrently. It fails only when the package document cannot be fetched.
func (s *Service) Overview(ctx context.Context, name string) (*Overview, error) {
	if s.clients.NPM == nil {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "explorer has no npm client")
	}

	o := &Overview{}
	var mu sync.Mutex
	warn := func(source string, err error) {
		s.logger.Debug("optional source failed", "package", name, "source", source, "err", err)
		mu.Lock()
		defer mu.Unlock()
		o.Warnings = append(o.Warnings, Warning{
			Source:  source,
			Code:    apperrors.GetCode(err),
			Message: apperrors.UserMessage(err),
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pkg, err := s.clients.NPM.FetchPackage(gctx, name)
		if err != nil {
			return err
		}
		o.Package = pkg

		if pkg.Repository == "" {
			return nil
		}
		repo, ok, err := s.fetchRepo(gctx, pkg.Repository)
		switch {
		case err != nil:
			warn(SourceRepo, err)
		case ok:
			o.Repo = repo
		}
		return nil
	})

	g.Go(func() error {
		d, err := s.clients.NPM.Downloads(gctx, name, "last-week")
		if err != nil {
			warn(SourceDownloads, err)
			return nil
		}
		o.WeeklyDownloads = d
		return nil
	})

	if s.clients.Bundle != nil {
		g.Go(func() error {
			b, err := s.clients.Bundle.FetchSize(gctx, name, "")
			if err != nil {
				warn(SourceBundle, err)
				return nil
			}
			o.Bundle = b
			return nil
		})
	}

	if s.clients.NPMS != nil {
		g.Go(func() error {
			sc, err := s.clients.NPMS.Score(gctx, name)
			if err != nil {
				warn(SourceScore, err)
				return nil
			}
			o.Score = sc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(o.Warnings, func(a, b Warning) int {
		return strings.Compare(a.Source, b.Source)
	})
	o.FetchedAt = s.now()
	return o, nil
}

// fetchRepo asks each configured host in turn; ok is false when no host
// recognizes repoURL.
func (s *Service) fetchRepo(ctx context.Context, repoURL string) (*integrations.RepoMetrics, bool, error) {
	if s.clients.GitHub != nil {
		if m, ok, err := s.clients.GitHub.FetchURL(ctx, repoURL); ok {
			return m, true, err
		}
	}
	if s.clients.GitLab != nil {
		return s.clients.GitLab.FetchURL(ctx, repoURL)
	}
	return nil, false, nil
}
