package explorer

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
)

// Metrics compared across packages.
const (
	MetricDownloads   = "downloads"
	MetricStars       = "stars"
	MetricBundleSize  = "bundle_size"
	MetricScore       = "score"
	MetricDeps        = "dependencies"
	MetricLastRelease = "last_release"
)

// Comparison holds overviews in input order and the leading package per
// metric. A metric no package has data for has no leader.
type Comparison struct {
	Packages []*Overview       `json:"packages"`
	Leaders  map[string]string `json:"leaders"`
}

// Compare builds overviews for names concurrently. Names are normalized and
// must be unique; between [MinCompare] and [MaxCompare] are accepted.
func (s *Service) Compare(ctx context.Context, names []string) (*Comparison, error) {
	norm, err := normalizeNames(names)
	if err != nil {
		return nil, err
	}

	overviews := make([]*Overview, len(norm))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compareWorkers)
	for i, name := range norm {
		g.Go(func() error {
			o, err := s.Overview(gctx, name)
			if err != nil {
				return err
			}
			overviews[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Comparison{Packages: overviews, Leaders: leaders(overviews)}, nil
}

func normalizeNames(names []string) ([]string, error) {
	var norm []string
	for _, n := range names {
		n = integrations.NormalizePkgName(n)
		if n == "" {
			continue
		}
		if err := apperrors.ValidatePackageName(n); err != nil {
			return nil, err
		}
		if slices.Contains(norm, n) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "duplicate package %q", n)
		}
		norm = append(norm, n)
	}
	if len(norm) < MinCompare || len(norm) > MaxCompare {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput,
			"compare needs %d to %d packages, got %d", MinCompare, MaxCompare, len(norm))
	}
	return norm, nil
}

// leaders picks, per metric, the package with the best value. Ties go to the
// package listed first.
func leaders(overviews []*Overview) map[string]string {
	type metric struct {
		name   string
		value  func(*Overview) (float64, bool)
		higher bool
	}
	metrics := []metric{
		{MetricDownloads, func(o *Overview) (float64, bool) {
			if o.WeeklyDownloads == nil {
				return 0, false
			}
			return float64(o.WeeklyDownloads.Downloads), true
		}, true},
		{MetricStars, func(o *Overview) (float64, bool) {
			if o.Repo == nil {
				return 0, false
			}
			return float64(o.Repo.Stars), true
		}, true},
		{MetricBundleSize, func(o *Overview) (float64, bool) {
			if o.Bundle == nil {
				return 0, false
			}
			return float64(o.Bundle.Gzip), true
		}, false},
		{MetricScore, func(o *Overview) (float64, bool) {
			if o.Score == nil {
				return 0, false
			}
			return o.Score.Final, true
		}, true},
		{MetricDeps, func(o *Overview) (float64, bool) {
			if o.Package.Latest == nil {
				return 0, false
			}
			return float64(len(o.Package.Latest.Dependencies)), true
		}, false},
		{MetricLastRelease, func(o *Overview) (float64, bool) {
			if o.Package.Latest == nil || o.Package.Latest.PublishedAt == nil {
				return 0, false
			}
			return float64(o.Package.Latest.PublishedAt.Unix()), true
		}, true},
	}

	out := make(map[string]string, len(metrics))
	for _, m := range metrics {
		var best string
		var bestVal float64
		for _, o := range overviews {
			v, ok := m.value(o)
			if !ok {
				continue
			}
			if best == "" || (m.higher && v > bestVal) || (!m.higher && v < bestVal) {
				best, bestVal = o.Name(), v
			}
		}
		if best != "" {
			out[m.name] = best
		}
	}
	return out
}

// ParseNames splits a comma- or whitespace-separated package list.
func ParseNames(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
