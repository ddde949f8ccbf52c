package address

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/idintake/internal/domain/geo"
	"github.com/kailas-cloud/idintake/internal/logger"
	"github.com/kailas-cloud/idintake/internal/metrics"
)

// Service resolves free-text place names to canonical reference codes,
// top-down, each level scoped by the one above. It never fails: lookup
// errors count as misses.
type Service struct {
	ref    Reference
	ranker Ranker
}

// New creates a resolver that takes the first reference result.
func New(ref Reference) *Service {
	return &Service{ref: ref, ranker: FirstResult{}}
}

// WithRanker swaps the ranking strategy.
func (s *Service) WithRanker(r Ranker) *Service {
	if r != nil {
		s.ranker = r
	}
	return s
}

// Resolve runs province, then city, then barangay. A barangay is only searched
// within a resolved city.
func (s *Service) Resolve(ctx context.Context, in geo.Input) geo.Resolution {
	var res geo.Resolution

	res.Province = s.stage(ctx, geo.LevelProvince, in.Province, "")

	var provinceCode string
	if res.Province != nil {
		provinceCode = res.Province.Code
	}
	res.City = s.stage(ctx, geo.LevelCity, in.City, provinceCode)

	if res.City != nil {
		res.Barangay = s.stage(ctx, geo.LevelBarangay, in.Barangay, res.City.Code)
	} else if strings.TrimSpace(in.Barangay) != "" {
		metrics.ResolverStageTotal.WithLabelValues(string(geo.LevelBarangay), "skipped").Inc()
	}

	return res
}

// Search exposes a single ranked-free reference lookup.
func (s *Service) Search(ctx context.Context, level geo.Level, text, parentCode string) ([]geo.Entry, error) {
	return s.ref.Search(ctx, level, strings.TrimSpace(text), parentCode)
}

func (s *Service) stage(ctx context.Context, level geo.Level, text, parentCode string) *geo.Match {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	log := logger.FromContext(ctx)

	candidates, err := s.ref.Search(ctx, level, text, parentCode)
	if err != nil {
		metrics.ResolverStageTotal.WithLabelValues(string(level), "error").Inc()
		log.Warn("reference lookup failed",
			zap.String("level", string(level)),
			zap.String("parent_code", parentCode),
			zap.Error(err),
		)
		return nil
	}

	picked, ok := s.ranker.Pick(text, candidates)
	if !ok {
		metrics.ResolverStageTotal.WithLabelValues(string(level), "miss").Inc()
		log.Debug("no reference match",
			zap.String("level", string(level)),
			zap.String("text", text),
			zap.Int("candidates", len(candidates)),
		)
		return nil
	}

	metrics.ResolverStageTotal.WithLabelValues(string(level), "hit").Inc()
	return geo.MatchOf(picked)
}
