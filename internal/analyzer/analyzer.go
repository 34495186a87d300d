// Package analyzer runs the full match pipeline: deterministic scoring, cache
// lookup, optional narrative enrichment and the cache write.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/enrich"
	"github.com/spigell/resume-matcher/internal/cache"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
)

// ErrUpstreamUnavailable is returned when the deterministic pass itself fails.
var ErrUpstreamUnavailable = errors.New("analysis unavailable")

// Enricher produces a narrative for an already scored pair.
type Enricher interface {
	Enrich(ctx context.Context, resumeText, jobText string, score int) (*enrich.Payload, error)
}

type Service struct {
	cache    *cache.Cache
	enricher Enricher
	group    singleflight.Group
	logger   *zap.Logger
}

// New builds a Service. A nil enricher disables the AI step.
func New(c *cache.Cache, enricher Enricher, log *zap.Logger) *Service {
	if c == nil {
		c = cache.New()
	}

	return &Service{cache: c, enricher: enricher, logger: logger.WithFields(log)}
}

// Analyze scores resumeText against jobText. Only invalid input and failures
// of the deterministic pass are returned as errors; enrichment problems fall
// back to the deterministic narrative. force skips both the cache read and
// the cache write.
func (s *Service) Analyze(ctx context.Context, resumeText, jobText string, force bool) (*matching.MatchAnalysis, error) {
	base, err := matching.Analyze(resumeText, jobText)
	if err != nil {
		if errors.Is(err, matching.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	if force {
		s.logger.Debug("forced analysis, bypassing cache", logger.AnalysisFields("", base.MatchScore, true)...)
		result, _ := s.enrich(ctx, base, resumeText, jobText)
		return result, nil
	}

	key := cache.Key(resumeText, jobText)
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.logger.Debug("analysis served from cache", logger.AnalysisFields(key, cached.MatchScore, false)...)
		return cached, nil
	}

	// Concurrent identical requests share one enrichment call, detached from
	// any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		if cached, ok := s.cache.Get(flightCtx, key); ok {
			return cached, nil
		}

		result, cacheable := s.enrich(flightCtx, base, resumeText, jobText)
		if cacheable {
			s.cache.Put(flightCtx, key, result)
		}
		s.logger.Debug("analysis computed", append(logger.AnalysisFields(key, result.MatchScore, false), zap.Bool("cached", cacheable))...)
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("analysis abandoned: %w", ctx.Err())
	case res := <-ch:
		analysis := res.Val.(*matching.MatchAnalysis)
		if res.Shared {
			analysis = analysis.Clone()
		}
		return analysis, nil
	}
}

// enrich applies the provider narrative to base. The bool reports whether the
// outcome is stable enough to cache; transient provider failures are not.
func (s *Service) enrich(ctx context.Context, base *matching.MatchAnalysis, resumeText, jobText string) (*matching.MatchAnalysis, bool) {
	if s.enricher == nil {
		return base, true
	}

	payload, err := s.enricher.Enrich(ctx, resumeText, jobText, base.MatchScore)
	if err != nil {
		ee := ai.Classify(err)
		s.logger.Warn("enrichment failed, using deterministic narrative",
			zap.String("kind", string(ee.Kind)),
			zap.Error(err),
		)
		return base, !transient(ee.Kind)
	}

	return enrich.Merge(base, payload, resumeText), true
}

func transient(kind ai.ErrorKind) bool {
	switch kind {
	case ai.KindCanceled, ai.KindTimeout, ai.KindUnavailable:
		return true
	default:
		return false
	}
}
