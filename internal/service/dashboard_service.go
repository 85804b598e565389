package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// SummaryCacheKey is the cache entry holding the dashboard aggregate.
const SummaryCacheKey = "dashboard:summary"

// DefaultSummaryTTL bounds how long a cached summary is served.
const DefaultSummaryTTL = 60 * time.Second

// TicketStats computes the grouped ticket counts behind the dashboard.
type TicketStats interface {
	CountByStatus(ctx context.Context) ([]domain.StatusCount, error)
	CountByPriority(ctx context.Context) ([]domain.PriorityCount, error)
}

// SummaryInvalidator drops the cached summary after a write.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheRecorder observes cache lookups.
type CacheRecorder interface {
	RecordCacheLookup(result string)
}

// DashboardService serves the ticket summary cache-aside.
type DashboardService struct {
	stats    TicketStats
	cache    cache.Store
	ttl      time.Duration
	logger   *zap.Logger
	recorder CacheRecorder
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	Stats    TicketStats
	Cache    cache.Store
	TTL      time.Duration
	Logger   *zap.Logger
	Recorder CacheRecorder
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		stats:    deps.Stats,
		cache:    deps.Cache,
		ttl:      ttl,
		logger:   logger,
		recorder: deps.Recorder,
	}
}

// Summary returns the cached aggregate, recomputing it on a miss.
// Concurrent misses may each recompute; the result is the same.
func (s *DashboardService) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	if summary, ok := s.cached(ctx); ok {
		return summary, nil
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.cache.Set(ctx, SummaryCacheKey, payload, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return summary, nil
}

// Invalidate deletes the cached summary so the next read recomputes it.
func (s *DashboardService) Invalidate(ctx context.Context) error {
	if err := s.cache.Delete(ctx, SummaryCacheKey); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *DashboardService) cached(ctx context.Context) (*domain.DashboardSummary, bool) {
	payload, ok, err := s.cache.Get(ctx, SummaryCacheKey)
	if err != nil {
		s.record("error")
		s.logger.Warn("dashboard cache read failed; serving from store", zap.Error(err))
		return nil, false
	}
	if !ok {
		s.record("miss")
		return nil, false
	}

	var summary domain.DashboardSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		s.record("error")
		s.logger.Warn("discarding undecodable dashboard cache entry", zap.Error(err))
		return nil, false
	}
	s.record("hit")
	return &summary, true
}

func (s *DashboardService) compute(ctx context.Context) (*domain.DashboardSummary, error) {
	byStatus, err := s.stats.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.stats.CountByPriority(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.DashboardSummary{ByStatus: byStatus, ByPriority: byPriority}, nil
}

func (s *DashboardService) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordCacheLookup(result)
	}
}
