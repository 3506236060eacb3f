package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

// RecentOccurrenceWindow is the lookback of the dashboard occurrence counter.
const RecentOccurrenceWindow = 30 * 24 * time.Hour

type alertSeverityCounter interface {
	CountActiveBySeverity(ctx context.Context, schoolID string) ([]models.CountByKey, error)
}

type statusCounter interface {
	CountByStatus(ctx context.Context, schoolID string) ([]models.CountByKey, error)
}

type occurrenceCounter interface {
	CountSince(ctx context.Context, schoolID string, since time.Time) (int, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Alerts        alertSeverityCounter
	Interventions statusCounter
	Occurrences   occurrenceCounter
	Documents     statusCounter
	Cache         *CacheService
	Metrics       *MetricsService
	CacheTTL      time.Duration
	Logger        *zap.Logger
}

// DashboardService composes the pedagogical overview of a school.
type DashboardService struct {
	alerts        alertSeverityCounter
	interventions statusCounter
	occurrences   occurrenceCounter
	documents     statusCounter
	cache         *CacheService
	metrics       *MetricsService
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		alerts:        params.Alerts,
		interventions: params.Interventions,
		occurrences:   params.Occurrences,
		documents:     params.Documents,
		cache:         params.Cache,
		metrics:       params.Metrics,
		cacheTTL:      ttl,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// DashboardCacheKey is the cache entry holding a school's dashboard.
func DashboardCacheKey(schoolID string) string {
	return "dashboard:" + schoolID
}

// Summary returns the school dashboard and whether it was served from cache.
func (s *DashboardService) Summary(ctx context.Context, schoolID string) (*models.DashboardSummary, bool, error) {
	if schoolID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "school is required")
	}
	key := DashboardCacheKey(schoolID)
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary, err := s.compose(ctx, schoolID)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context, schoolID string) (*models.DashboardSummary, error) {
	now := s.now()
	summary := &models.DashboardSummary{SchoolID: schoolID, GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("dashboard_alerts", time.Since(start)) }()
		rows, err := s.alerts.CountActiveBySeverity(gctx, schoolID)
		summary.OpenAlertsBySeverity = rows
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("dashboard_interventions", time.Since(start)) }()
		rows, err := s.interventions.CountByStatus(gctx, schoolID)
		summary.InterventionsByStatus = rows
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("dashboard_occurrences", time.Since(start)) }()
		total, err := s.occurrences.CountSince(gctx, schoolID, now.Add(-RecentOccurrenceWindow))
		summary.RecentOccurrences = total
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("dashboard_documents", time.Since(start)) }()
		rows, err := s.documents.CountByStatus(gctx, schoolID)
		summary.DocumentsByStatus = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "failed to compose dashboard")
	}

	if summary.OpenAlertsBySeverity == nil {
		summary.OpenAlertsBySeverity = []models.CountByKey{}
	}
	if summary.InterventionsByStatus == nil {
		summary.InterventionsByStatus = []models.CountByKey{}
	}
	if summary.DocumentsByStatus == nil {
		summary.DocumentsByStatus = []models.CountByKey{}
	}
	return summary, nil
}
