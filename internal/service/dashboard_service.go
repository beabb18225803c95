package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/uniportal/portal-api/internal/dto"
	"github.com/uniportal/portal-api/internal/models"
	"github.com/uniportal/portal-api/internal/repository"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type requestCounter interface {
	CountByStatus(ctx context.Context) (*repository.StatusCounts, error)
}

type latestEventLister interface {
	ListLatest(ctx context.Context, limit int) ([]models.Event, error)
}

type latestNewsLister interface {
	ListLatest(ctx context.Context, limit int) ([]models.News, error)
}

const dashboardCacheKey = "dashboard:admin"

// DashboardService assembles the admin dashboard and student home
// payloads.
type DashboardService struct {
	counts   requestCounter
	events   latestEventLister
	news     latestNewsLister
	projects *EventService
	newsView *NewsService
	cache    dashboardCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs the service. The event and news
// services are reused for their image URL projection.
func NewDashboardService(counts requestCounter, events latestEventLister, news latestNewsLister, eventSvc *EventService, newsSvc *NewsService, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		counts:   counts,
		events:   events,
		news:     news,
		projects: eventSvc,
		newsView: newsSvc,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Admin returns the dashboard payload, served from cache when fresh.
func (s *DashboardService) Admin(ctx context.Context) (*dto.DashboardResponse, error) {
	if s.cache != nil {
		var cached dto.DashboardResponse
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	counts, err := s.counts.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests")
	}
	events, err := s.events.ListLatest(ctx, 2)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest events")
	}

	// An empty table still yields well-defined zero percentages.
	total := counts.Total
	if total < 1 {
		total = 1
	}
	resp := &dto.DashboardResponse{
		Events: s.projects.project(events),
		Stats: dto.DashboardStats{
			PendingPercentage:  percentage(counts.Pending, total),
			AcceptedPercentage: percentage(counts.Approved, total),
			RejectedPercentage: percentage(counts.Rejected, total),
		},
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// Refresh drops the cached dashboard so the next read recomputes it.
// Used by admins after bulk changes instead of waiting out the TTL.
func (s *DashboardService) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear dashboard cache")
	}
	return nil
}

// StudentHome returns the student landing page payload.
func (s *DashboardService) StudentHome(ctx context.Context) (*dto.StudentHomeResponse, error) {
	events, err := s.events.ListLatest(ctx, 3)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest events")
	}
	news, err := s.news.ListLatest(ctx, 2)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest news")
	}
	return &dto.StudentHomeResponse{
		Events: s.projects.project(events),
		News:   s.newsView.project(news),
	}, nil
}

func percentage(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
