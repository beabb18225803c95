package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/portal-api/internal/models"
	"github.com/uniportal/portal-api/internal/repository"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type mockCounter struct {
	counts repository.StatusCounts
}

func (m *mockCounter) CountByStatus(ctx context.Context) (*repository.StatusCounts, error) {
	c := m.counts
	return &c, nil
}

type mockEventLister struct {
	events []models.Event
	calls  []int
}

func (m *mockEventLister) ListLatest(ctx context.Context, limit int) ([]models.Event, error) {
	m.calls = append(m.calls, limit)
	if len(m.events) > limit {
		return m.events[:limit], nil
	}
	return m.events, nil
}

type mockNewsLister struct {
	news  []models.News
	calls []int
}

func (m *mockNewsLister) ListLatest(ctx context.Context, limit int) ([]models.News, error) {
	m.calls = append(m.calls, limit)
	if len(m.news) > limit {
		return m.news[:limit], nil
	}
	return m.news, nil
}

type memoryCache struct {
	values map[string][]byte
	sets   int
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = map[string][]byte{}
	}
	m.values[key] = raw
	m.sets++
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

func newDashboardFixture(counts repository.StatusCounts, cache dashboardCache) (*DashboardService, *mockEventLister, *mockNewsLister) {
	events := &mockEventLister{events: []models.Event{
		{ID: 1, Title: "Open Day", StartTime: time.Now()},
		{ID: 2, Title: "Career Fair", StartTime: time.Now()},
		{ID: 3, Title: "Hackathon", StartTime: time.Now()},
	}}
	news := &mockNewsLister{news: []models.News{
		{ID: 1, Title: "New Lab"},
		{ID: 2, Title: "Semester Dates"},
	}}
	assets := &mockAssets{}
	eventSvc := NewEventService(nil, assets, nil, nil, nil)
	newsSvc := NewNewsService(nil, assets, nil, nil, nil)
	svc := NewDashboardService(&mockCounter{counts: counts}, events, news, eventSvc, newsSvc, cache, time.Minute, nil)
	return svc, events, news
}

func TestAdminDashboardPercentages(t *testing.T) {
	svc, events, _ := newDashboardFixture(repository.StatusCounts{Total: 8, Pending: 4, Approved: 3, Rejected: 1}, nil)

	resp, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, resp.Stats.PendingPercentage)
	assert.Equal(t, 38, resp.Stats.AcceptedPercentage)
	assert.Equal(t, 13, resp.Stats.RejectedPercentage)
	assert.Len(t, resp.Events, 2)
	assert.Equal(t, []int{2}, events.calls)
}

func TestAdminDashboardEmptyTable(t *testing.T) {
	svc, _, _ := newDashboardFixture(repository.StatusCounts{}, nil)

	resp, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Stats.PendingPercentage)
	assert.Equal(t, 0, resp.Stats.AcceptedPercentage)
	assert.Equal(t, 0, resp.Stats.RejectedPercentage)
}

func TestAdminDashboardServedFromCache(t *testing.T) {
	cache := &memoryCache{}
	svc, events, _ := newDashboardFixture(repository.StatusCounts{Total: 2, Pending: 2}, cache)

	_, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	_, err = svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, []int{2}, events.calls)
}

func TestRefreshDropsCachedDashboard(t *testing.T) {
	cache := &memoryCache{}
	svc, _, _ := newDashboardFixture(repository.StatusCounts{Total: 2, Pending: 2}, cache)

	_, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	require.NoError(t, svc.Refresh(context.Background()))

	_, err = svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets)
}

func TestStudentHomeLimits(t *testing.T) {
	svc, events, news := newDashboardFixture(repository.StatusCounts{}, nil)

	resp, err := svc.StudentHome(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp.Events, 3)
	assert.Len(t, resp.News, 2)
	assert.Equal(t, []int{3}, events.calls)
	assert.Equal(t, []int{2}, news.calls)
}
