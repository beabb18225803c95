package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uniportal/portal-api/internal/dto"
	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	ListUnread(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type recipientLister interface {
	ListIDsByTypes(ctx context.Context, types ...models.UserType) ([]int64, error)
}

type broadcastPayload struct {
	Title   string
	Message string
	Types   []models.UserType
}

// NotificationService appends feed entries and fans announcements out to
// whole audience groups through the background queue.
type NotificationService struct {
	repo    notificationRepository
	users   recipientLister
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. Call StartQueue before
// broadcasting.
func NewNotificationService(repo notificationRepository, users recipientLister, opts jobs.Options, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, users: users, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handleBroadcast, opts)
	return s
}

// WithMetrics attaches broadcast instrumentation. Optional.
func (s *NotificationService) WithMetrics(m *MetricsService) *NotificationService {
	s.metrics = m
	return s
}

// StartQueue launches the fan-out workers.
func (s *NotificationService) StartQueue(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopQueue stops the fan-out workers and waits for them to exit.
func (s *NotificationService) StopQueue() {
	s.queue.Stop()
}

// Notify appends a single feed entry. Failures are logged, not returned;
// a lost notification must never fail the operation that triggered it.
func (s *NotificationService) Notify(ctx context.Context, recipientID int64, title, message string) {
	n := &models.Notification{RecipientID: recipientID, Title: title, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to create notification",
			zap.Int64("recipient_id", recipientID), zap.String("title", title), zap.Error(err))
	}
}

// Broadcast enqueues a fan-out of the announcement to every user of the
// given types. Delivery happens on the worker pool.
func (s *NotificationService) Broadcast(title, message string, types ...models.UserType) {
	if len(types) == 0 {
		types = []models.UserType{models.UserTypeStudent, models.UserTypeGraduate}
	}
	err := s.queue.Enqueue(jobs.Job{
		Type:    "broadcast",
		Payload: broadcastPayload{Title: title, Message: message, Types: types},
	})
	if err != nil {
		s.logger.Error("failed to enqueue broadcast", zap.String("title", title), zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveBroadcast()
	}
}

func (s *NotificationService) handleBroadcast(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(broadcastPayload)
	if !ok {
		return fmt.Errorf("unexpected broadcast payload %T", job.Payload)
	}
	ids, err := s.users.ListIDsByTypes(ctx, payload.Types...)
	if err != nil {
		return fmt.Errorf("resolve broadcast recipients: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	batch := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, models.Notification{
			RecipientID: id,
			Title:       payload.Title,
			Message:     payload.Message,
		})
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("persist broadcast batch: %w", err)
	}
	s.logger.Info("broadcast delivered", zap.String("title", payload.Title), zap.Int("recipients", len(ids)))
	return nil
}

// Feed returns the caller's unread notifications, newest first. Reading
// the feed does not mark anything as read.
func (s *NotificationService) Feed(ctx context.Context, userID int64) ([]dto.NotificationView, error) {
	rows, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	views := make([]dto.NotificationView, 0, len(rows))
	for _, n := range rows {
		views = append(views, dto.NotificationView{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return views, nil
}

// MarkAllRead flips the caller's unread notifications and returns how
// many were affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return n, nil
}
