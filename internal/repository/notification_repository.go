package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniportal/portal-api/internal/models"
)

// NotificationRepository provides persistence for the in-app feed.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends a single notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, recipient_user_id, title, message, read, created_at)
VALUES (:id, :recipient_user_id, :title, :message, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// CreateBatch appends one notification per recipient in a single
// statement. No deduplication is performed.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.NewString()
		}
		if notifications[i].CreatedAt.IsZero() {
			notifications[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO notifications (id, recipient_user_id, title, message, read, created_at)
VALUES (:id, :recipient_user_id, :title, :message, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notifications); err != nil {
		return fmt.Errorf("create notifications batch: %w", err)
	}
	return nil
}

// ListUnread returns a user's unread notifications, newest first.
func (r *NotificationRepository) ListUnread(ctx context.Context, userID int64) ([]models.Notification, error) {
	const query = `SELECT id, recipient_user_id, title, message, read, created_at
FROM notifications WHERE recipient_user_id = $1 AND read = FALSE ORDER BY created_at DESC`
	var rows []models.Notification
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	return rows, nil
}

// MarkAllRead flips every unread notification of the user to read and
// returns how many were affected.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	const query = `UPDATE notifications SET read = TRUE WHERE recipient_user_id = $1 AND read = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}
