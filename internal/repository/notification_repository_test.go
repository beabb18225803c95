package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/portal-api/internal/models"
)

func TestNotificationCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))

	n := &models.Notification{RecipientID: 20231001, Title: "Request approved", Message: "Your enrollment proof is ready."}
	err := repo.Create(context.Background(), n)
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCreateBatchEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	err := repo.CreateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCreateBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 2))

	batch := []models.Notification{
		{RecipientID: 1, Title: "News", Message: "New article published."},
		{RecipientID: 2, Title: "News", Message: "New article published."},
	}
	err := repo.CreateBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.NotEmpty(t, batch[0].ID)
	assert.NotEmpty(t, batch[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationListUnread(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "recipient_user_id", "title", "message", "read", "created_at"}).
		AddRow("n-1", int64(20231001), "Request approved", "Ready for pickup.", false, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE recipient_user_id = $1 AND read = FALSE ORDER BY created_at DESC")).
		WithArgs(int64(20231001)).
		WillReturnRows(rows)

	items, err := repo.ListUnread(context.Background(), 20231001)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Read)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkAllRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE recipient_user_id = $1 AND read = FALSE")).
		WithArgs(int64(20231001)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkAllRead(context.Background(), 20231001)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
