package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/portal-api/internal/models"
)

// EventRepository provides persistence for campus events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns all events ordered by start time, newest first.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	const query = `SELECT id, title, description, start_time, image, created_at, updated_at FROM events ORDER BY start_time DESC`
	var rows []models.Event
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return rows, nil
}

// ListLatest returns the most recently created events up to the limit.
func (r *EventRepository) ListLatest(ctx context.Context, limit int) ([]models.Event, error) {
	const query = `SELECT id, title, description, start_time, image, created_at, updated_at FROM events ORDER BY created_at DESC LIMIT $1`
	var rows []models.Event
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list latest events: %w", err)
	}
	return rows, nil
}

// GetByID returns one event.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	const query = `SELECT id, title, description, start_time, image, created_at, updated_at FROM events WHERE id = $1 LIMIT 1`
	var item models.Event
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	return &item, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, item *models.Event) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO events (title, description, start_time, image, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, item.Title, item.Description, item.StartTime, item.Image, item.CreatedAt, item.UpdatedAt).Scan(&item.ID); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, item *models.Event) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, start_time = :start_time, image = :image, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
