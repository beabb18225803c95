package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/portal-api/internal/models"
)

// NewsRepository provides persistence for news items.
type NewsRepository struct {
	db *sqlx.DB
}

// NewNewsRepository creates the repository.
func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// List returns all news items, newest first.
func (r *NewsRepository) List(ctx context.Context) ([]models.News, error) {
	const query = `SELECT id, title, content, image, created_at, updated_at FROM news ORDER BY created_at DESC`
	var rows []models.News
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	return rows, nil
}

// ListLatest returns the newest items up to the given limit.
func (r *NewsRepository) ListLatest(ctx context.Context, limit int) ([]models.News, error) {
	const query = `SELECT id, title, content, image, created_at, updated_at FROM news ORDER BY created_at DESC LIMIT $1`
	var rows []models.News
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list latest news: %w", err)
	}
	return rows, nil
}

// GetByID returns one news item.
func (r *NewsRepository) GetByID(ctx context.Context, id int64) (*models.News, error) {
	const query = `SELECT id, title, content, image, created_at, updated_at FROM news WHERE id = $1 LIMIT 1`
	var item models.News
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find news by id: %w", err)
	}
	return &item, nil
}

// Create inserts a new news item.
func (r *NewsRepository) Create(ctx context.Context, item *models.News) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO news (title, content, image, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, item.Title, item.Content, item.Image, item.CreatedAt, item.UpdatedAt).Scan(&item.ID); err != nil {
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}

// Update modifies an existing news item.
func (r *NewsRepository) Update(ctx context.Context, item *models.News) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE news SET title = :title, content = :content, image = :image, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return nil
}

// Delete removes a news item.
func (r *NewsRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
