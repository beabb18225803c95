package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/portal-api/internal/models"
)

// RequestTypeRepository provides persistence for the request catalog.
type RequestTypeRepository struct {
	db *sqlx.DB
}

// NewRequestTypeRepository creates the repository.
func NewRequestTypeRepository(db *sqlx.DB) *RequestTypeRepository {
	return &RequestTypeRepository{db: db}
}

// List returns all catalog entries, newest first.
func (r *RequestTypeRepository) List(ctx context.Context) ([]models.RequestType, error) {
	const query = `SELECT id, name, price, description, category, created_at, updated_at FROM request_types ORDER BY created_at DESC`
	var types []models.RequestType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list request types: %w", err)
	}
	return types, nil
}

// GetByID returns a catalog entry by identifier.
func (r *RequestTypeRepository) GetByID(ctx context.Context, id int64) (*models.RequestType, error) {
	const query = `SELECT id, name, price, description, category, created_at, updated_at FROM request_types WHERE id = $1 LIMIT 1`
	var rt models.RequestType
	if err := r.db.GetContext(ctx, &rt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find request type by id: %w", err)
	}
	return &rt, nil
}

// Create inserts a new catalog entry.
func (r *RequestTypeRepository) Create(ctx context.Context, rt *models.RequestType) error {
	now := time.Now().UTC()
	rt.CreatedAt = now
	rt.UpdatedAt = now
	const query = `INSERT INTO request_types (name, price, description, category, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		rt.Name, rt.Price, rt.Description, rt.Category, rt.CreatedAt, rt.UpdatedAt,
	).Scan(&rt.ID); err != nil {
		return fmt.Errorf("create request type: %w", err)
	}
	return nil
}

// Update modifies an existing catalog entry.
func (r *RequestTypeRepository) Update(ctx context.Context, rt *models.RequestType) error {
	rt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE request_types SET name = :name, price = :price, description = :description, category = :category, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rt)
	if err != nil {
		return fmt.Errorf("update request type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a catalog entry.
func (r *RequestTypeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM request_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
