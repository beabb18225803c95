package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/portal-api/internal/models"
)

// GraduateRepository provides persistence for the alumni directory.
type GraduateRepository struct {
	db *sqlx.DB
}

// NewGraduateRepository creates the repository.
func NewGraduateRepository(db *sqlx.DB) *GraduateRepository {
	return &GraduateRepository{db: db}
}

// List returns the full directory.
func (r *GraduateRepository) List(ctx context.Context) ([]models.Graduate, error) {
	const query = `SELECT id, name, specialized, profile, photo FROM graduates ORDER BY name`
	var rows []models.Graduate
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list graduates: %w", err)
	}
	return rows, nil
}

// GetByID returns one directory entry.
func (r *GraduateRepository) GetByID(ctx context.Context, id int64) (*models.Graduate, error) {
	const query = `SELECT id, name, specialized, profile, photo FROM graduates WHERE id = $1 LIMIT 1`
	var grad models.Graduate
	if err := r.db.GetContext(ctx, &grad, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find graduate by id: %w", err)
	}
	return &grad, nil
}
