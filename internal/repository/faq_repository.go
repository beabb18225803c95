package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/portal-api/internal/models"
)

// FaqQuestion is the question-only projection served to the chatbot.
type FaqQuestion struct {
	ID       int64  `db:"id" json:"id"`
	Question string `db:"question" json:"question"`
}

// FaqRepository provides persistence for chatbot FAQ entries.
type FaqRepository struct {
	db *sqlx.DB
}

// NewFaqRepository creates the repository.
func NewFaqRepository(db *sqlx.DB) *FaqRepository {
	return &FaqRepository{db: db}
}

// ListQuestions returns all questions without answers, newest first.
func (r *FaqRepository) ListQuestions(ctx context.Context) ([]FaqQuestion, error) {
	const query = `SELECT id, question FROM faqs ORDER BY created_at DESC`
	var rows []FaqQuestion
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list faq questions: %w", err)
	}
	return rows, nil
}

// GetByID returns one FAQ entry including its answer.
func (r *FaqRepository) GetByID(ctx context.Context, id int64) (*models.Faq, error) {
	const query = `SELECT id, question, answer, created_at FROM faqs WHERE id = $1 LIMIT 1`
	var faq models.Faq
	if err := r.db.GetContext(ctx, &faq, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faq by id: %w", err)
	}
	return &faq, nil
}
