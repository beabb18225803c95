package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/uniportal/portal-api/internal/models"
	"github.com/uniportal/portal-api/internal/repository"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type faqRepository interface {
	ListQuestions(ctx context.Context) ([]repository.FaqQuestion, error)
	GetByID(ctx context.Context, id int64) (*models.Faq, error)
}

// FaqService backs the chatbot question list and answer lookup.
type FaqService struct {
	repo   faqRepository
	logger *zap.Logger
}

// NewFaqService constructs the service.
func NewFaqService(repo faqRepository, logger *zap.Logger) *FaqService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FaqService{repo: repo, logger: logger}
}

// Questions returns every question without its answer.
func (s *FaqService) Questions(ctx context.Context) ([]repository.FaqQuestion, error) {
	questions, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	return questions, nil
}

// Answer returns the full question/answer pair.
func (s *FaqService) Answer(ctx context.Context, id int64) (*models.Faq, error) {
	faq, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	return faq, nil
}
