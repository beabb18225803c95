package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type graduateRepository interface {
	List(ctx context.Context) ([]models.Graduate, error)
	GetByID(ctx context.Context, id int64) (*models.Graduate, error)
}

// GraduateService serves the public alumni directory.
type GraduateService struct {
	repo   graduateRepository
	assets receiptStore
	logger *zap.Logger
}

// NewGraduateService constructs the service.
func NewGraduateService(repo graduateRepository, assets receiptStore, logger *zap.Logger) *GraduateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraduateService{repo: repo, assets: assets, logger: logger}
}

// List returns the directory with resolved photo URLs.
func (s *GraduateService) List(ctx context.Context) ([]models.Graduate, error) {
	grads, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list graduates")
	}
	for i := range grads {
		s.resolvePhoto(&grads[i])
	}
	return grads, nil
}

// Get returns one directory entry.
func (s *GraduateService) Get(ctx context.Context, id int64) (*models.Graduate, error) {
	grad, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "graduate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graduate")
	}
	s.resolvePhoto(grad)
	return grad, nil
}

func (s *GraduateService) resolvePhoto(g *models.Graduate) {
	if g.Photo != nil && *g.Photo != "" {
		url := s.assets.URL(*g.Photo)
		g.Photo = &url
	}
}
