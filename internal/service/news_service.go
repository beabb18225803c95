package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniportal/portal-api/internal/dto"
	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type newsRepository interface {
	List(ctx context.Context) ([]models.News, error)
	GetByID(ctx context.Context, id int64) (*models.News, error)
	Create(ctx context.Context, item *models.News) error
	Update(ctx context.Context, item *models.News) error
	Delete(ctx context.Context, id int64) error
}

type contentBroadcaster interface {
	Broadcast(title, message string, types ...models.UserType)
}

// NewsInput is the admin payload for a news item. Image is optional.
type NewsInput struct {
	Title     string `validate:"required,max=255"`
	Content   string `validate:"required"`
	Image     io.Reader
	ImageName string
}

// NewsService handles publishing and maintenance of news items.
type NewsService struct {
	repo      newsRepository
	assets    receiptStore
	broadcast contentBroadcaster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsService constructs the service.
func NewNewsService(repo newsRepository, assets receiptStore, broadcast contentBroadcaster, validate *validator.Validate, logger *zap.Logger) *NewsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &NewsService{repo: repo, assets: assets, broadcast: broadcast, validator: validate, logger: logger}
}

// List returns all news items with resolved image URLs.
func (s *NewsService) List(ctx context.Context) ([]dto.NewsView, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list news")
	}
	return s.project(items), nil
}

// Get returns one news item.
func (s *NewsService) Get(ctx context.Context, id int64) (*dto.NewsView, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "news item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load news item")
	}
	view := s.projectOne(*item)
	return &view, nil
}

// Create publishes a news item and broadcasts it to students and
// graduates.
func (s *NewsService) Create(ctx context.Context, in NewsInput) (*dto.NewsView, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid news payload")
	}

	item := &models.News{Title: strings.TrimSpace(in.Title), Content: in.Content}
	if in.Image != nil {
		path, err := s.assets.Store("news", in.ImageName, in.Image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store news image")
		}
		item.Image = &path
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if item.Image != nil {
			s.assets.Delete(*item.Image)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create news item")
	}

	s.broadcast.Broadcast("New announcement: "+item.Title, item.Content)
	view := s.projectOne(*item)
	return &view, nil
}

// Update edits an existing news item. A new image replaces and removes
// the previous one.
func (s *NewsService) Update(ctx context.Context, id int64, in NewsInput) (*dto.NewsView, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid news payload")
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "news item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load news item")
	}

	previous := item.Image
	item.Title = strings.TrimSpace(in.Title)
	item.Content = in.Content
	if in.Image != nil {
		path, err := s.assets.Store("news", in.ImageName, in.Image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store news image")
		}
		item.Image = &path
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if in.Image != nil && item.Image != nil {
			s.assets.Delete(*item.Image)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update news item")
	}
	if in.Image != nil && previous != nil && !s.assets.Delete(*previous) {
		s.logger.Warn("failed to delete previous news image", zap.String("path", *previous))
	}

	view := s.projectOne(*item)
	return &view, nil
}

// Delete removes a news item and, best-effort, its image.
func (s *NewsService) Delete(ctx context.Context, id int64) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "news item not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load news item")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete news item")
	}
	if item.Image != nil && !s.assets.Delete(*item.Image) {
		s.logger.Warn("failed to delete news image", zap.String("path", *item.Image))
	}
	return nil
}

func (s *NewsService) project(items []models.News) []dto.NewsView {
	views := make([]dto.NewsView, 0, len(items))
	for _, item := range items {
		views = append(views, s.projectOne(item))
	}
	return views
}

func (s *NewsService) projectOne(item models.News) dto.NewsView {
	var image *string
	if item.Image != nil && *item.Image != "" {
		url := s.assets.URL(*item.Image)
		image = &url
	}
	return dto.NewsView{
		ID:        item.ID,
		Title:     item.Title,
		Content:   item.Content,
		Image:     image,
		CreatedAt: item.CreatedAt,
	}
}
