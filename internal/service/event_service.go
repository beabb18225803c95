package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniportal/portal-api/internal/dto"
	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Create(ctx context.Context, item *models.Event) error
	Update(ctx context.Context, item *models.Event) error
	Delete(ctx context.Context, id int64) error
}

// EventInput is the admin payload for a campus event.
type EventInput struct {
	Title       string `validate:"required,max=255"`
	Description string `validate:"required"`
	StartTime   string `validate:"required"`
	Image       io.Reader
	ImageName   string
}

// EventService handles publishing and maintenance of campus events.
type EventService struct {
	repo      eventRepository
	assets    receiptStore
	broadcast contentBroadcaster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, assets receiptStore, broadcast contentBroadcaster, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{repo: repo, assets: assets, broadcast: broadcast, validator: validate, logger: logger}
}

// List returns all events, upcoming first.
func (s *EventService) List(ctx context.Context) ([]dto.EventView, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return s.project(items), nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id int64) (*dto.EventView, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	view := s.projectOne(*item)
	return &view, nil
}

// Create publishes an event and broadcasts it to students and graduates.
func (s *EventService) Create(ctx context.Context, in EventInput) (*dto.EventView, error) {
	item, err := s.build(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if item.Image != nil {
			s.assets.Delete(*item.Image)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.broadcast.Broadcast("New event: "+item.Title, item.Description)
	view := s.projectOne(*item)
	return &view, nil
}

// Update edits an existing event. A new image replaces and removes the
// previous one.
func (s *EventService) Update(ctx context.Context, id int64, in EventInput) (*dto.EventView, error) {
	updated, err := s.build(in)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if updated.Image != nil {
				s.assets.Delete(*updated.Image)
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	previous := item.Image
	item.Title = updated.Title
	item.Description = updated.Description
	item.StartTime = updated.StartTime
	if updated.Image != nil {
		item.Image = updated.Image
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if updated.Image != nil {
			s.assets.Delete(*updated.Image)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	if updated.Image != nil && previous != nil && !s.assets.Delete(*previous) {
		s.logger.Warn("failed to delete previous event image", zap.String("path", *previous))
	}

	view := s.projectOne(*item)
	return &view, nil
}

// Delete removes an event and, best-effort, its image.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	if item.Image != nil && !s.assets.Delete(*item.Image) {
		s.logger.Warn("failed to delete event image", zap.String("path", *item.Image))
	}
	return nil
}

func (s *EventService) build(in EventInput) (*models.Event, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	start, err := parseEventTime(in.StartTime)
	if err != nil {
		return nil, appErrors.Validation(map[string][]string{
			"start_time": {"the start time must be a valid date or datetime"},
		})
	}

	item := &models.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartTime:   start,
	}
	if in.Image != nil {
		path, err := s.assets.Store("events", in.ImageName, in.Image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store event image")
		}
		item.Image = &path
	}
	return item, nil
}

func parseEventTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.New("unrecognised time format")
}

func (s *EventService) project(items []models.Event) []dto.EventView {
	views := make([]dto.EventView, 0, len(items))
	for _, item := range items {
		views = append(views, s.projectOne(item))
	}
	return views
}

func (s *EventService) projectOne(item models.Event) dto.EventView {
	var image *string
	if item.Image != nil && *item.Image != "" {
		url := s.assets.URL(*item.Image)
		image = &url
	}
	return dto.EventView{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		StartTime:   item.StartTime,
		Image:       image,
		CreatedAt:   item.CreatedAt,
	}
}
