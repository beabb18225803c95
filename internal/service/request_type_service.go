package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type requestTypeRepository interface {
	List(ctx context.Context) ([]models.RequestType, error)
	GetByID(ctx context.Context, id int64) (*models.RequestType, error)
	Create(ctx context.Context, rt *models.RequestType) error
	Update(ctx context.Context, rt *models.RequestType) error
	Delete(ctx context.Context, id int64) error
}

// RequestTypeInput is the admin payload for catalog entries.
type RequestTypeInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Price       string  `json:"price" validate:"required"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Category    string  `json:"category" validate:"required,oneof=standard graduation_certificate"`
}

// RequestTypeService manages the priced request catalog.
type RequestTypeService struct {
	repo      requestTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestTypeService constructs the service.
func NewRequestTypeService(repo requestTypeRepository, validate *validator.Validate, logger *zap.Logger) *RequestTypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RequestTypeService{repo: repo, validator: validate, logger: logger}
}

// List returns the catalog, newest first.
func (s *RequestTypeService) List(ctx context.Context) ([]models.RequestType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list request types")
	}
	return types, nil
}

// Get returns a single catalog entry.
func (s *RequestTypeService) Get(ctx context.Context, id int64) (*models.RequestType, error) {
	rt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request type")
	}
	return rt, nil
}

// Create adds a catalog entry.
func (s *RequestTypeService) Create(ctx context.Context, in RequestTypeInput) (*models.RequestType, error) {
	rt, err := s.build(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request type")
	}
	s.logger.Info("request type created", zap.Int64("id", rt.ID), zap.String("name", rt.Name))
	return rt, nil
}

// Update replaces an existing catalog entry.
func (s *RequestTypeService) Update(ctx context.Context, id int64, in RequestTypeInput) (*models.RequestType, error) {
	rt, err := s.build(in)
	if err != nil {
		return nil, err
	}
	rt.ID = id
	if err := s.repo.Update(ctx, rt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request type")
	}
	return rt, nil
}

// Delete removes a catalog entry. Existing requests keep their frozen
// price and joined name until they are deleted themselves.
func (s *RequestTypeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request type")
	}
	return nil
}

func (s *RequestTypeService) build(in RequestTypeInput) (*models.RequestType, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request type payload")
	}
	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return nil, appErrors.Validation(map[string][]string{
			"price": {"the price must be a non-negative decimal number"},
		})
	}
	return &models.RequestType{
		Name:        in.Name,
		Price:       price,
		Description: in.Description,
		Category:    models.RequestTypeCategory(in.Category),
	}, nil
}
