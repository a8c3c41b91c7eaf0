package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/models"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
)

type holidayRepository interface {
	List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Update(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

// HolidayRequest holds payload for creating and updating holidays.
type HolidayRequest struct {
	Date time.Time `json:"date" validate:"required"`
	Name string    `json:"name" validate:"required"`
}

// HolidayService manages the non-working-day calendar.
type HolidayService struct {
	repo      holidayRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs the holiday service.
func NewHolidayService(repo holidayRepository, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, validator: validate, logger: logger}
}

// List returns holidays and pagination metadata.
func (s *HolidayService) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, *models.Pagination, error) {
	holidays, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return holidays, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create adds a holiday.
func (s *HolidayService) Create(ctx context.Context, req HolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	holiday := &models.Holiday{Date: req.Date, Name: req.Name}
	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	return holiday, nil
}

// Update modifies a holiday.
func (s *HolidayService) Update(ctx context.Context, id string, req HolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	holiday := &models.Holiday{ID: id, Date: req.Date, Name: req.Name}
	if err := s.repo.Update(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update holiday")
	}
	return holiday, nil
}

// Delete removes a holiday.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	return nil
}
