package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/models"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context, filter models.AcademicTermFilter) ([]models.AcademicTerm, int, error)
	GetByID(ctx context.Context, id string) (*models.AcademicTerm, error)
	Create(ctx context.Context, term *models.AcademicTerm) error
	Update(ctx context.Context, term *models.AcademicTerm) error
	Delete(ctx context.Context, id string) error
}

// TermRequest holds payload for creating and updating academic terms.
type TermRequest struct {
	AcademicYear string    `json:"academic_year" validate:"required"`
	Term         int       `json:"term" validate:"required,min=1,max=3"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	EndDate      time.Time `json:"end_date" validate:"required"`
}

// TermService manages academic term windows.
type TermService struct {
	repo      termRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermService constructs the term service.
func NewTermService(repo termRepository, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, validator: validate, logger: logger}
}

// List returns term windows and pagination metadata.
func (s *TermService) List(ctx context.Context, filter models.AcademicTermFilter) ([]models.AcademicTerm, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic terms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return terms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one term window.
func (s *TermService) Get(ctx context.Context, id string) (*models.AcademicTerm, error) {
	term, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic term")
	}
	return term, nil
}

// Create registers a term window.
func (s *TermService) Create(ctx context.Context, req TermRequest) (*models.AcademicTerm, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	term := &models.AcademicTerm{
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := s.repo.Create(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic term")
	}
	return term, nil
}

// Update modifies a term window.
func (s *TermService) Update(ctx context.Context, id string, req TermRequest) (*models.AcademicTerm, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	term, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	term.AcademicYear = req.AcademicYear
	term.Term = req.Term
	term.StartDate = req.StartDate
	term.EndDate = req.EndDate
	if err := s.repo.Update(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic term")
	}
	return term, nil
}

// Delete removes a term window.
func (s *TermService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic term")
	}
	return nil
}

func (s *TermService) validateRequest(req TermRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic term payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}
	return nil
}
