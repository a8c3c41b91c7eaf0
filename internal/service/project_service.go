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

type projectRepository interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
}

type projectCommitteeRepository interface {
	GetByID(ctx context.Context, id string) (*models.Committee, error)
}

// ProjectRequest holds payload for creating and updating projects.
type ProjectRequest struct {
	CommitteeID       string                   `json:"committee_id" validate:"required"`
	Code              string                   `json:"code" validate:"required"`
	Title             string                   `json:"title" validate:"required"`
	PIName            string                   `json:"pi_name" validate:"required"`
	PIAffiliation     string                   `json:"pi_affiliation"`
	CollegeOrUnit     string                   `json:"college_or_unit"`
	ProponentCategory models.ProponentCategory `json:"proponent_category" validate:"required,proponent_category"`
	ApprovalStartDate *time.Time               `json:"approval_start_date"`
	ApprovalEndDate   *time.Time               `json:"approval_end_date"`
}

// ProjectService handles research project use-cases.
type ProjectService struct {
	repo       projectRepository
	committees projectCommitteeRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewProjectService constructs the project service.
func NewProjectService(repo projectRepository, committees projectCommitteeRepository, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ProjectService{repo: repo, committees: committees, validator: validate, logger: logger}
	svc.validator.RegisterValidation("proponent_category", func(fl validator.FieldLevel) bool {
		return models.ProponentCategory(fl.Field().String()).Valid()
	})
	return svc
}

// List returns projects and pagination metadata.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	projects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return projects, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// Create registers a project under a committee.
func (s *ProjectService) Create(ctx context.Context, req ProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	if _, err := s.committees.GetByID(ctx, req.CommitteeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "committee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee")
	}
	project := &models.Project{
		CommitteeID:       req.CommitteeID,
		Code:              req.Code,
		Title:             req.Title,
		PIName:            req.PIName,
		PIAffiliation:     req.PIAffiliation,
		CollegeOrUnit:     req.CollegeOrUnit,
		ProponentCategory: req.ProponentCategory,
		ApprovalStartDate: req.ApprovalStartDate,
		ApprovalEndDate:   req.ApprovalEndDate,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	return project, nil
}

// Update modifies a project.
func (s *ProjectService) Update(ctx context.Context, id string, req ProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	project.CommitteeID = req.CommitteeID
	project.Code = req.Code
	project.Title = req.Title
	project.PIName = req.PIName
	project.PIAffiliation = req.PIAffiliation
	project.CollegeOrUnit = req.CollegeOrUnit
	project.ProponentCategory = req.ProponentCategory
	project.ApprovalStartDate = req.ApprovalStartDate
	project.ApprovalEndDate = req.ApprovalEndDate
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}
