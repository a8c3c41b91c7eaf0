package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/models"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
)

type committeeRepository interface {
	List(ctx context.Context, filter models.CommitteeFilter) ([]models.Committee, int, error)
	GetByID(ctx context.Context, id string) (*models.Committee, error)
	Create(ctx context.Context, committee *models.Committee) error
	Update(ctx context.Context, committee *models.Committee) error
	Delete(ctx context.Context, id string) error
}

type slaConfigRepository interface {
	ListByCommittee(ctx context.Context, committeeID string, activeOnly bool) ([]models.SLAConfig, error)
	GetByID(ctx context.Context, id string) (*models.SLAConfig, error)
	Create(ctx context.Context, config *models.SLAConfig) error
	Update(ctx context.Context, config *models.SLAConfig) error
	Delete(ctx context.Context, id string) error
}

// CommitteeRequest holds payload for creating and updating committees.
type CommitteeRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// SLAConfigRequest holds payload for working-day targets. ReviewType is
// optional; omitted means the target applies regardless of review type.
type SLAConfigRequest struct {
	Stage       models.SLAStage    `json:"stage" validate:"required,sla_stage"`
	ReviewType  *models.ReviewType `json:"review_type" validate:"omitempty,review_type"`
	WorkingDays int                `json:"working_days" validate:"required,min=1"`
	IsActive    *bool              `json:"is_active"`
	Description string             `json:"description"`
}

// CommitteeService handles committee and SLA target use-cases.
type CommitteeService struct {
	repo      committeeRepository
	configs   slaConfigRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommitteeService constructs the committee service.
func NewCommitteeService(repo committeeRepository, configs slaConfigRepository, validate *validator.Validate, logger *zap.Logger) *CommitteeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CommitteeService{repo: repo, configs: configs, validator: validate, logger: logger}
	svc.validator.RegisterValidation("sla_stage", func(fl validator.FieldLevel) bool {
		return models.SLAStage(fl.Field().String()).Valid()
	})
	svc.validator.RegisterValidation("review_type", func(fl validator.FieldLevel) bool {
		return models.ReviewType(fl.Field().String()).Valid()
	})
	return svc
}

// List returns committees and pagination metadata.
func (s *CommitteeService) List(ctx context.Context, filter models.CommitteeFilter) ([]models.Committee, *models.Pagination, error) {
	committees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list committees")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return committees, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one committee.
func (s *CommitteeService) Get(ctx context.Context, id string) (*models.Committee, error) {
	committee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "committee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee")
	}
	return committee, nil
}

// Create registers a committee.
func (s *CommitteeService) Create(ctx context.Context, req CommitteeRequest) (*models.Committee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid committee payload")
	}
	committee := &models.Committee{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		committee.IsActive = *req.IsActive
	}
	if err := s.repo.Create(ctx, committee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create committee")
	}
	return committee, nil
}

// Update modifies a committee.
func (s *CommitteeService) Update(ctx context.Context, id string, req CommitteeRequest) (*models.Committee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid committee payload")
	}
	committee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	committee.Code = req.Code
	committee.Name = req.Name
	committee.Description = req.Description
	if req.IsActive != nil {
		committee.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, committee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update committee")
	}
	return committee, nil
}

// Delete removes a committee.
func (s *CommitteeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete committee")
	}
	return nil
}

// ListSLAConfigs returns the committee's working-day targets.
func (s *CommitteeService) ListSLAConfigs(ctx context.Context, committeeID string, activeOnly bool) ([]models.SLAConfig, error) {
	if _, err := s.Get(ctx, committeeID); err != nil {
		return nil, err
	}
	configs, err := s.configs.ListByCommittee(ctx, committeeID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sla targets")
	}
	return configs, nil
}

// CreateSLAConfig adds a working-day target to a committee.
func (s *CommitteeService) CreateSLAConfig(ctx context.Context, committeeID string, req SLAConfigRequest) (*models.SLAConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sla target payload")
	}
	if _, err := s.Get(ctx, committeeID); err != nil {
		return nil, err
	}
	config := &models.SLAConfig{
		CommitteeID: committeeID,
		Stage:       req.Stage,
		ReviewType:  req.ReviewType,
		WorkingDays: req.WorkingDays,
		IsActive:    true,
		Description: req.Description,
	}
	if req.IsActive != nil {
		config.IsActive = *req.IsActive
	}
	if err := s.configs.Create(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sla target")
	}
	return config, nil
}

// UpdateSLAConfig modifies a working-day target.
func (s *CommitteeService) UpdateSLAConfig(ctx context.Context, committeeID, configID string, req SLAConfigRequest) (*models.SLAConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sla target payload")
	}
	config, err := s.getSLAConfig(ctx, committeeID, configID)
	if err != nil {
		return nil, err
	}
	config.Stage = req.Stage
	config.ReviewType = req.ReviewType
	config.WorkingDays = req.WorkingDays
	config.Description = req.Description
	if req.IsActive != nil {
		config.IsActive = *req.IsActive
	}
	if err := s.configs.Update(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sla target")
	}
	return config, nil
}

// DeleteSLAConfig removes a working-day target.
func (s *CommitteeService) DeleteSLAConfig(ctx context.Context, committeeID, configID string) error {
	if _, err := s.getSLAConfig(ctx, committeeID, configID); err != nil {
		return err
	}
	if err := s.configs.Delete(ctx, configID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sla target")
	}
	return nil
}

func (s *CommitteeService) getSLAConfig(ctx context.Context, committeeID, configID string) (*models.SLAConfig, error) {
	config, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sla target not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sla target")
	}
	if config.CommitteeID != committeeID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "sla target not found")
	}
	return config, nil
}
