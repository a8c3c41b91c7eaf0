package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/models"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
)

type submissionRepository interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	GetDetail(ctx context.Context, id string) (*models.SubmissionDetail, error)
	Create(ctx context.Context, submission *models.Submission, changedBy string) error
	Transition(ctx context.Context, entry *models.StatusHistoryEntry) error
	SetDecision(ctx context.Context, id string, decision models.FinalDecision, decisionDate time.Time) error
	CreateClassification(ctx context.Context, classification *models.Classification) error
}

type submissionProjectRepository interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	SetApprovalWindow(ctx context.Context, id string, start, end *time.Time) error
}

// CreateSubmissionRequest holds payload for registering a submission.
type CreateSubmissionRequest struct {
	ProjectID      string    `json:"project_id" validate:"required"`
	SequenceNumber int       `json:"sequence_number" validate:"required,min=1"`
	ReceivedDate   time.Time `json:"received_date" validate:"required"`
}

// TransitionRequest holds payload for a status transition.
type TransitionRequest struct {
	NewStatus     models.SubmissionStatus `json:"new_status" validate:"required,submission_status"`
	EffectiveDate time.Time               `json:"effective_date" validate:"required"`
	Remarks       string                  `json:"remarks"`
}

// ClassifyRequest holds payload for recording a classification outcome.
type ClassifyRequest struct {
	ReviewType         models.ReviewType `json:"review_type" validate:"required,review_type"`
	ClassificationDate time.Time         `json:"classification_date" validate:"required"`
}

// DecisionRequest holds payload for recording the final decision. The
// approval window is only applied when the decision is APPROVED.
type DecisionRequest struct {
	Decision          models.FinalDecision `json:"decision" validate:"required,final_decision"`
	DecisionDate      time.Time            `json:"decision_date" validate:"required"`
	ApprovalStartDate *time.Time           `json:"approval_start_date"`
	ApprovalEndDate   *time.Time           `json:"approval_end_date"`
}

// SubmissionService handles protocol submission use-cases.
type SubmissionService struct {
	repo      submissionRepository
	projects  submissionProjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionService constructs the submission service and registers
// its enum validations.
func NewSubmissionService(repo submissionRepository, projects submissionProjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &SubmissionService{repo: repo, projects: projects, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("submission_status", func(fl validator.FieldLevel) bool {
		return models.SubmissionStatus(fl.Field().String()).Valid()
	})
	svc.validator.RegisterValidation("review_type", func(fl validator.FieldLevel) bool {
		return models.ReviewType(fl.Field().String()).Valid()
	})
	svc.validator.RegisterValidation("final_decision", func(fl validator.FieldLevel) bool {
		return models.FinalDecision(fl.Field().String()).Valid()
	})
	return svc
}

// List returns submissions and pagination metadata.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error) {
	submissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return submissions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns the full submission snapshot.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return detail, nil
}

// Create registers a new submission in the RECEIVED state.
func (s *SubmissionService) Create(ctx context.Context, req CreateSubmissionRequest, changedBy string) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if _, err := s.projects.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	submission := &models.Submission{
		ProjectID:      req.ProjectID,
		SequenceNumber: req.SequenceNumber,
		ReceivedDate:   req.ReceivedDate,
		Status:         models.StatusReceived,
	}
	if err := s.repo.Create(ctx, submission, changedBy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	s.invalidateReports(ctx)
	return submission, nil
}

// Transition moves a submission through the lifecycle state machine.
func (s *SubmissionService) Transition(ctx context.Context, id string, req TransitionRequest, changedBy string) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if !models.CanTransition(submission.Status, req.NewStatus) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot transition from %s to %s", submission.Status, req.NewStatus))
	}

	oldStatus := submission.Status
	entry := &models.StatusHistoryEntry{
		SubmissionID:  id,
		OldStatus:     &oldStatus,
		NewStatus:     req.NewStatus,
		EffectiveDate: req.EffectiveDate,
		ChangedBy:     changedBy,
		Remarks:       req.Remarks,
	}
	if err := s.repo.Transition(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record transition")
	}
	submission.Status = req.NewStatus
	s.invalidateReports(ctx)
	return submission, nil
}

// Classify records the review-type outcome and moves the submission to
// CLASSIFIED.
func (s *SubmissionService) Classify(ctx context.Context, id string, req ClassifyRequest, changedBy string) (*models.Classification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classification payload")
	}
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if detail.Classification != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission already classified")
	}
	if !models.CanTransition(detail.Status, models.StatusClassified) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot classify a submission in status %s", detail.Status))
	}

	classification := &models.Classification{
		SubmissionID:       id,
		ReviewType:         req.ReviewType,
		ClassificationDate: req.ClassificationDate,
		ClassifiedBy:       changedBy,
	}
	if err := s.repo.CreateClassification(ctx, classification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record classification")
	}

	oldStatus := detail.Status
	entry := &models.StatusHistoryEntry{
		SubmissionID:  id,
		OldStatus:     &oldStatus,
		NewStatus:     models.StatusClassified,
		EffectiveDate: req.ClassificationDate,
		ChangedBy:     changedBy,
	}
	if err := s.repo.Transition(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record transition")
	}
	s.invalidateReports(ctx)
	return classification, nil
}

// SetDecision records the committee's final decision. An approval window
// supplied with an APPROVED decision becomes the project's clearance
// window.
func (s *SubmissionService) SetDecision(ctx context.Context, id string, req DecisionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if err := s.repo.SetDecision(ctx, id, req.Decision, req.DecisionDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}
	if req.Decision == models.DecisionApproved && req.ApprovalStartDate != nil {
		if err := s.projects.SetApprovalWindow(ctx, submission.ProjectID, req.ApprovalStartDate, req.ApprovalEndDate); err != nil {
			s.logger.Warn("failed to set approval window", zap.String("project_id", submission.ProjectID), zap.Error(err))
		}
	}
	decision := req.Decision
	decisionDate := req.DecisionDate
	submission.FinalDecision = &decision
	submission.FinalDecisionDate = &decisionDate
	s.invalidateReports(ctx)
	return submission, nil
}

func (s *SubmissionService) invalidateReports(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "report:ay:*"); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}
