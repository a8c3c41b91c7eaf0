package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/models"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
)

type fakeSubmissionRepo struct {
	submission      *models.Submission
	detail          *models.SubmissionDetail
	getErr          error
	created         *models.Submission
	transitions     []*models.StatusHistoryEntry
	classifications []*models.Classification
	decision        *models.FinalDecision
}

func (f *fakeSubmissionRepo) List(context.Context, models.SubmissionFilter) ([]models.Submission, int, error) {
	if f.submission == nil {
		return nil, 0, nil
	}
	return []models.Submission{*f.submission}, 1, nil
}

func (f *fakeSubmissionRepo) GetByID(context.Context, string) (*models.Submission, error) {
	return f.submission, f.getErr
}

func (f *fakeSubmissionRepo) GetDetail(context.Context, string) (*models.SubmissionDetail, error) {
	return f.detail, f.getErr
}

func (f *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission, _ string) error {
	f.created = submission
	return nil
}

func (f *fakeSubmissionRepo) Transition(_ context.Context, entry *models.StatusHistoryEntry) error {
	f.transitions = append(f.transitions, entry)
	return nil
}

func (f *fakeSubmissionRepo) SetDecision(_ context.Context, _ string, decision models.FinalDecision, _ time.Time) error {
	f.decision = &decision
	return nil
}

func (f *fakeSubmissionRepo) CreateClassification(_ context.Context, classification *models.Classification) error {
	f.classifications = append(f.classifications, classification)
	return nil
}

type fakeProjectRepo struct {
	project        *models.Project
	err            error
	approvalStart  *time.Time
	approvalEnd    *time.Time
	windowProjects []string
}

func (f *fakeProjectRepo) GetByID(context.Context, string) (*models.Project, error) {
	return f.project, f.err
}

func (f *fakeProjectRepo) SetApprovalWindow(_ context.Context, id string, start, end *time.Time) error {
	f.windowProjects = append(f.windowProjects, id)
	f.approvalStart = start
	f.approvalEnd = end
	return nil
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, 0, zap.NewNop(), false)
}

func TestSubmissionCreateStartsReceived(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	projects := &fakeProjectRepo{project: &models.Project{ID: "proj-1"}}
	svc := NewSubmissionService(repo, projects, disabledCache(), nil, zap.NewNop())

	submission, err := svc.Create(context.Background(), CreateSubmissionRequest{
		ProjectID:      "proj-1",
		SequenceNumber: 1,
		ReceivedDate:   date(2026, time.February, 2),
	}, "user-1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, submission.Status)
	require.NotNil(t, repo.created)
	assert.Equal(t, 1, repo.created.SequenceNumber)
}

func TestSubmissionCreateUnknownProject(t *testing.T) {
	svc := NewSubmissionService(&fakeSubmissionRepo{}, &fakeProjectRepo{err: sql.ErrNoRows}, disabledCache(), nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		ProjectID:      "missing",
		SequenceNumber: 1,
		ReceivedDate:   date(2026, time.February, 2),
	}, "user-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmissionTransitionRejectsIllegalMove(t *testing.T) {
	repo := &fakeSubmissionRepo{submission: &models.Submission{ID: "sub-1", Status: models.StatusReceived}}
	svc := NewSubmissionService(repo, &fakeProjectRepo{}, disabledCache(), nil, zap.NewNop())

	_, err := svc.Transition(context.Background(), "sub-1", TransitionRequest{
		NewStatus:     models.StatusClosed,
		EffectiveDate: date(2026, time.February, 2),
	}, "user-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.transitions)
}

func TestSubmissionTransitionRecordsHistory(t *testing.T) {
	repo := &fakeSubmissionRepo{submission: &models.Submission{ID: "sub-1", Status: models.StatusReceived}}
	svc := NewSubmissionService(repo, &fakeProjectRepo{}, disabledCache(), nil, zap.NewNop())

	submission, err := svc.Transition(context.Background(), "sub-1", TransitionRequest{
		NewStatus:     models.StatusUnderClassification,
		EffectiveDate: date(2026, time.February, 2),
		Remarks:       "forwarded to classifier",
	}, "user-1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderClassification, submission.Status)
	require.Len(t, repo.transitions, 1)
	entry := repo.transitions[0]
	require.NotNil(t, entry.OldStatus)
	assert.Equal(t, models.StatusReceived, *entry.OldStatus)
	assert.Equal(t, "user-1", entry.ChangedBy)
}

func TestSubmissionWithdrawalAllowedFromNonTerminalStates(t *testing.T) {
	for _, status := range []models.SubmissionStatus{
		models.StatusReceived,
		models.StatusUnderClassification,
		models.StatusClassified,
		models.StatusUnderReview,
		models.StatusAwaitingRevisions,
		models.StatusRevisionSubmitted,
	} {
		assert.True(t, models.CanTransition(status, models.StatusWithdrawn), "from %s", status)
	}
	assert.False(t, models.CanTransition(models.StatusClosed, models.StatusWithdrawn))
	assert.False(t, models.CanTransition(models.StatusWithdrawn, models.StatusWithdrawn))
}

func TestSubmissionClassifyConflictsWhenAlreadyClassified(t *testing.T) {
	repo := &fakeSubmissionRepo{detail: &models.SubmissionDetail{
		Submission:     models.Submission{ID: "sub-1", Status: models.StatusUnderClassification},
		Classification: &models.Classification{SubmissionID: "sub-1", ReviewType: models.ReviewExempt},
	}}
	svc := NewSubmissionService(repo, &fakeProjectRepo{}, disabledCache(), nil, zap.NewNop())

	_, err := svc.Classify(context.Background(), "sub-1", ClassifyRequest{
		ReviewType:         models.ReviewExpedited,
		ClassificationDate: date(2026, time.February, 4),
	}, "user-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubmissionClassifyRecordsOutcomeAndTransition(t *testing.T) {
	repo := &fakeSubmissionRepo{detail: &models.SubmissionDetail{
		Submission: models.Submission{ID: "sub-1", Status: models.StatusUnderClassification},
	}}
	svc := NewSubmissionService(repo, &fakeProjectRepo{}, disabledCache(), nil, zap.NewNop())

	classification, err := svc.Classify(context.Background(), "sub-1", ClassifyRequest{
		ReviewType:         models.ReviewFullBoard,
		ClassificationDate: date(2026, time.February, 4),
	}, "user-1")

	require.NoError(t, err)
	assert.Equal(t, models.ReviewFullBoard, classification.ReviewType)
	require.Len(t, repo.classifications, 1)
	require.Len(t, repo.transitions, 1)
	assert.Equal(t, models.StatusClassified, repo.transitions[0].NewStatus)
}

func TestSubmissionDecisionSetsApprovalWindow(t *testing.T) {
	repo := &fakeSubmissionRepo{submission: &models.Submission{ID: "sub-1", ProjectID: "proj-1", Status: models.StatusClosed}}
	projects := &fakeProjectRepo{}
	svc := NewSubmissionService(repo, projects, disabledCache(), nil, zap.NewNop())

	start := date(2026, time.March, 2)
	end := date(2027, time.March, 2)
	submission, err := svc.SetDecision(context.Background(), "sub-1", DecisionRequest{
		Decision:          models.DecisionApproved,
		DecisionDate:      date(2026, time.February, 27),
		ApprovalStartDate: &start,
		ApprovalEndDate:   &end,
	})

	require.NoError(t, err)
	require.NotNil(t, submission.FinalDecision)
	assert.Equal(t, models.DecisionApproved, *submission.FinalDecision)
	require.Len(t, projects.windowProjects, 1)
	assert.Equal(t, "proj-1", projects.windowProjects[0])
	require.NotNil(t, projects.approvalStart)
	assert.Equal(t, start, *projects.approvalStart)
}

func TestSubmissionDecisionRejectsUnknownValue(t *testing.T) {
	repo := &fakeSubmissionRepo{submission: &models.Submission{ID: "sub-1", Status: models.StatusClosed}}
	svc := NewSubmissionService(repo, &fakeProjectRepo{}, disabledCache(), nil, zap.NewNop())

	_, err := svc.SetDecision(context.Background(), "sub-1", DecisionRequest{
		Decision:     models.FinalDecision("MAYBE"),
		DecisionDate: date(2026, time.February, 27),
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.decision)
}
