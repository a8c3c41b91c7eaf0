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
	"github.com/noah-isme/rerc-review-api/pkg/workdays"
)

type fakeSubmissionDetailRepo struct {
	detail *models.SubmissionDetail
	err    error
}

func (f *fakeSubmissionDetailRepo) GetDetail(context.Context, string) (*models.SubmissionDetail, error) {
	return f.detail, f.err
}

type fakeSLAConfigRepo struct {
	configs []models.SLAConfig
}

func (f *fakeSLAConfigRepo) ListByCommittee(context.Context, string, bool) ([]models.SLAConfig, error) {
	return f.configs, nil
}

type fakeHolidayDates struct {
	dates []time.Time
	err   error
}

func (f *fakeHolidayDates) ListDates(context.Context, time.Time, time.Time) ([]time.Time, error) {
	return f.dates, f.err
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func reviewTypePtr(rt models.ReviewType) *models.ReviewType {
	return &rt
}

func historyEntry(status models.SubmissionStatus, effective time.Time) models.StatusHistoryEntry {
	return models.StatusHistoryEntry{NewStatus: status, EffectiveDate: effective}
}

func classifiedDetail() *models.SubmissionDetail {
	return &models.SubmissionDetail{
		Submission: models.Submission{
			ID:           "sub-1",
			ProjectID:    "proj-1",
			ReceivedDate: date(2026, time.February, 2),
			Status:       models.StatusUnderReview,
		},
		CommitteeCode: "RERC-A",
		Project:       &models.Project{ID: "proj-1", CommitteeID: "com-1"},
		Classification: &models.Classification{
			SubmissionID:       "sub-1",
			ReviewType:         models.ReviewExpedited,
			ClassificationDate: date(2026, time.February, 4),
		},
		StatusHistory: []models.StatusHistoryEntry{
			historyEntry(models.StatusReceived, date(2026, time.February, 2)),
			historyEntry(models.StatusUnderClassification, date(2026, time.February, 2)),
			historyEntry(models.StatusClassified, date(2026, time.February, 4)),
			historyEntry(models.StatusUnderReview, date(2026, time.February, 9)),
			historyEntry(models.StatusAwaitingRevisions, date(2026, time.February, 13)),
		},
	}
}

func TestEvaluateSubmissionComputesStageWindows(t *testing.T) {
	detail := classifiedDetail()
	configs := []models.SLAConfig{
		{Stage: models.StageClassification, ReviewType: reviewTypePtr(models.ReviewExpedited), WorkingDays: 3, IsActive: true, Description: "classification target"},
		{Stage: models.StageReview, ReviewType: reviewTypePtr(models.ReviewExpedited), WorkingDays: 10, IsActive: true, Description: "review target"},
	}
	now := date(2026, time.February, 20)

	result := EvaluateSubmission(detail, configs, workdays.HolidaySet{}, now)

	assert.Equal(t, "sub-1", result.SubmissionID)
	assert.Equal(t, "RERC-A", result.CommitteeCode)
	assert.Equal(t, models.ReviewExpedited, result.ReviewType)

	// Classification: Mon 02-02 to Wed 02-04 is 2 working days.
	require.NotNil(t, result.Classification.ActualWorkingDays)
	assert.Equal(t, 2, *result.Classification.ActualWorkingDays)
	require.NotNil(t, result.Classification.WithinSLA)
	assert.True(t, *result.Classification.WithinSLA)
	require.NotNil(t, result.Classification.ConfiguredWorkingDays)
	assert.Equal(t, 3, *result.Classification.ConfiguredWorkingDays)

	// Review: Mon 02-09 to Fri 02-13 is 4 working days.
	require.NotNil(t, result.Review.Start)
	assert.Equal(t, date(2026, time.February, 9), *result.Review.Start)
	require.NotNil(t, result.Review.End)
	assert.Equal(t, date(2026, time.February, 13), *result.Review.End)
	require.NotNil(t, result.Review.ActualWorkingDays)
	assert.Equal(t, 4, *result.Review.ActualWorkingDays)
	require.NotNil(t, result.Review.WithinSLA)
	assert.True(t, *result.Review.WithinSLA)
}

func TestEvaluateSubmissionReviewNullsWithoutUnderReviewEntry(t *testing.T) {
	detail := classifiedDetail()
	detail.StatusHistory = []models.StatusHistoryEntry{
		historyEntry(models.StatusReceived, date(2026, time.February, 2)),
		historyEntry(models.StatusUnderClassification, date(2026, time.February, 2)),
		historyEntry(models.StatusClassified, date(2026, time.February, 4)),
	}
	configs := []models.SLAConfig{
		{Stage: models.StageReview, ReviewType: reviewTypePtr(models.ReviewExpedited), WorkingDays: 10, IsActive: true},
	}

	result := EvaluateSubmission(detail, configs, workdays.HolidaySet{}, date(2026, time.March, 2))

	assert.Nil(t, result.Review.Start)
	assert.Nil(t, result.Review.ActualWorkingDays)
	assert.Nil(t, result.Review.WithinSLA)
}

func TestEvaluateSubmissionUsesLatestMatchingEntry(t *testing.T) {
	detail := classifiedDetail()
	detail.StatusHistory = append(detail.StatusHistory,
		historyEntry(models.StatusRevisionSubmitted, date(2026, time.February, 17)),
		historyEntry(models.StatusAwaitingRevisions, date(2026, time.February, 20)),
		historyEntry(models.StatusRevisionSubmitted, date(2026, time.February, 25)),
	)
	configs := []models.SLAConfig{
		{Stage: models.StageRevisionResponse, ReviewType: nil, WorkingDays: 5, IsActive: true},
	}

	result := EvaluateSubmission(detail, configs, workdays.HolidaySet{}, date(2026, time.March, 2))

	require.NotNil(t, result.RevisionResponse.Start)
	assert.Equal(t, date(2026, time.February, 20), *result.RevisionResponse.Start)
	require.NotNil(t, result.RevisionResponse.End)
	assert.Equal(t, date(2026, time.February, 25), *result.RevisionResponse.End)
	// Fri 02-20 to Wed 02-25 spans one weekend: 3 working days.
	require.NotNil(t, result.RevisionResponse.ActualWorkingDays)
	assert.Equal(t, 3, *result.RevisionResponse.ActualWorkingDays)
}

func TestEvaluateSubmissionClassificationFallsBackToReceivedDate(t *testing.T) {
	detail := classifiedDetail()
	detail.StatusHistory = nil

	result := EvaluateSubmission(detail, nil, workdays.HolidaySet{}, date(2026, time.March, 2))

	require.NotNil(t, result.Classification.Start)
	assert.Equal(t, detail.ReceivedDate, *result.Classification.Start)
	assert.Nil(t, result.Classification.ConfiguredWorkingDays)
	assert.Nil(t, result.Classification.WithinSLA)
	require.NotNil(t, result.Classification.ActualWorkingDays)
	assert.Equal(t, 2, *result.Classification.ActualWorkingDays)
}

func TestEvaluateSubmissionConfigMatchIsExact(t *testing.T) {
	detail := classifiedDetail()
	configs := []models.SLAConfig{
		{Stage: models.StageReview, ReviewType: reviewTypePtr(models.ReviewFullBoard), WorkingDays: 20, IsActive: true},
		{Stage: models.StageReview, ReviewType: nil, WorkingDays: 15, IsActive: true},
		{Stage: models.StageReview, ReviewType: reviewTypePtr(models.ReviewExpedited), WorkingDays: 10, IsActive: false},
	}

	result := EvaluateSubmission(detail, configs, workdays.HolidaySet{}, date(2026, time.March, 2))

	// No active EXPEDITED review row matches exactly, so compliance is
	// unknown even though the stage boundaries exist.
	require.NotNil(t, result.Review.Start)
	require.NotNil(t, result.Review.End)
	assert.Nil(t, result.Review.ConfiguredWorkingDays)
	assert.Nil(t, result.Review.WithinSLA)
}

func TestSummaryForSubmissionNotFound(t *testing.T) {
	svc := NewSLAService(&fakeSubmissionDetailRepo{err: sql.ErrNoRows}, &fakeSLAConfigRepo{}, &fakeHolidayDates{}, nil, zap.NewNop())

	_, err := svc.SummaryForSubmission(context.Background(), "missing")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSummaryForSubmissionRequiresClassification(t *testing.T) {
	detail := classifiedDetail()
	detail.Classification = nil
	svc := NewSLAService(&fakeSubmissionDetailRepo{detail: detail}, &fakeSLAConfigRepo{}, &fakeHolidayDates{}, nil, zap.NewNop())

	_, err := svc.SummaryForSubmission(context.Background(), "sub-1")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSummaryForSubmissionAppliesHolidays(t *testing.T) {
	detail := classifiedDetail()
	svc := NewSLAService(
		&fakeSubmissionDetailRepo{detail: detail},
		&fakeSLAConfigRepo{configs: []models.SLAConfig{
			{Stage: models.StageClassification, ReviewType: reviewTypePtr(models.ReviewExpedited), WorkingDays: 1, IsActive: true},
		}},
		&fakeHolidayDates{dates: []time.Time{date(2026, time.February, 3)}},
		nil,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return date(2026, time.February, 20) }

	summary, err := svc.SummaryForSubmission(context.Background(), "sub-1")

	require.NoError(t, err)
	// 02-03 is a holiday, so only 02-02 counts before classification.
	require.NotNil(t, summary.Classification.ActualWorkingDays)
	assert.Equal(t, 1, *summary.Classification.ActualWorkingDays)
	require.NotNil(t, summary.Classification.WithinSLA)
	assert.True(t, *summary.Classification.WithinSLA)
}

func TestWorkingDaysUnparseableBoundsYieldZero(t *testing.T) {
	svc := NewSLAService(&fakeSubmissionDetailRepo{}, &fakeSLAConfigRepo{}, &fakeHolidayDates{}, nil, zap.NewNop())

	resp, err := svc.WorkingDays(context.Background(), "not-a-date", "2026-02-16")

	require.NoError(t, err)
	assert.Equal(t, 0, resp.WorkingDays)
	assert.Equal(t, 0, resp.Holidays)
}

func TestWorkingDaysCountsRange(t *testing.T) {
	svc := NewSLAService(&fakeSubmissionDetailRepo{}, &fakeSLAConfigRepo{}, &fakeHolidayDates{dates: []time.Time{date(2026, time.February, 10)}}, nil, zap.NewNop())

	resp, err := svc.WorkingDays(context.Background(), "2026-02-09", "2026-02-16")

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Holidays)
	assert.Equal(t, 4, resp.WorkingDays)
}
