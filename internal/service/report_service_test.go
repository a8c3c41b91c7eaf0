package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/models"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
	"github.com/noah-isme/rerc-review-api/pkg/workdays"
)

type fakeReportSubmissions struct {
	details []models.SubmissionDetail
	calls   int
}

func (f *fakeReportSubmissions) ListDetailsByReceivedRange(context.Context, string, time.Time, time.Time) ([]models.SubmissionDetail, error) {
	f.calls++
	return f.details, nil
}

type fakeReportTerms struct {
	terms []models.AcademicTerm
}

func (f *fakeReportTerms) ListByAcademicYear(context.Context, string) ([]models.AcademicTerm, error) {
	return f.terms, nil
}

type fakeReportCommittees struct {
	committee *models.Committee
	err       error
}

func (f *fakeReportCommittees) GetByID(context.Context, string) (*models.Committee, error) {
	return f.committee, f.err
}

type memoryCacheRepo struct {
	values map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(context.Context, string) error {
	m.values = make(map[string][]byte)
	return nil
}

func termWindows() []models.AcademicTerm {
	return []models.AcademicTerm{
		{AcademicYear: "2025-2026", Term: 1, StartDate: date(2025, time.September, 1), EndDate: date(2026, time.January, 1)},
		{AcademicYear: "2025-2026", Term: 2, StartDate: date(2026, time.January, 1), EndDate: date(2026, time.May, 1)},
	}
}

func initialSubmission(id, college string, category models.ProponentCategory, reviewType *models.ReviewType, received time.Time) models.SubmissionDetail {
	detail := models.SubmissionDetail{
		Submission: models.Submission{
			ID:             id,
			ProjectID:      "proj-" + id,
			SequenceNumber: 1,
			ReceivedDate:   received,
			Status:         models.StatusUnderReview,
		},
		CommitteeCode: "RERC-A",
		Project: &models.Project{
			ID:                "proj-" + id,
			CommitteeID:       "com-1",
			CollegeOrUnit:     college,
			ProponentCategory: category,
		},
	}
	if reviewType != nil {
		detail.Classification = &models.Classification{
			SubmissionID: id,
			ReviewType:   *reviewType,
		}
	}
	return detail
}

func TestBuildAcademicYearSummaryIgnoresNonInitialSubmissions(t *testing.T) {
	submissions := []models.SubmissionDetail{
		initialSubmission("a", "COS", models.ProponentGrad, reviewTypePtr(models.ReviewExempt), date(2025, time.October, 6)),
		initialSubmission("b", "COS", models.ProponentFaculty, reviewTypePtr(models.ReviewExpedited), date(2026, time.January, 12)),
	}
	amendment := initialSubmission("c", "COS", models.ProponentGrad, nil, date(2026, time.February, 2))
	amendment.SequenceNumber = 2
	submissions = append(submissions, amendment)

	report := buildAcademicYearSummary("2025-2026", models.TermAll, "", termWindows(), submissions, workdays.HolidaySet{})

	assert.Equal(t, 2, report.Totals.Received)
	assert.Equal(t, 1, report.Totals.Exempted)
	assert.Equal(t, 1, report.Totals.Expedited)
	require.NotNil(t, report.AcademicYearVolume)
	assert.Equal(t, 2, *report.AcademicYearVolume)
	require.Len(t, report.TermVolume, 2)
	assert.Equal(t, 1, report.TermVolume[0].Received)
	assert.Equal(t, 1, report.TermVolume[1].Received)
}

func TestBuildAcademicYearSummaryBreakdownReconciles(t *testing.T) {
	submissions := []models.SubmissionDetail{
		initialSubmission("a", "COS", models.ProponentGrad, reviewTypePtr(models.ReviewExempt), date(2025, time.October, 6)),
		initialSubmission("b", "CLA", models.ProponentUndergrad, reviewTypePtr(models.ReviewFullBoard), date(2025, time.November, 3)),
		initialSubmission("c", "", models.ProponentOther, nil, date(2026, time.February, 2)),
	}
	// No college and no affiliation buckets under the Unknown key.
	submissions[2].Project.PIAffiliation = ""

	report := buildAcademicYearSummary("2025-2026", models.TermAll, "", termWindows(), submissions, workdays.HolidaySet{})

	sum := 0
	colleges := make([]string, 0, len(report.BreakdownByCollegeOrUnit))
	for _, breakdown := range report.BreakdownByCollegeOrUnit {
		sum += breakdown.Totals.Received
		colleges = append(colleges, breakdown.CollegeOrUnit)
	}
	assert.Equal(t, report.Totals.Received, sum)
	assert.ElementsMatch(t, []string{"COS", "CLA", "Unknown"}, colleges)

	for _, breakdown := range report.BreakdownByCollegeOrUnit {
		if breakdown.CollegeOrUnit == "CLA" {
			assert.Equal(t, 1, breakdown.ByCategory["UNDERGRAD"].FullReview)
			assert.Equal(t, 1, breakdown.ByCategoryReviewType["UNDERGRAD"]["FULL_BOARD"])
		}
	}
}

func TestBuildAcademicYearSummaryCountsWithdrawnFromHistory(t *testing.T) {
	withdrawn := initialSubmission("a", "COS", models.ProponentGrad, reviewTypePtr(models.ReviewExpedited), date(2026, time.January, 12))
	withdrawn.Status = models.StatusClosed
	withdrawn.StatusHistory = []models.StatusHistoryEntry{
		historyEntry(models.StatusReceived, date(2026, time.January, 12)),
		historyEntry(models.StatusWithdrawn, date(2026, time.February, 2)),
	}

	report := buildAcademicYearSummary("2025-2026", models.TermAll, "", termWindows(), []models.SubmissionDetail{withdrawn}, workdays.HolidaySet{})

	assert.Equal(t, 1, report.Totals.Withdrawn)
}

func TestComputeResubmissionDurationsPairsFIFO(t *testing.T) {
	history := []models.StatusHistoryEntry{
		historyEntry(models.StatusAwaitingRevisions, date(2026, time.January, 12)),
		historyEntry(models.StatusRevisionSubmitted, date(2026, time.January, 15)),
		historyEntry(models.StatusAwaitingRevisions, date(2026, time.January, 19)),
		historyEntry(models.StatusRevisionSubmitted, date(2026, time.January, 21)),
	}
	holidays := workdays.NewHolidaySet(date(2026, time.January, 13))

	durations := computeResubmissionDurations(history, holidays)

	// 01-12 and 01-14 count in [01-12, 01-15); 01-13 is a holiday.
	require.Len(t, durations, 2)
	assert.Equal(t, 2, durations[0])
	assert.Equal(t, 2, durations[1])
}

func TestComputeResubmissionDurationsIgnoresUnpairedSubmission(t *testing.T) {
	history := []models.StatusHistoryEntry{
		historyEntry(models.StatusRevisionSubmitted, date(2026, time.January, 15)),
	}

	assert.Empty(t, computeResubmissionDurations(history, workdays.HolidaySet{}))
}

func TestMeanEmptySeriesIsNil(t *testing.T) {
	assert.Nil(t, mean(nil))

	value := mean([]float64{2, 3})
	require.NotNil(t, value)
	assert.Equal(t, 2.5, *value)

	rounded := mean([]float64{1, 1, 0})
	require.NotNil(t, rounded)
	assert.Equal(t, 0.67, *rounded)
}

func TestAcademicYearRejectsBadTermSelector(t *testing.T) {
	svc := NewReportService(&fakeReportSubmissions{}, &fakeReportTerms{terms: termWindows()}, &fakeReportCommittees{}, &fakeHolidayDates{}, NewCacheService(nil, nil, 0, zap.NewNop(), false), nil, 0, zap.NewNop())

	_, err := svc.AcademicYear(context.Background(), "2025-2026", "4", "")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAcademicYearUnknownYearNotFound(t *testing.T) {
	svc := NewReportService(&fakeReportSubmissions{}, &fakeReportTerms{}, &fakeReportCommittees{}, &fakeHolidayDates{}, NewCacheService(nil, nil, 0, zap.NewNop(), false), nil, 0, zap.NewNop())

	_, err := svc.AcademicYear(context.Background(), "1999-2000", models.TermAll, "")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAcademicYearUsesCacheOnSecondRead(t *testing.T) {
	submissions := &fakeReportSubmissions{details: []models.SubmissionDetail{
		initialSubmission("a", "COS", models.ProponentGrad, reviewTypePtr(models.ReviewExempt), date(2025, time.October, 6)),
	}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewReportService(submissions, &fakeReportTerms{terms: termWindows()}, &fakeReportCommittees{}, &fakeHolidayDates{}, cache, nil, time.Minute, zap.NewNop())

	first, err := svc.AcademicYear(context.Background(), "2025-2026", models.TermAll, "")
	require.NoError(t, err)
	second, err := svc.AcademicYear(context.Background(), "2025-2026", models.TermAll, "")
	require.NoError(t, err)

	assert.Equal(t, 1, submissions.calls)
	assert.Equal(t, first.Totals, second.Totals)
}

func TestAcademicYearSingleTermFiltersWindows(t *testing.T) {
	submissions := &fakeReportSubmissions{details: []models.SubmissionDetail{
		initialSubmission("a", "COS", models.ProponentGrad, reviewTypePtr(models.ReviewExpedited), date(2026, time.January, 12)),
	}}
	svc := NewReportService(submissions, &fakeReportTerms{terms: termWindows()}, &fakeReportCommittees{}, &fakeHolidayDates{}, NewCacheService(nil, nil, 0, zap.NewNop(), false), nil, 0, zap.NewNop())

	report, err := svc.AcademicYear(context.Background(), "2025-2026", "2", "")

	require.NoError(t, err)
	assert.Equal(t, "2", report.Term)
	require.Len(t, report.TermVolume, 1)
	assert.Equal(t, 2, report.TermVolume[0].Term)
	assert.Nil(t, report.AcademicYearVolume)
	assert.Equal(t, date(2026, time.January, 1), report.DateRange.Start)
	assert.Equal(t, date(2026, time.May, 1), report.DateRange.End)
}

func TestBuildAcademicYearSummaryDurationAverages(t *testing.T) {
	submission := initialSubmission("a", "COS", models.ProponentGrad, reviewTypePtr(models.ReviewExpedited), date(2026, time.January, 12))
	closed := date(2026, time.January, 19)
	submission.Status = models.StatusClosed
	decision := models.DecisionApproved
	submission.FinalDecision = &decision
	submission.FinalDecisionDate = &closed
	submission.StatusHistory = []models.StatusHistoryEntry{
		historyEntry(models.StatusReceived, date(2026, time.January, 12)),
		historyEntry(models.StatusUnderReview, date(2026, time.January, 14)),
		historyEntry(models.StatusClosed, closed),
	}

	report := buildAcademicYearSummary("2025-2026", models.TermAll, "", termWindows(), []models.SubmissionDetail{submission}, workdays.HolidaySet{})

	// Results notified at the closure entry: 01-12 through 01-16 is 5
	// working days.
	require.NotNil(t, report.Averages.Expedited.ResultsNotificationDays)
	assert.Equal(t, 5.0, *report.Averages.Expedited.ResultsNotificationDays)
	// Clearance resolves to the approved decision date, same window.
	require.NotNil(t, report.Averages.Expedited.ClearanceDays)
	assert.Equal(t, 5.0, *report.Averages.Expedited.ClearanceDays)
	assert.Nil(t, report.Averages.Expedited.ResubmissionTurnaroundDays)
	assert.Nil(t, report.Averages.FullReview.ResultsNotificationDays)
}
