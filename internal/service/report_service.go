package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/dto"
	"github.com/noah-isme/rerc-review-api/internal/models"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
	"github.com/noah-isme/rerc-review-api/pkg/export"
	"github.com/noah-isme/rerc-review-api/pkg/workdays"
)

type reportSubmissionRepository interface {
	ListDetailsByReceivedRange(ctx context.Context, committeeID string, from, to time.Time) ([]models.SubmissionDetail, error)
}

type reportTermRepository interface {
	ListByAcademicYear(ctx context.Context, academicYear string) ([]models.AcademicTerm, error)
}

type reportCommitteeRepository interface {
	GetByID(ctx context.Context, id string) (*models.Committee, error)
}

// ReportService builds academic-year summaries over protocol submissions.
type ReportService struct {
	submissions reportSubmissionRepository
	terms       reportTermRepository
	committees  reportCommitteeRepository
	holidays    holidayDateLister
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewReportService constructs a report service.
func NewReportService(submissions reportSubmissionRepository, terms reportTermRepository, committees reportCommitteeRepository, holidays holidayDateLister, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &ReportService{
		submissions: submissions,
		terms:       terms,
		committees:  committees,
		holidays:    holidays,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		cacheTTL:    cacheTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AcademicYear aggregates submission volume, breakdowns and duration
// statistics for an academic year. Term selects a single term (1..3) or
// the whole year via "ALL"; an empty selector means the whole year.
func (s *ReportService) AcademicYear(ctx context.Context, academicYear, term, committeeID string) (*dto.AcademicYearReport, error) {
	termSelector, termNumber, err := parseTermSelector(term)
	if err != nil {
		return nil, err
	}

	terms, err := s.terms.ListByAcademicYear(ctx, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic terms")
	}
	if len(terms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
	}

	windows := terms
	if termNumber != 0 {
		windows = nil
		for _, t := range terms {
			if t.Term == termNumber {
				windows = append(windows, t)
			}
		}
		if len(windows) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not configured for academic year")
		}
	}

	committeeCode := ""
	if committeeID != "" {
		committee, err := s.committees.GetByID(ctx, committeeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "committee not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee")
		}
		committeeCode = committee.Code
	}

	cacheKey := fmt.Sprintf("report:ay:%s:%s:%s", academicYear, termSelector, committeeID)
	var cached dto.AcademicYearReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	rangeStart, rangeEnd := windowBounds(windows)
	dates, err := s.holidays.ListDates(ctx, rangeStart, rangeEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}

	submissions, err := s.submissions.ListDetailsByReceivedRange(ctx, committeeID, rangeStart, rangeEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}

	buildStart := time.Now()
	report := buildAcademicYearSummary(academicYear, termSelector, committeeCode, windows, submissions, workdays.NewHolidaySet(dates...))
	if s.metrics != nil {
		s.metrics.ObserveReportBuild(termSelector, time.Since(buildStart))
	}

	if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache report", zap.String("key", cacheKey), zap.Error(err))
	}
	return &report, nil
}

// InvalidateCache drops cached reports. Mutating submission flows call
// this so the next report read reflects the change.
func (s *ReportService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "report:ay:*"); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}

// Dataset flattens a report into an exportable tabular dataset plus a
// document title for the CSV and PDF renderers.
func (s *ReportService) Dataset(report *dto.AcademicYearReport) (export.Dataset, string) {
	title := fmt.Sprintf("Academic Year %s Report (Term %s)", report.AcademicYear, report.Term)
	dataset := export.Dataset{
		Headers: []string{"college_or_unit", "received", "withdrawn", "exempted", "expedited", "full_review"},
	}
	appendRow := func(name string, totals dto.ReportTotals) {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"college_or_unit": name,
			"received":        strconv.Itoa(totals.Received),
			"withdrawn":       strconv.Itoa(totals.Withdrawn),
			"exempted":        strconv.Itoa(totals.Exempted),
			"expedited":       strconv.Itoa(totals.Expedited),
			"full_review":     strconv.Itoa(totals.FullReview),
		})
	}
	for _, breakdown := range report.BreakdownByCollegeOrUnit {
		appendRow(breakdown.CollegeOrUnit, breakdown.Totals)
	}
	appendRow("TOTAL", report.Totals)
	return dataset, title
}

func parseTermSelector(term string) (string, int, error) {
	switch term {
	case "", models.TermAll:
		return models.TermAll, 0, nil
	case "1", "2", "3":
		number, _ := strconv.Atoi(term)
		return term, number, nil
	default:
		return "", 0, appErrors.Clone(appErrors.ErrValidation, "term must be 1, 2, 3 or ALL")
	}
}

// windowBounds returns the covering [start, end) range of the term
// windows.
func windowBounds(windows []models.AcademicTerm) (time.Time, time.Time) {
	start := windows[0].StartDate
	end := windows[0].EndDate
	for _, w := range windows[1:] {
		if w.StartDate.Before(start) {
			start = w.StartDate
		}
		if w.EndDate.After(end) {
			end = w.EndDate
		}
	}
	return start, end
}

// buildAcademicYearSummary aggregates initial submissions into the
// academic-year report. Only sequence-1 submissions count toward volume;
// amendments and resubmissions of the same project are excluded.
func buildAcademicYearSummary(academicYear, term, committeeCode string, termWindows []models.AcademicTerm, submissions []models.SubmissionDetail, holidays workdays.HolidaySet) dto.AcademicYearReport {
	rangeStart, rangeEnd := windowBounds(termWindows)
	report := dto.AcademicYearReport{
		AcademicYear:  academicYear,
		Term:          term,
		CommitteeCode: committeeCode,
		DateRange:     dto.DateRange{Start: rangeStart, End: rangeEnd},
		TermVolume:    make([]dto.TermVolume, 0, len(termWindows)),
	}

	breakdowns := make(map[string]*dto.CollegeBreakdown)
	var expedited, fullReview durationSeries

	termCounts := make([]int, len(termWindows))

	for i := range submissions {
		submission := &submissions[i]
		if submission.SequenceNumber != 1 {
			continue
		}
		history := sortedHistory(submission.StatusHistory)

		withdrawn := submission.Status == models.StatusWithdrawn
		if !withdrawn {
			for _, entry := range history {
				if entry.NewStatus == models.StatusWithdrawn {
					withdrawn = true
					break
				}
			}
		}
		var reviewType *models.ReviewType
		if submission.Classification != nil {
			rt := submission.Classification.ReviewType
			reviewType = &rt
		}

		countOutcome(&report.Totals, withdrawn, reviewType)

		breakdown := collegeBucket(breakdowns, submission.Project)
		countOutcome(&breakdown.Totals, withdrawn, reviewType)
		category := categoryKey(submission.Project)
		byCategory := breakdown.ByCategory[category]
		countOutcome(&byCategory, withdrawn, reviewType)
		breakdown.ByCategory[category] = byCategory
		if reviewType != nil {
			if breakdown.ByCategoryReviewType[category] == nil {
				breakdown.ByCategoryReviewType[category] = make(map[string]int)
			}
			breakdown.ByCategoryReviewType[category][string(*reviewType)]++
		}

		for j, window := range termWindows {
			if inWindow(submission.ReceivedDate, window) {
				termCounts[j]++
			}
		}

		if reviewType == nil || *reviewType == models.ReviewExempt {
			continue
		}
		series := &expedited
		if *reviewType == models.ReviewFullBoard {
			series = &fullReview
		}
		if end := resolveResultsNotificationDate(submission, history); end != nil {
			series.resultsNotification = append(series.resultsNotification, float64(workdays.Between(submission.ReceivedDate, *end, holidays)))
		}
		if end := resolveClearanceDate(submission, history); end != nil {
			series.clearance = append(series.clearance, float64(workdays.Between(submission.ReceivedDate, *end, holidays)))
		}
		for _, duration := range computeResubmissionDurations(history, holidays) {
			series.resubmission = append(series.resubmission, float64(duration))
		}
	}

	for j, window := range termWindows {
		report.TermVolume = append(report.TermVolume, dto.TermVolume{
			Term:      window.Term,
			StartDate: window.StartDate,
			EndDate:   window.EndDate,
			Received:  termCounts[j],
		})
	}
	if term == models.TermAll {
		volume := report.Totals.Received
		report.AcademicYearVolume = &volume
	}

	colleges := make([]string, 0, len(breakdowns))
	for college := range breakdowns {
		colleges = append(colleges, college)
	}
	sort.Strings(colleges)
	report.BreakdownByCollegeOrUnit = make([]dto.CollegeBreakdown, 0, len(colleges))
	for _, college := range colleges {
		report.BreakdownByCollegeOrUnit = append(report.BreakdownByCollegeOrUnit, *breakdowns[college])
	}

	report.Averages = dto.ReportAverages{
		Expedited:  expedited.averages(),
		FullReview: fullReview.averages(),
	}
	return report
}

type durationSeries struct {
	resultsNotification []float64
	resubmission        []float64
	clearance           []float64
}

func (s durationSeries) averages() dto.ReviewTypeAverages {
	return dto.ReviewTypeAverages{
		ResultsNotificationDays:    mean(s.resultsNotification),
		ResubmissionTurnaroundDays: mean(s.resubmission),
		ClearanceDays:              mean(s.clearance),
	}
}

func countOutcome(totals *dto.ReportTotals, withdrawn bool, reviewType *models.ReviewType) {
	totals.Received++
	if withdrawn {
		totals.Withdrawn++
	}
	if reviewType == nil {
		return
	}
	switch *reviewType {
	case models.ReviewExempt:
		totals.Exempted++
	case models.ReviewExpedited:
		totals.Expedited++
	case models.ReviewFullBoard:
		totals.FullReview++
	}
}

func collegeBucket(breakdowns map[string]*dto.CollegeBreakdown, project *models.Project) *dto.CollegeBreakdown {
	college := "Unknown"
	if project != nil {
		if project.CollegeOrUnit != "" {
			college = project.CollegeOrUnit
		} else if project.PIAffiliation != "" {
			college = project.PIAffiliation
		}
	}
	breakdown, ok := breakdowns[college]
	if !ok {
		breakdown = &dto.CollegeBreakdown{
			CollegeOrUnit:        college,
			ByCategory:           make(map[string]dto.ReportTotals),
			ByCategoryReviewType: make(map[string]map[string]int),
		}
		breakdowns[college] = breakdown
	}
	return breakdown
}

func categoryKey(project *models.Project) string {
	if project == nil || !project.ProponentCategory.Valid() {
		return "unknown"
	}
	return string(project.ProponentCategory)
}

func inWindow(date time.Time, window models.AcademicTerm) bool {
	return !date.Before(window.StartDate) && date.Before(window.EndDate)
}

// resolveResultsNotificationDate finds the date review results were
// communicated: the earliest post-review outcome entry, falling back to
// the final decision date.
func resolveResultsNotificationDate(submission *models.SubmissionDetail, history []models.StatusHistoryEntry) *time.Time {
	var reviewStart *time.Time
	for _, entry := range history {
		if entry.NewStatus == models.StatusUnderReview {
			date := entry.EffectiveDate
			reviewStart = &date
			break
		}
	}
	if reviewStart != nil {
		for _, entry := range history {
			if entry.EffectiveDate.Before(*reviewStart) {
				continue
			}
			switch entry.NewStatus {
			case models.StatusAwaitingRevisions, models.StatusClosed, models.StatusWithdrawn:
				date := entry.EffectiveDate
				return &date
			}
		}
	}
	return submission.FinalDecisionDate
}

// resolveClearanceDate finds the date ethics approval took effect:
// explicit approval window start, then the approval decision date, then
// the earliest closure entry.
func resolveClearanceDate(submission *models.SubmissionDetail, history []models.StatusHistoryEntry) *time.Time {
	if submission.Project != nil && submission.Project.ApprovalStartDate != nil {
		return submission.Project.ApprovalStartDate
	}
	if submission.FinalDecision != nil && *submission.FinalDecision == models.DecisionApproved && submission.FinalDecisionDate != nil {
		return submission.FinalDecisionDate
	}
	for _, entry := range history {
		if entry.NewStatus == models.StatusClosed {
			date := entry.EffectiveDate
			return &date
		}
	}
	return nil
}

// computeResubmissionDurations pairs each awaiting-revisions entry with
// the next revision-submitted entry in FIFO order and measures the
// working-day gap of each pair. One submission may contribute several
// revision cycles.
func computeResubmissionDurations(history []models.StatusHistoryEntry, holidays workdays.HolidaySet) []int {
	var pending []time.Time
	var durations []int
	for _, entry := range history {
		switch entry.NewStatus {
		case models.StatusAwaitingRevisions:
			pending = append(pending, entry.EffectiveDate)
		case models.StatusRevisionSubmitted:
			if len(pending) == 0 {
				continue
			}
			start := pending[0]
			pending = pending[1:]
			durations = append(durations, workdays.Between(start, entry.EffectiveDate, holidays))
		}
	}
	return durations
}

// mean reduces a series to its arithmetic mean rounded to 2 decimals.
// An empty series has no mean.
func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	rounded := math.Round(sum/float64(len(values))*100) / 100
	return &rounded
}
