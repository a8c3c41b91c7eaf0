package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/dto"
	"github.com/noah-isme/rerc-review-api/internal/models"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
	"github.com/noah-isme/rerc-review-api/pkg/workdays"
)

type slaSubmissionRepository interface {
	GetDetail(ctx context.Context, id string) (*models.SubmissionDetail, error)
}

type slaConfigLister interface {
	ListByCommittee(ctx context.Context, committeeID string, activeOnly bool) ([]models.SLAConfig, error)
}

type holidayDateLister interface {
	ListDates(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

// SLAService computes per-submission SLA summaries and working-day counts.
type SLAService struct {
	submissions slaSubmissionRepository
	configs     slaConfigLister
	holidays    holidayDateLister
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewSLAService constructs an SLA service.
func NewSLAService(submissions slaSubmissionRepository, configs slaConfigLister, holidays holidayDateLister, metrics *MetricsService, logger *zap.Logger) *SLAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{
		submissions: submissions,
		configs:     configs,
		holidays:    holidays,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SummaryForSubmission loads a submission snapshot and evaluates its
// lifecycle stages against the committee's working-day targets. The
// submission must have been classified.
func (s *SLAService) SummaryForSubmission(ctx context.Context, submissionID string) (*dto.SubmissionSLAResponse, error) {
	detail, err := s.submissions.GetDetail(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if detail.Classification == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission has not been classified")
	}

	configs, err := s.configs.ListByCommittee(ctx, detail.Project.CommitteeID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sla targets")
	}

	now := s.now()
	dates, err := s.holidays.ListDates(ctx, detail.ReceivedDate, now.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}

	summary := EvaluateSubmission(detail, configs, workdays.NewHolidaySet(dates...), now)
	if s.metrics != nil {
		s.metrics.RecordSLAEvaluation()
	}
	s.logger.Debug("sla summary evaluated",
		zap.String("submission_id", submissionID),
		zap.String("committee_code", detail.CommitteeCode))
	return &summary, nil
}

// WorkingDays answers the working-day count for an arbitrary half-open
// [start, end) range, consulting the configured holiday calendar.
// Unparseable bounds count as zero rather than failing.
func (s *SLAService) WorkingDays(ctx context.Context, startRaw, endRaw string) (*dto.WorkingDaysResponse, error) {
	start := workdays.ParseDate(startRaw)
	end := workdays.ParseDate(endRaw)

	resp := &dto.WorkingDaysResponse{Start: startRaw, End: endRaw}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return resp, nil
	}

	dates, err := s.holidays.ListDates(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	resp.Holidays = len(dates)
	resp.WorkingDays = workdays.Between(start, end, workdays.NewHolidaySet(dates...))
	return resp, nil
}

// EvaluateSubmission derives the classification, review and
// revision-response stage results for one submission. It is a pure
// function: insufficient data yields nil fields, never an error.
func EvaluateSubmission(detail *models.SubmissionDetail, configs []models.SLAConfig, holidays workdays.HolidaySet, now time.Time) dto.SubmissionSLAResponse {
	history := sortedHistory(detail.StatusHistory)

	var reviewType *models.ReviewType
	resp := dto.SubmissionSLAResponse{
		SubmissionID:  detail.ID,
		CommitteeCode: detail.CommitteeCode,
	}
	if detail.Classification != nil {
		rt := detail.Classification.ReviewType
		reviewType = &rt
		resp.ReviewType = rt
	}

	resp.Classification = classificationStage(detail, history, configs, reviewType, holidays, now)
	resp.Review = boundedStage(history, configs, models.StageReview, reviewType, holidays,
		[]models.SubmissionStatus{models.StatusUnderReview},
		[]models.SubmissionStatus{models.StatusAwaitingRevisions, models.StatusRevisionSubmitted, models.StatusClosed, models.StatusWithdrawn})
	resp.RevisionResponse = boundedStage(history, configs, models.StageRevisionResponse, nil, holidays,
		[]models.SubmissionStatus{models.StatusAwaitingRevisions},
		[]models.SubmissionStatus{models.StatusRevisionSubmitted})
	return resp
}

// classificationStage always has a start (received date at worst) and an
// end (classification date, or now while still in progress), so the
// actual duration is always computed. Compliance needs a configured
// target.
func classificationStage(detail *models.SubmissionDetail, history []models.StatusHistoryEntry, configs []models.SLAConfig, reviewType *models.ReviewType, holidays workdays.HolidaySet, now time.Time) dto.SLAStageResult {
	start := latestEntryDate(history, models.StatusUnderClassification)
	if start == nil {
		received := detail.ReceivedDate
		start = &received
	}
	end := now
	if detail.Classification != nil {
		end = detail.Classification.ClassificationDate
	}

	actual := workdays.Between(*start, end, holidays)
	result := dto.SLAStageResult{Start: start, End: &end, ActualWorkingDays: &actual}
	if config := matchConfig(configs, models.StageClassification, reviewType); config != nil {
		configured := config.WorkingDays
		within := actual <= configured
		description := config.Description
		result.ConfiguredWorkingDays = &configured
		result.WithinSLA = &within
		result.Description = &description
	}
	return result
}

// boundedStage resolves a stage delimited by history entries on both
// sides. Duration and compliance are reported only when the stage has
// both boundaries and an active target.
func boundedStage(history []models.StatusHistoryEntry, configs []models.SLAConfig, stage models.SLAStage, reviewType *models.ReviewType, holidays workdays.HolidaySet, startStatuses, endStatuses []models.SubmissionStatus) dto.SLAStageResult {
	result := dto.SLAStageResult{
		Start: latestEntryDate(history, startStatuses...),
		End:   latestEntryDate(history, endStatuses...),
	}
	config := matchConfig(configs, stage, reviewType)
	if result.Start == nil || result.End == nil || config == nil {
		return result
	}
	actual := workdays.Between(*result.Start, *result.End, holidays)
	configured := config.WorkingDays
	within := actual <= configured
	description := config.Description
	result.ActualWorkingDays = &actual
	result.ConfiguredWorkingDays = &configured
	result.WithinSLA = &within
	result.Description = &description
	return result
}

// latestEntryDate returns the effective date of the most recent history
// entry whose new status is one of the given statuses.
func latestEntryDate(history []models.StatusHistoryEntry, statuses ...models.SubmissionStatus) *time.Time {
	for i := len(history) - 1; i >= 0; i-- {
		for _, status := range statuses {
			if history[i].NewStatus == status {
				date := history[i].EffectiveDate
				return &date
			}
		}
	}
	return nil
}

// matchConfig returns the first active target for the (stage, reviewType)
// pair. A nil reviewType matches only rows with no review type. Rows
// arrive oldest first, so duplicates resolve to the earliest row.
func matchConfig(configs []models.SLAConfig, stage models.SLAStage, reviewType *models.ReviewType) *models.SLAConfig {
	for i := range configs {
		config := &configs[i]
		if !config.IsActive || config.Stage != stage {
			continue
		}
		if reviewType == nil {
			if config.ReviewType == nil {
				return config
			}
			continue
		}
		if config.ReviewType != nil && *config.ReviewType == *reviewType {
			return config
		}
	}
	return nil
}

// sortedHistory returns the history ordered by effective date without
// assuming the store delivered it ordered.
func sortedHistory(history []models.StatusHistoryEntry) []models.StatusHistoryEntry {
	sorted := make([]models.StatusHistoryEntry, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveDate.Before(sorted[j].EffectiveDate)
	})
	return sorted
}
