package dto

import (
	"time"

	"github.com/noah-isme/rerc-review-api/internal/models"
)

// SLAStageResult reports one lifecycle stage against its configured
// target. Nil fields mean "not applicable or not yet reached", never zero.
type SLAStageResult struct {
	Start                 *time.Time `json:"start"`
	End                   *time.Time `json:"end"`
	ConfiguredWorkingDays *int       `json:"configured_working_days"`
	ActualWorkingDays     *int       `json:"actual_working_days"`
	WithinSLA             *bool      `json:"within_sla"`
	Description           *string    `json:"description"`
}

// SubmissionSLAResponse is the per-submission SLA summary.
type SubmissionSLAResponse struct {
	SubmissionID     string            `json:"submission_id"`
	CommitteeCode    string            `json:"committee_code"`
	ReviewType       models.ReviewType `json:"review_type"`
	Classification   SLAStageResult    `json:"classification"`
	Review           SLAStageResult    `json:"review"`
	RevisionResponse SLAStageResult    `json:"revision_response"`
}

// WorkingDaysResponse is the payload of the working-days utility endpoint.
type WorkingDaysResponse struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Holidays    int    `json:"holidays"`
	WorkingDays int    `json:"working_days"`
}
