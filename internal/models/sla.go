package models

import "time"

// SLAStage identifies a lifecycle phase with its own working-day target.
type SLAStage string

const (
	StageClassification   SLAStage = "CLASSIFICATION"
	StageReview           SLAStage = "REVIEW"
	StageRevisionResponse SLAStage = "REVISION_RESPONSE"
	StageMembership       SLAStage = "MEMBERSHIP"
	StageMeeting          SLAStage = "MEETING"
)

// Valid reports whether the stage is a known value.
func (s SLAStage) Valid() bool {
	switch s {
	case StageClassification, StageReview, StageRevisionResponse, StageMembership, StageMeeting:
		return true
	default:
		return false
	}
}

// ReviewType is the classification outcome that selects which SLA target
// applies to a submission.
type ReviewType string

const (
	ReviewExempt    ReviewType = "EXEMPT"
	ReviewExpedited ReviewType = "EXPEDITED"
	ReviewFullBoard ReviewType = "FULL_BOARD"
)

// Valid reports whether the review type is a known value.
func (r ReviewType) Valid() bool {
	switch r {
	case ReviewExempt, ReviewExpedited, ReviewFullBoard:
		return true
	default:
		return false
	}
}

// SLAConfig is the working-day target for a (committee, stage, reviewType)
// triple. A nil ReviewType means the target applies regardless of review
// type (the revision-response stage is looked up this way).
type SLAConfig struct {
	ID          string      `db:"id" json:"id"`
	CommitteeID string      `db:"committee_id" json:"committee_id"`
	Stage       SLAStage    `db:"stage" json:"stage"`
	ReviewType  *ReviewType `db:"review_type" json:"review_type,omitempty"`
	WorkingDays int         `db:"working_days" json:"working_days"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	Description string      `db:"description" json:"description"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
