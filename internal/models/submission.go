package models

import "time"

// SubmissionStatus enumerates the lifecycle states of a protocol submission.
type SubmissionStatus string

const (
	StatusReceived            SubmissionStatus = "RECEIVED"
	StatusUnderClassification SubmissionStatus = "UNDER_CLASSIFICATION"
	StatusClassified          SubmissionStatus = "CLASSIFIED"
	StatusUnderReview         SubmissionStatus = "UNDER_REVIEW"
	StatusAwaitingRevisions   SubmissionStatus = "AWAITING_REVISIONS"
	StatusRevisionSubmitted   SubmissionStatus = "REVISION_SUBMITTED"
	StatusClosed              SubmissionStatus = "CLOSED"
	StatusWithdrawn           SubmissionStatus = "WITHDRAWN"
)

// Valid reports whether the status is a known lifecycle state.
func (s SubmissionStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// allowedTransitions encodes the submission state machine. Withdrawal is
// allowed from every non-terminal state.
var allowedTransitions = map[SubmissionStatus][]SubmissionStatus{
	StatusReceived:            {StatusUnderClassification, StatusWithdrawn},
	StatusUnderClassification: {StatusClassified, StatusWithdrawn},
	StatusClassified:          {StatusUnderReview, StatusWithdrawn},
	StatusUnderReview:         {StatusAwaitingRevisions, StatusClosed, StatusWithdrawn},
	StatusAwaitingRevisions:   {StatusRevisionSubmitted, StatusWithdrawn},
	StatusRevisionSubmitted:   {StatusAwaitingRevisions, StatusClosed, StatusWithdrawn},
	StatusClosed:              {},
	StatusWithdrawn:           {},
}

// CanTransition reports whether the state machine permits moving from one
// status to another.
func CanTransition(from, to SubmissionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// FinalDecision records the committee's terminal verdict on a submission.
type FinalDecision string

const (
	DecisionApproved    FinalDecision = "APPROVED"
	DecisionDisapproved FinalDecision = "DISAPPROVED"
)

// Valid reports whether the decision is a known value.
func (d FinalDecision) Valid() bool {
	return d == DecisionApproved || d == DecisionDisapproved
}

// Submission represents one protocol submission of a project. The initial
// submission of a project carries sequence number 1; amendments and
// resubmissions increment it.
type Submission struct {
	ID                string           `db:"id" json:"id"`
	ProjectID         string           `db:"project_id" json:"project_id"`
	SequenceNumber    int              `db:"sequence_number" json:"sequence_number"`
	ReceivedDate      time.Time        `db:"received_date" json:"received_date"`
	Status            SubmissionStatus `db:"status" json:"status"`
	FinalDecision     *FinalDecision   `db:"final_decision" json:"final_decision,omitempty"`
	FinalDecisionDate *time.Time       `db:"final_decision_date" json:"final_decision_date,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// StatusHistoryEntry records one transition in a submission's lifecycle.
type StatusHistoryEntry struct {
	ID            string            `db:"id" json:"id"`
	SubmissionID  string            `db:"submission_id" json:"submission_id"`
	OldStatus     *SubmissionStatus `db:"old_status" json:"old_status,omitempty"`
	NewStatus     SubmissionStatus  `db:"new_status" json:"new_status"`
	EffectiveDate time.Time         `db:"effective_date" json:"effective_date"`
	ChangedBy     string            `db:"changed_by" json:"changed_by"`
	Remarks       string            `db:"remarks" json:"remarks"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
}

// Classification records the review-type outcome of protocol classification.
type Classification struct {
	ID                 string     `db:"id" json:"id"`
	SubmissionID       string     `db:"submission_id" json:"submission_id"`
	ReviewType         ReviewType `db:"review_type" json:"review_type"`
	ClassificationDate time.Time  `db:"classification_date" json:"classification_date"`
	ClassifiedBy       string     `db:"classified_by" json:"classified_by"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// SubmissionDetail is the read-only snapshot handed to the SLA evaluator
// and report aggregation: the submission plus its project, classification
// and ordered status history.
type SubmissionDetail struct {
	Submission
	CommitteeCode  string               `db:"committee_code" json:"committee_code"`
	Project        *Project             `json:"project,omitempty"`
	Classification *Classification      `json:"classification,omitempty"`
	StatusHistory  []StatusHistoryEntry `json:"status_history"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	ProjectID      string
	CommitteeID    string
	Status         SubmissionStatus
	SequenceNumber *int
	ReceivedFrom   *time.Time
	ReceivedTo     *time.Time
	Page           int
	PageSize       int
}
