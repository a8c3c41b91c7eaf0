package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/rerc-review-api/internal/models"
)

const submissionColumns = "s.id, s.project_id, s.sequence_number, s.received_date, s.status, s.final_decision, s.final_decision_date, s.created_at, s.updated_at"

const historyColumns = "id, submission_id, old_status, new_status, effective_date, changed_by, remarks, created_at"

const classificationColumns = "id, submission_id, review_type, classification_date, classified_by, created_at"

// SubmissionRepository persists protocol submissions together with their
// status history and classification records.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// List returns submissions matching the filter.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	base := "FROM submissions s"
	joins := ""
	where := []string{"1=1"}
	var args []interface{}

	if filter.CommitteeID != "" {
		joins = " JOIN projects p ON p.id = s.project_id"
		where = append(where, fmt.Sprintf("p.committee_id = $%d", len(args)+1))
		args = append(args, filter.CommitteeID)
	}
	if filter.ProjectID != "" {
		where = append(where, fmt.Sprintf("s.project_id = $%d", len(args)+1))
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.SequenceNumber != nil {
		where = append(where, fmt.Sprintf("s.sequence_number = $%d", len(args)+1))
		args = append(args, *filter.SequenceNumber)
	}
	if filter.ReceivedFrom != nil {
		where = append(where, fmt.Sprintf("s.received_date >= $%d", len(args)+1))
		args = append(args, *filter.ReceivedFrom)
	}
	if filter.ReceivedTo != nil {
		where = append(where, fmt.Sprintf("s.received_date < $%d", len(args)+1))
		args = append(args, *filter.ReceivedTo)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s%s WHERE %s ORDER BY s.received_date DESC LIMIT %d OFFSET %d",
		submissionColumns, base, joins, whereClause, size, offset)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s WHERE %s", base, joins, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return submissions, total, nil
}

// GetByID fetches a bare submission row.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions s WHERE s.id = $1", submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

type submissionWithCommittee struct {
	models.Submission
	CommitteeCode string `db:"committee_code"`
}

// GetDetail loads a submission snapshot with project, classification and
// ordered status history.
func (r *SubmissionRepository) GetDetail(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	query := fmt.Sprintf(`SELECT %s, c.code AS committee_code
FROM submissions s
JOIN projects p ON p.id = s.project_id
JOIN committees c ON c.id = p.committee_id
WHERE s.id = $1`, submissionColumns)
	var row submissionWithCommittee
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}

	detail := &models.SubmissionDetail{Submission: row.Submission, CommitteeCode: row.CommitteeCode}

	projectQuery := fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, projectQuery, row.ProjectID); err != nil {
		return nil, fmt.Errorf("load submission project: %w", err)
	}
	detail.Project = &project

	classificationQuery := fmt.Sprintf("SELECT %s FROM classifications WHERE submission_id = $1", classificationColumns)
	var classification models.Classification
	err := r.db.GetContext(ctx, &classification, classificationQuery, id)
	switch {
	case err == nil:
		detail.Classification = &classification
	case errors.Is(err, sql.ErrNoRows):
		// not yet classified
	default:
		return nil, fmt.Errorf("load submission classification: %w", err)
	}

	historyQuery := fmt.Sprintf("SELECT %s FROM submission_status_history WHERE submission_id = $1 ORDER BY effective_date ASC, created_at ASC", historyColumns)
	if err := r.db.SelectContext(ctx, &detail.StatusHistory, historyQuery, id); err != nil {
		return nil, fmt.Errorf("load submission history: %w", err)
	}

	return detail, nil
}

// ListDetailsByReceivedRange loads full submission snapshots received in
// [from, to), optionally limited to one committee. Related records are
// batch-loaded to keep the report path at a fixed query count.
func (r *SubmissionRepository) ListDetailsByReceivedRange(ctx context.Context, committeeID string, from, to time.Time) ([]models.SubmissionDetail, error) {
	where := []string{"s.received_date >= $1", "s.received_date < $2"}
	args := []interface{}{from, to}
	if committeeID != "" {
		where = append(where, fmt.Sprintf("p.committee_id = $%d", len(args)+1))
		args = append(args, committeeID)
	}

	query := fmt.Sprintf(`SELECT %s, c.code AS committee_code
FROM submissions s
JOIN projects p ON p.id = s.project_id
JOIN committees c ON c.id = p.committee_id
WHERE %s
ORDER BY s.received_date ASC`, submissionColumns, strings.Join(where, " AND "))
	var rows []submissionWithCommittee
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list submissions in range: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	submissionIDs := make([]string, 0, len(rows))
	projectIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		submissionIDs = append(submissionIDs, row.ID)
		projectIDs = append(projectIDs, row.ProjectID)
	}

	projectQuery := fmt.Sprintf("SELECT %s FROM projects WHERE id = ANY($1)", projectColumns)
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, projectQuery, pq.Array(projectIDs)); err != nil {
		return nil, fmt.Errorf("batch load projects: %w", err)
	}
	projectByID := make(map[string]*models.Project, len(projects))
	for i := range projects {
		projectByID[projects[i].ID] = &projects[i]
	}

	classificationQuery := fmt.Sprintf("SELECT %s FROM classifications WHERE submission_id = ANY($1)", classificationColumns)
	var classifications []models.Classification
	if err := r.db.SelectContext(ctx, &classifications, classificationQuery, pq.Array(submissionIDs)); err != nil {
		return nil, fmt.Errorf("batch load classifications: %w", err)
	}
	classificationBySubmission := make(map[string]*models.Classification, len(classifications))
	for i := range classifications {
		classificationBySubmission[classifications[i].SubmissionID] = &classifications[i]
	}

	historyQuery := fmt.Sprintf("SELECT %s FROM submission_status_history WHERE submission_id = ANY($1) ORDER BY effective_date ASC, created_at ASC", historyColumns)
	var history []models.StatusHistoryEntry
	if err := r.db.SelectContext(ctx, &history, historyQuery, pq.Array(submissionIDs)); err != nil {
		return nil, fmt.Errorf("batch load status history: %w", err)
	}
	historyBySubmission := make(map[string][]models.StatusHistoryEntry, len(rows))
	for _, entry := range history {
		historyBySubmission[entry.SubmissionID] = append(historyBySubmission[entry.SubmissionID], entry)
	}

	details := make([]models.SubmissionDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, models.SubmissionDetail{
			Submission:     row.Submission,
			CommitteeCode:  row.CommitteeCode,
			Project:        projectByID[row.ProjectID],
			Classification: classificationBySubmission[row.ID],
			StatusHistory:  historyBySubmission[row.ID],
		})
	}
	return details, nil
}

// Create inserts a submission and its initial status-history entry in one
// transaction.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission, changedBy string) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create submission: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertSubmission = `INSERT INTO submissions (id, project_id, sequence_number, received_date, status, final_decision, final_decision_date, created_at, updated_at)
VALUES (:id, :project_id, :sequence_number, :received_date, :status, :final_decision, :final_decision_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertSubmission, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}

	entry := &models.StatusHistoryEntry{
		ID:            uuid.NewString(),
		SubmissionID:  submission.ID,
		NewStatus:     submission.Status,
		EffectiveDate: submission.ReceivedDate,
		ChangedBy:     changedBy,
		CreatedAt:     now,
	}
	if err := insertHistoryEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create submission: %w", err)
	}
	return nil
}

// Transition updates the submission status and appends a history entry in
// one transaction.
func (r *SubmissionRepository) Transition(ctx context.Context, entry *models.StatusHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateStatus = `UPDATE submissions SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, updateStatus, entry.NewStatus, now, entry.SubmissionID); err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}

	if err := insertHistoryEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

func insertHistoryEntry(ctx context.Context, tx *sqlx.Tx, entry *models.StatusHistoryEntry) error {
	const query = `INSERT INTO submission_status_history (id, submission_id, old_status, new_status, effective_date, changed_by, remarks, created_at)
VALUES (:id, :submission_id, :old_status, :new_status, :effective_date, :changed_by, :remarks, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// SetDecision records the final decision on a submission.
func (r *SubmissionRepository) SetDecision(ctx context.Context, id string, decision models.FinalDecision, decisionDate time.Time) error {
	const query = `UPDATE submissions SET final_decision = $1, final_decision_date = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, decision, decisionDate, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set final decision: %w", err)
	}
	return nil
}

// CreateClassification records the classification outcome for a submission.
func (r *SubmissionRepository) CreateClassification(ctx context.Context, classification *models.Classification) error {
	if classification.ID == "" {
		classification.ID = uuid.NewString()
	}
	classification.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO classifications (id, submission_id, review_type, classification_date, classified_by, created_at)
VALUES (:id, :submission_id, :review_type, :classification_date, :classified_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, classification); err != nil {
		return fmt.Errorf("create classification: %w", err)
	}
	return nil
}
