package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rerc-review-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	received := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "project_id", "sequence_number", "received_date", "status", "final_decision", "final_decision_date", "created_at", "updated_at"}).
		AddRow("sub-1", "proj-1", 1, received, "RECEIVED", nil, nil, received, received)
	mock.ExpectQuery("SELECT s.id, s.project_id, s.sequence_number, .* FROM submissions s WHERE 1=1 AND s.status = \\$1 ORDER BY s.received_date DESC").
		WithArgs(models.StatusReceived).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM submissions s WHERE 1=1 AND s.status = \\$1").
		WithArgs(models.StatusReceived).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	submissions, total, err := repo.List(context.Background(), models.SubmissionFilter{Status: models.StatusReceived})
	require.NoError(t, err)
	assert.Len(t, submissions, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.StatusReceived, submissions[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreateWritesInitialHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO submission_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	submission := &models.Submission{
		ProjectID:      "proj-1",
		SequenceNumber: 1,
		ReceivedDate:   time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
		Status:         models.StatusReceived,
	}
	err := repo.Create(context.Background(), submission, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, submission.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryTransitionUpdatesAndAppends(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE submissions SET status").
		WithArgs(models.StatusUnderClassification, sqlmock.AnyArg(), "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO submission_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	oldStatus := models.StatusReceived
	err := repo.Transition(context.Background(), &models.StatusHistoryEntry{
		SubmissionID:  "sub-1",
		OldStatus:     &oldStatus,
		NewStatus:     models.StatusUnderClassification,
		EffectiveDate: time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC),
		ChangedBy:     "user-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryTransitionRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE submissions SET status").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Transition(context.Background(), &models.StatusHistoryEntry{
		SubmissionID:  "sub-1",
		NewStatus:     models.StatusUnderClassification,
		EffectiveDate: time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
