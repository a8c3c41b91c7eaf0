package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rerc-review-api/internal/models"
)

func TestSLAConfigRepositoryListByCommitteeActiveOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSLAConfigRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "committee_id", "stage", "review_type", "working_days", "is_active", "description", "created_at", "updated_at"}).
		AddRow("cfg-1", "com-1", "CLASSIFICATION", "EXPEDITED", 3, true, "classification target", now, now).
		AddRow("cfg-2", "com-1", "REVISION_RESPONSE", nil, 10, true, "", now, now)
	mock.ExpectQuery("SELECT .* FROM sla_configs WHERE committee_id = \\$1 AND is_active = TRUE ORDER BY created_at ASC").
		WithArgs("com-1").
		WillReturnRows(rows)

	configs, err := repo.ListByCommittee(context.Background(), "com-1", true)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, models.StageClassification, configs[0].Stage)
	require.NotNil(t, configs[0].ReviewType)
	assert.Equal(t, models.ReviewExpedited, *configs[0].ReviewType)
	assert.Nil(t, configs[1].ReviewType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSLAConfigRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSLAConfigRepository(db)

	mock.ExpectExec("INSERT INTO sla_configs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	config := &models.SLAConfig{
		CommitteeID: "com-1",
		Stage:       models.StageReview,
		WorkingDays: 15,
		IsActive:    true,
	}
	err := repo.Create(context.Background(), config)
	require.NoError(t, err)
	assert.NotEmpty(t, config.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
