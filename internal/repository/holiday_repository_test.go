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

func TestHolidayRepositoryListDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"date"}).
		AddRow(time.Date(2026, time.January, 13, 0, 0, 0, 0, time.UTC)).
		AddRow(time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT date FROM holidays WHERE date >= \\$1 AND date < \\$2").
		WithArgs(from, to).
		WillReturnRows(rows)

	dates, err := repo.ListDates(context.Background(), from, to)
	require.NoError(t, err)
	assert.Len(t, dates, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec("INSERT INTO holidays").
		WillReturnResult(sqlmock.NewResult(1, 1))

	holiday := &models.Holiday{
		Date: time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC),
		Name: "Independence Day",
	}
	err := repo.Create(context.Background(), holiday)
	require.NoError(t, err)
	assert.NotEmpty(t, holiday.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
