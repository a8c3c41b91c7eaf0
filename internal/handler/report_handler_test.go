package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/dto"
	"github.com/noah-isme/rerc-review-api/internal/models"
	"github.com/noah-isme/rerc-review-api/internal/service"
)

type reportSubmissionsMock struct {
	details []models.SubmissionDetail
}

func (m *reportSubmissionsMock) ListDetailsByReceivedRange(context.Context, string, time.Time, time.Time) ([]models.SubmissionDetail, error) {
	return m.details, nil
}

type reportTermsMock struct {
	terms []models.AcademicTerm
}

func (m *reportTermsMock) ListByAcademicYear(context.Context, string) ([]models.AcademicTerm, error) {
	return m.terms, nil
}

type reportCommitteesMock struct{}

func (m *reportCommitteesMock) GetByID(context.Context, string) (*models.Committee, error) {
	return &models.Committee{ID: "com-1", Code: "RERC-A"}, nil
}

func newReportHandler(details []models.SubmissionDetail) *ReportHandler {
	terms := []models.AcademicTerm{
		{AcademicYear: "2025-2026", Term: 1, StartDate: day(2025, time.September, 1), EndDate: day(2026, time.January, 1)},
		{AcademicYear: "2025-2026", Term: 2, StartDate: day(2026, time.January, 1), EndDate: day(2026, time.May, 1)},
	}
	cache := service.NewCacheService(nil, nil, 0, zap.NewNop(), false)
	reports := service.NewReportService(&reportSubmissionsMock{details: details}, &reportTermsMock{terms: terms}, &reportCommitteesMock{}, &holidayDatesMock{}, cache, nil, 0, zap.NewNop())
	return NewReportHandler(reports)
}

func sampleDetails() []models.SubmissionDetail {
	return []models.SubmissionDetail{
		{
			Submission: models.Submission{
				ID:             "sub-1",
				ProjectID:      "proj-1",
				SequenceNumber: 1,
				ReceivedDate:   day(2025, time.October, 6),
				Status:         models.StatusClosed,
			},
			CommitteeCode: "RERC-A",
			Project: &models.Project{
				ID:                "proj-1",
				CommitteeID:       "com-1",
				CollegeOrUnit:     "COS",
				ProponentCategory: models.ProponentGrad,
			},
			Classification: &models.Classification{SubmissionID: "sub-1", ReviewType: models.ReviewExempt},
		},
	}
}

func TestReportAcademicYearRequiresYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newReportHandler(nil)

	c, w := newGinContext(http.MethodGet, "/reports/academic-year")

	h.AcademicYear(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportAcademicYearJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newReportHandler(sampleDetails())

	c, w := newGinContext(http.MethodGet, "/reports/academic-year?academicYear=2025-2026&term=ALL")

	h.AcademicYear(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.AcademicYearReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Totals.Received)
	assert.Equal(t, 1, envelope.Data.Totals.Exempted)
	require.NotNil(t, envelope.Data.AcademicYearVolume)
	assert.Equal(t, 1, *envelope.Data.AcademicYearVolume)
}

func TestReportAcademicYearCSVExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newReportHandler(sampleDetails())

	c, w := newGinContext(http.MethodGet, "/reports/academic-year?academicYear=2025-2026&format=csv")

	h.AcademicYear(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	body := strings.ReplaceAll(w.Body.String(), "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "college_or_unit,received,withdrawn,exempted,expedited,full_review", lines[0])
	assert.Contains(t, lines[1], "COS")
	assert.Contains(t, lines[len(lines)-1], "TOTAL")
}

func TestReportAcademicYearRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newReportHandler(sampleDetails())

	c, w := newGinContext(http.MethodGet, "/reports/academic-year?academicYear=2025-2026&format=docx")

	h.AcademicYear(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
