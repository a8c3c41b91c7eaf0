package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/dto"
	"github.com/noah-isme/rerc-review-api/internal/models"
	"github.com/noah-isme/rerc-review-api/internal/service"
	"github.com/noah-isme/rerc-review-api/pkg/response"
)

type submissionDetailMock struct {
	detail *models.SubmissionDetail
	err    error
}

func (m *submissionDetailMock) GetDetail(context.Context, string) (*models.SubmissionDetail, error) {
	return m.detail, m.err
}

type slaConfigMock struct {
	configs []models.SLAConfig
}

func (m *slaConfigMock) ListByCommittee(context.Context, string, bool) ([]models.SLAConfig, error) {
	return m.configs, nil
}

type holidayDatesMock struct {
	dates []time.Time
}

func (m *holidayDatesMock) ListDates(context.Context, time.Time, time.Time) ([]time.Time, error) {
	return m.dates, nil
}

func newGinContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, nil)
	c.Request = req
	return c, w
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestSLASummaryNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sla := service.NewSLAService(&submissionDetailMock{err: sql.ErrNoRows}, &slaConfigMock{}, &holidayDatesMock{}, nil, zap.NewNop())
	h := NewSubmissionHandler(nil, sla)

	c, w := newGinContext(http.MethodGet, "/submissions/missing/sla")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.SLASummary(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSLASummaryUnclassifiedIsBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	detail := &models.SubmissionDetail{
		Submission:    models.Submission{ID: "sub-1", ReceivedDate: day(2026, time.February, 2), Status: models.StatusReceived},
		CommitteeCode: "RERC-A",
		Project:       &models.Project{ID: "proj-1", CommitteeID: "com-1"},
	}
	sla := service.NewSLAService(&submissionDetailMock{detail: detail}, &slaConfigMock{}, &holidayDatesMock{}, nil, zap.NewNop())
	h := NewSubmissionHandler(nil, sla)

	c, w := newGinContext(http.MethodGet, "/submissions/sub-1/sla")
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	h.SLASummary(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSLASummaryReturnsStageResults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	detail := &models.SubmissionDetail{
		Submission:    models.Submission{ID: "sub-1", ReceivedDate: day(2026, time.February, 2), Status: models.StatusClassified},
		CommitteeCode: "RERC-A",
		Project:       &models.Project{ID: "proj-1", CommitteeID: "com-1"},
		Classification: &models.Classification{
			SubmissionID:       "sub-1",
			ReviewType:         models.ReviewExpedited,
			ClassificationDate: day(2026, time.February, 4),
		},
		StatusHistory: []models.StatusHistoryEntry{
			{NewStatus: models.StatusUnderClassification, EffectiveDate: day(2026, time.February, 2)},
			{NewStatus: models.StatusClassified, EffectiveDate: day(2026, time.February, 4)},
		},
	}
	sla := service.NewSLAService(&submissionDetailMock{detail: detail}, &slaConfigMock{}, &holidayDatesMock{}, nil, zap.NewNop())
	h := NewSubmissionHandler(nil, sla)

	c, w := newGinContext(http.MethodGet, "/submissions/sub-1/sla")
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	h.SLASummary(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.SubmissionSLAResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "sub-1", envelope.Data.SubmissionID)
	assert.Equal(t, "RERC-A", envelope.Data.CommitteeCode)
	require.NotNil(t, envelope.Data.Classification.ActualWorkingDays)
	assert.Equal(t, 2, *envelope.Data.Classification.ActualWorkingDays)
	assert.Nil(t, envelope.Data.Review.Start)
}

func TestWorkdaysHandlerCountsRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sla := service.NewSLAService(&submissionDetailMock{}, &slaConfigMock{}, &holidayDatesMock{dates: []time.Time{day(2026, time.February, 10)}}, nil, zap.NewNop())
	h := NewWorkdaysHandler(sla)

	c, w := newGinContext(http.MethodGet, "/utils/working-days?start=2026-02-09&end=2026-02-16")

	h.WorkingDays(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.WorkingDaysResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 4, envelope.Data.WorkingDays)
	assert.Equal(t, 1, envelope.Data.Holidays)
}

func TestWorkdaysHandlerUnparseableInputIsZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sla := service.NewSLAService(&submissionDetailMock{}, &slaConfigMock{}, &holidayDatesMock{}, nil, zap.NewNop())
	h := NewWorkdaysHandler(sla)

	c, w := newGinContext(http.MethodGet, "/utils/working-days?start=garbage&end=2026-02-16")

	h.WorkingDays(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 0, data["working_days"])
}
