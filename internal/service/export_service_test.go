package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rerc-review-api/internal/dto"
	"github.com/noah-isme/rerc-review-api/internal/models"
	"github.com/noah-isme/rerc-review-api/internal/repository"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
	"github.com/noah-isme/rerc-review-api/pkg/export"
	"github.com/noah-isme/rerc-review-api/pkg/jobs"
	"github.com/noah-isme/rerc-review-api/pkg/storage"
)

type reportBuilderStub struct{}

func (reportBuilderStub) AcademicYear(ctx context.Context, academicYear, term, committeeID string) (*dto.AcademicYearReport, error) {
	return &dto.AcademicYearReport{
		AcademicYear: academicYear,
		Term:         models.TermAll,
		Totals:       dto.ReportTotals{Received: 2, Exempted: 1, Expedited: 1},
	}, nil
}

func (reportBuilderStub) Dataset(report *dto.AcademicYearReport) (export.Dataset, string) {
	return export.Dataset{
		Headers: []string{"college_or_unit", "received"},
		Rows: []map[string]string{
			{"college_or_unit": "COS", "received": "2"},
		},
	}, "Academic Year " + report.AcademicYear + " Report"
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(reportBuilderStub{}, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:           "job-1",
		AcademicYear: "2025-2026",
		Term:         models.TermAll,
		Format:       models.ExportFormatCSV,
		CreatedBy:    "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/reports/export/")

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:           "job-2",
		AcademicYear: "2025-2026",
		Term:         "1",
		Format:       models.ExportFormatPDF,
		CreatedBy:    "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ExportFormatPDF, result.Format)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:           "job-3",
		AcademicYear: "2025-2026",
		Term:         models.TermAll,
		Format:       models.ExportFormatCSV,
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-3", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

type memoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.ExportJob
}

func newMemoryJobStore() *memoryJobStore {
	return &memoryJobStore{jobs: make(map[string]*models.ExportJob)}
}

func (m *memoryJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		job.ID = "job-" + time.Now().Format("150405.000")
	}
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memoryJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	copied := *job
	return &copied, nil
}

func (m *memoryJobStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return os.ErrNotExist
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *memoryJobStore) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queued := make([]models.ExportJob, 0)
	for _, job := range m.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (m *memoryJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type queueStub struct {
	enqueued []jobs.Job
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

func TestExportJobServiceCreateJobQueues(t *testing.T) {
	store := newMemoryJobStore()
	queue := &queueStub{}
	exporter, _ := newExportServiceForTest(t)
	svc := NewExportJobService(store, queue, exporter, zap.NewNop(), ExportJobServiceConfig{})

	status, err := svc.CreateJob(context.Background(), ExportRequest{AcademicYear: "2025-2026", Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, status.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, status.ID, queue.enqueued[0].ID)
}

func TestExportJobServiceCreateJobRejectsBadInput(t *testing.T) {
	store := newMemoryJobStore()
	exporter, _ := newExportServiceForTest(t)
	svc := NewExportJobService(store, &queueStub{}, exporter, zap.NewNop(), ExportJobServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ExportRequest{Format: models.ExportFormatCSV}, "user-1")
	require.Error(t, err)

	_, err = svc.CreateJob(context.Background(), ExportRequest{AcademicYear: "2025-2026", Format: "docx"}, "user-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportJobServiceStatusOwnership(t *testing.T) {
	store := newMemoryJobStore()
	exporter, _ := newExportServiceForTest(t)
	svc := NewExportJobService(store, &queueStub{}, exporter, zap.NewNop(), ExportJobServiceConfig{})

	created, err := svc.CreateJob(context.Background(), ExportRequest{AcademicYear: "2025-2026"}, "user-1")
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), created.ID, "someone-else", models.RoleStaff)
	require.Error(t, err)

	status, err := svc.GetStatus(context.Background(), created.ID, "someone-else", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, created.ID, status.ID)
}

func TestExportWorkerMarksJobFinished(t *testing.T) {
	store := newMemoryJobStore()
	exporter, _ := newExportServiceForTest(t)
	worker := NewExportWorker(store, exporter, 3, zap.NewNop())

	job := &models.ExportJob{
		ID:           "job-w1",
		AcademicYear: "2025-2026",
		Term:         models.TermAll,
		Format:       models.ExportFormatCSV,
		Status:       models.ExportStatusQueued,
	}
	require.NoError(t, store.Create(context.Background(), job))

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-w1", Type: "academic-year-export"})
	require.NoError(t, err)

	updated, err := store.GetByID(context.Background(), "job-w1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	require.NotNil(t, updated.ResultURL)
	assert.Contains(t, *updated.ResultURL, "/reports/export/")
}
