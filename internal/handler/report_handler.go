package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rerc-review-api/internal/service"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
	"github.com/noah-isme/rerc-review-api/pkg/export"
	"github.com/noah-isme/rerc-review-api/pkg/response"
)

// ReportHandler exposes academic-year reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// AcademicYear godoc
// @Summary Academic year report
// @Tags Reports
// @Produce json
// @Param academicYear query string true "Academic year, e.g. 2025-2026"
// @Param term query string false "Term selector: 1, 2, 3 or ALL"
// @Param committeeId query string false "Limit to one committee"
// @Param format query string false "Output format: json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/academic-year [get]
func (h *ReportHandler) AcademicYear(c *gin.Context) {
	academicYear := c.Query("academicYear")
	if academicYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academicYear required"))
		return
	}

	report, err := h.reports.AcademicYear(c.Request.Context(), academicYear, c.Query("term"), c.Query("committeeId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		response.JSON(c, http.StatusOK, report, nil)
	case "csv":
		dataset, _ := h.reports.Dataset(report)
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		filename := fmt.Sprintf("academic-year-%s-%s.csv", report.AcademicYear, report.Term)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		dataset, title := h.reports.Dataset(report)
		payload, err := h.pdf.Render(dataset, title)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		filename := fmt.Sprintf("academic-year-%s-%s.pdf", report.AcademicYear, report.Term)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
	}
}
