package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rerc-review-api/internal/models"
	"github.com/noah-isme/rerc-review-api/internal/service"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
	"github.com/noah-isme/rerc-review-api/pkg/response"
	"github.com/noah-isme/rerc-review-api/pkg/workdays"
)

// SubmissionHandler exposes protocol submission endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	sla         *service.SLAService
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService, sla *service.SLAService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, sla: sla}
}

// List godoc
// @Summary List submissions
// @Tags Submissions
// @Produce json
// @Param projectId query string false "Filter by project"
// @Param committeeId query string false "Filter by committee"
// @Param status query string false "Filter by status"
// @Param sequence query int false "Filter by sequence number"
// @Param receivedFrom query string false "Received on or after (YYYY-MM-DD)"
// @Param receivedTo query string false "Received before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	var filter models.SubmissionFilter
	filter.ProjectID = c.Query("projectId")
	filter.CommitteeID = c.Query("committeeId")
	filter.Status = models.SubmissionStatus(c.Query("status"))
	if sequence := c.Query("sequence"); sequence != "" {
		if parsed, err := strconv.Atoi(sequence); err == nil {
			filter.SequenceNumber = &parsed
		}
	}
	if from := workdays.ParseDate(c.Query("receivedFrom")); !from.IsZero() {
		filter.ReceivedFrom = &from
	}
	if to := workdays.ParseDate(c.Query("receivedTo")); !to.IsZero() {
		filter.ReceivedTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	submissions, pagination, err := h.submissions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, pagination)
}

// Get godoc
// @Summary Get submission detail
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	detail, err := h.submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Register submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req service.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// Transition godoc
// @Summary Transition submission status
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/status [post]
func (h *SubmissionHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Transition(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Classify godoc
// @Summary Classify submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.ClassifyRequest true "Classification payload"
// @Success 201 {object} response.Envelope
// @Router /submissions/{id}/classify [post]
func (h *SubmissionHandler) Classify(c *gin.Context) {
	var req service.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classification, err := h.submissions.Classify(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classification)
}

// Decision godoc
// @Summary Record final decision
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.DecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/decision [put]
func (h *SubmissionHandler) Decision(c *gin.Context) {
	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.SetDecision(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// SLASummary godoc
// @Summary Per-submission SLA summary
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/sla [get]
func (h *SubmissionHandler) SLASummary(c *gin.Context) {
	summary, err := h.sla.SummaryForSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
