package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rerc-review-api/internal/service"
	"github.com/noah-isme/rerc-review-api/pkg/response"
)

// WorkdaysHandler exposes the working-day utility endpoint.
type WorkdaysHandler struct {
	sla *service.SLAService
}

// NewWorkdaysHandler constructs WorkdaysHandler.
func NewWorkdaysHandler(sla *service.SLAService) *WorkdaysHandler {
	return &WorkdaysHandler{sla: sla}
}

// WorkingDays godoc
// @Summary Count working days between two dates
// @Tags Utilities
// @Produce json
// @Param start query string true "Range start (YYYY-MM-DD), inclusive"
// @Param end query string true "Range end (YYYY-MM-DD), exclusive"
// @Success 200 {object} response.Envelope
// @Router /utils/working-days [get]
func (h *WorkdaysHandler) WorkingDays(c *gin.Context) {
	result, err := h.sla.WorkingDays(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
