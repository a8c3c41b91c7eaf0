package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rerc-review-api/internal/models"
	"github.com/noah-isme/rerc-review-api/internal/service"
	appErrors "github.com/noah-isme/rerc-review-api/pkg/errors"
	"github.com/noah-isme/rerc-review-api/pkg/response"
)

// CommitteeHandler exposes committee and SLA target endpoints.
type CommitteeHandler struct {
	committees *service.CommitteeService
}

// NewCommitteeHandler constructs CommitteeHandler.
func NewCommitteeHandler(committees *service.CommitteeService) *CommitteeHandler {
	return &CommitteeHandler{committees: committees}
}

// List godoc
// @Summary List committees
// @Tags Committees
// @Produce json
// @Param search query string false "Search by code or name"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /committees [get]
func (h *CommitteeHandler) List(c *gin.Context) {
	var filter models.CommitteeFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if active := c.Query("active"); active != "" {
		if parsed, err := strconv.ParseBool(active); err == nil {
			filter.IsActive = &parsed
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	committees, pagination, err := h.committees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, committees, pagination)
}

// Get godoc
// @Summary Get committee
// @Tags Committees
// @Produce json
// @Param id path string true "Committee ID"
// @Success 200 {object} response.Envelope
// @Router /committees/{id} [get]
func (h *CommitteeHandler) Get(c *gin.Context) {
	committee, err := h.committees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, committee, nil)
}

// Create godoc
// @Summary Create committee
// @Tags Committees
// @Accept json
// @Produce json
// @Param payload body service.CommitteeRequest true "Committee payload"
// @Success 201 {object} response.Envelope
// @Router /committees [post]
func (h *CommitteeHandler) Create(c *gin.Context) {
	var req service.CommitteeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	committee, err := h.committees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, committee)
}

// Update godoc
// @Summary Update committee
// @Tags Committees
// @Accept json
// @Produce json
// @Param id path string true "Committee ID"
// @Param payload body service.CommitteeRequest true "Committee payload"
// @Success 200 {object} response.Envelope
// @Router /committees/{id} [put]
func (h *CommitteeHandler) Update(c *gin.Context) {
	var req service.CommitteeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	committee, err := h.committees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, committee, nil)
}

// Delete godoc
// @Summary Delete committee
// @Tags Committees
// @Param id path string true "Committee ID"
// @Success 204
// @Router /committees/{id} [delete]
func (h *CommitteeHandler) Delete(c *gin.Context) {
	if err := h.committees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSLAConfigs godoc
// @Summary List committee SLA targets
// @Tags Committees
// @Produce json
// @Param id path string true "Committee ID"
// @Param active query bool false "Only active targets"
// @Success 200 {object} response.Envelope
// @Router /committees/{id}/sla-configs [get]
func (h *CommitteeHandler) ListSLAConfigs(c *gin.Context) {
	activeOnly := false
	if active := c.Query("active"); active != "" {
		if parsed, err := strconv.ParseBool(active); err == nil {
			activeOnly = parsed
		}
	}
	configs, err := h.committees.ListSLAConfigs(c.Request.Context(), c.Param("id"), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// CreateSLAConfig godoc
// @Summary Create committee SLA target
// @Tags Committees
// @Accept json
// @Produce json
// @Param id path string true "Committee ID"
// @Param payload body service.SLAConfigRequest true "SLA target payload"
// @Success 201 {object} response.Envelope
// @Router /committees/{id}/sla-configs [post]
func (h *CommitteeHandler) CreateSLAConfig(c *gin.Context) {
	var req service.SLAConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.committees.CreateSLAConfig(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, config)
}

// UpdateSLAConfig godoc
// @Summary Update committee SLA target
// @Tags Committees
// @Accept json
// @Produce json
// @Param id path string true "Committee ID"
// @Param configId path string true "SLA target ID"
// @Param payload body service.SLAConfigRequest true "SLA target payload"
// @Success 200 {object} response.Envelope
// @Router /committees/{id}/sla-configs/{configId} [put]
func (h *CommitteeHandler) UpdateSLAConfig(c *gin.Context) {
	var req service.SLAConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.committees.UpdateSLAConfig(c.Request.Context(), c.Param("id"), c.Param("configId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// DeleteSLAConfig godoc
// @Summary Delete committee SLA target
// @Tags Committees
// @Param id path string true "Committee ID"
// @Param configId path string true "SLA target ID"
// @Success 204
// @Router /committees/{id}/sla-configs/{configId} [delete]
func (h *CommitteeHandler) DeleteSLAConfig(c *gin.Context) {
	if err := h.committees.DeleteSLAConfig(c.Request.Context(), c.Param("id"), c.Param("configId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
