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

// HolidayHandler exposes holiday calendar endpoints.
type HolidayHandler struct {
	holidays *service.HolidayService
}

// NewHolidayHandler constructs HolidayHandler.
func NewHolidayHandler(holidays *service.HolidayService) *HolidayHandler {
	return &HolidayHandler{holidays: holidays}
}

// List godoc
// @Summary List holidays
// @Tags Holidays
// @Produce json
// @Param from query string false "On or after (YYYY-MM-DD)"
// @Param to query string false "Before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	var filter models.HolidayFilter
	if from := workdays.ParseDate(c.Query("from")); !from.IsZero() {
		filter.From = &from
	}
	if to := workdays.ParseDate(c.Query("to")); !to.IsZero() {
		filter.To = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}

	holidays, pagination, err := h.holidays.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, pagination)
}

// Create godoc
// @Summary Create holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body service.HolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Router /holidays [post]
func (h *HolidayHandler) Create(c *gin.Context) {
	var req service.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	holiday, err := h.holidays.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// Update godoc
// @Summary Update holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param id path string true "Holiday ID"
// @Param payload body service.HolidayRequest true "Holiday payload"
// @Success 200 {object} response.Envelope
// @Router /holidays/{id} [put]
func (h *HolidayHandler) Update(c *gin.Context) {
	var req service.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	holiday, err := h.holidays.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holiday, nil)
}

// Delete godoc
// @Summary Delete holiday
// @Tags Holidays
// @Param id path string true "Holiday ID"
// @Success 204
// @Router /holidays/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	if err := h.holidays.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
