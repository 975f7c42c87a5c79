package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danarifka/studyplan-api/internal/dto"
	"github.com/danarifka/studyplan-api/internal/middleware"
	"github.com/danarifka/studyplan-api/internal/service"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
	"github.com/danarifka/studyplan-api/pkg/response"
)

// ScheduleHandler exposes schedule generation and management endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
	video     *service.VideoScheduleService
	metrics   *service.MetricsService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService, video *service.VideoScheduleService, metrics *service.MetricsService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, video: video, metrics: metrics}
}

// Generate godoc
// @Summary Generate a weekly study schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generation options"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	start := time.Now()
	schedule, err := h.schedules.Generate(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveScheduleGeneration(schedule.Feasible, time.Since(start))
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Feasibility godoc
// @Summary Check whether goals fit availability
// @Tags Schedules
// @Produce json
// @Param goal_ids query string false "Comma separated goal IDs"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/feasibility [get]
func (h *ScheduleHandler) Feasibility(c *gin.Context) {
	var goalIDs []string
	if raw := strings.TrimSpace(c.Query("goal_ids")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				goalIDs = append(goalIDs, id)
			}
		}
	}
	report, err := h.schedules.CheckFeasibility(c.Request.Context(), middleware.CurrentUserID(c), goalIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// GenerateVideo godoc
// @Summary Generate a chunked schedule for one long video
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.VideoScheduleRequest true "Video details"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/video [post]
func (h *ScheduleHandler) GenerateVideo(c *gin.Context) {
	var req dto.VideoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	availability, err := h.schedules.Availability(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.video.Generate(c.Request.Context(), req, availability)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List saved schedules
// @Tags Schedules
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, pagination, err := h.schedules.List(c.Request.Context(), middleware.CurrentUserID(c), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get one saved schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	record, err := h.schedules.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete a saved schedule
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Security BearerAuth
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.schedules.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export a saved schedule as PDF or CSV
// @Tags Schedules
// @Produce application/pdf
// @Param id path string true "Schedule ID"
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /schedules/{id}/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	id := c.Param("id")

	var (
		payload     []byte
		filename    string
		contentType string
		err         error
	)
	switch c.DefaultQuery("format", "pdf") {
	case "csv":
		payload, filename, err = h.schedules.ExportCSV(c.Request.Context(), userID, id)
		contentType = "text/csv"
	case "pdf":
		payload, filename, err = h.schedules.ExportPDF(c.Request.Context(), userID, id)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
