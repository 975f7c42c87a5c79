package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/danarifka/studyplan-api/internal/middleware"
	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/internal/service"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
	"github.com/danarifka/studyplan-api/pkg/response"
)

// GoalHandler exposes learning goal endpoints.
type GoalHandler struct {
	goals *service.GoalService
}

// NewGoalHandler constructs GoalHandler.
func NewGoalHandler(goals *service.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// List godoc
// @Summary List learning goals
// @Tags Goals
// @Produce json
// @Param difficulty query int false "Filter by difficulty level"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	filter := models.GoalFilter{UserID: middleware.CurrentUserID(c)}
	if raw := c.Query("difficulty"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.Difficulty = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	goals, pagination, err := h.goals.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goals, pagination)
}

// Get godoc
// @Summary Get one learning goal
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	goal, err := h.goals.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal, nil)
}

// Create godoc
// @Summary Create a learning goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param payload body service.CreateGoalRequest true "Goal payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	var req service.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	goal, err := h.goals.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, goal)
}

// Update godoc
// @Summary Update a learning goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body service.UpdateGoalRequest true "Goal payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /goals/{id} [put]
func (h *GoalHandler) Update(c *gin.Context) {
	var req service.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	goal, err := h.goals.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal, nil)
}

// Delete godoc
// @Summary Delete a learning goal
// @Tags Goals
// @Param id path string true "Goal ID"
// @Success 204
// @Security BearerAuth
// @Router /goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	if err := h.goals.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
