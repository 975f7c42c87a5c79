package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danarifka/studyplan-api/internal/middleware"
	"github.com/danarifka/studyplan-api/internal/service"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
	"github.com/danarifka/studyplan-api/pkg/response"
)

// AvailabilityHandler exposes weekly availability endpoints.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// List godoc
// @Summary List weekly availability
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	records, err := h.availability.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Create godoc
// @Summary Add one availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.AvailabilitySlotRequest true "Availability slot"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req service.AvailabilitySlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.availability.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update one availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body service.AvailabilitySlotRequest true "Availability slot"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /availability/{id} [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	var req service.AvailabilitySlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.availability.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete one availability slot
// @Tags Availability
// @Param id path string true "Slot ID"
// @Success 204
// @Security BearerAuth
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	if err := h.availability.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Replace godoc
// @Summary Replace the full weekly availability
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.ReplaceAvailabilityRequest true "Weekly slots"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /availability [put]
func (h *AvailabilityHandler) Replace(c *gin.Context) {
	var req service.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	records, err := h.availability.Replace(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
