package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/danarifka/studyplan-api/internal/dto"
	"github.com/danarifka/studyplan-api/internal/service"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
	"github.com/danarifka/studyplan-api/pkg/response"
)

// RecommendationHandler exposes resource recommendation endpoints.
type RecommendationHandler struct {
	recommender *service.RecommenderService
	metrics     *service.MetricsService
}

// NewRecommendationHandler constructs RecommendationHandler.
func NewRecommendationHandler(recommender *service.RecommenderService, metrics *service.MetricsService) *RecommendationHandler {
	return &RecommendationHandler{recommender: recommender, metrics: metrics}
}

// Recommend godoc
// @Summary Recommend resources for a topic
// @Tags Recommendations
// @Produce json
// @Param topic query string true "Free-text topic"
// @Param top_k query int false "Maximum results"
// @Param type query string false "Restrict to one resource type"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /recommendations [get]
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	query := dto.RecommendationQuery{
		Topic: c.Query("topic"),
		Type:  c.Query("type"),
	}
	if query.Topic == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "topic is required"))
		return
	}
	if raw := c.Query("top_k"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			query.TopK = v
		}
	}

	results, err := h.recommender.Recommend(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordRecommendation()
	response.JSON(c, http.StatusOK, results, nil)
}
