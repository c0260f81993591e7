package handler

import (
	"github.com/fittrack/internal/middleware"
	"github.com/fittrack/internal/service"
	"github.com/fittrack/pkg/response"
	"github.com/gin-gonic/gin"
)

// RecommendationHandler handles workout recommendation requests
type RecommendationHandler struct {
	recService *service.RecommendationService
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(recService *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recService: recService}
}

// Recommend returns workout plans matching the caller's active goals
// GET /recommendations?page=&page_size=
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	page, pageSize := pagination(c)
	result, err := h.recService.Recommend(c.Request.Context(), middleware.GetUserID(c), page, pageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessPaginated(c, result.Plans, result.Total, result.Page, result.PageSize)
}

// RegisterRoutes registers recommendation routes
func (h *RecommendationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/recommendations", middleware.Require("recommendations", "read"), h.Recommend)
}
