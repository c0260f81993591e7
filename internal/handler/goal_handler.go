package handler

import (
	"github.com/fittrack/internal/middleware"
	"github.com/fittrack/internal/service"
	"github.com/fittrack/pkg/response"
	"github.com/gin-gonic/gin"
)

// GoalHandler handles fitness goal API requests
type GoalHandler struct {
	goalService *service.GoalService
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// Create adds a fitness goal for the authenticated user
// POST /fitness_goals/create
func (h *GoalHandler) Create(c *gin.Context) {
	var req service.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	goal, err := h.goalService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "fitness goal created successfully", goal)
}

// List returns the authenticated user's goals
// GET /fitness_goals
func (h *GoalHandler) List(c *gin.Context) {
	goals, err := h.goalService.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	page, pageSize := pagination(c)
	total := int64(len(goals))
	start := (page - 1) * pageSize
	if start > len(goals) {
		start = len(goals)
	}
	end := start + pageSize
	if end > len(goals) {
		end = len(goals)
	}
	response.SuccessPaginated(c, goals[start:end], total, page, pageSize)
}

// Get returns a single goal by its public id
// GET /fitness_goals/:id
func (h *GoalHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "fitness goal not found")
		return
	}

	goal, err := h.goalService.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "fitness goal retrieved successfully", goal)
}

// Update applies a partial goal update
// PATCH /fitness_goals/:id/update
func (h *GoalHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "fitness goal not found")
		return
	}

	var req service.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	goal, err := h.goalService.Update(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "fitness goal updated successfully", goal)
}

// Delete removes a goal
// DELETE /fitness_goals/:id/delete
func (h *GoalHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "fitness goal not found")
		return
	}

	if err := h.goalService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "fitness goal deleted successfully", nil)
}

// RegisterRoutes registers fitness goal routes
func (h *GoalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	goals := rg.Group("/fitness_goals")
	{
		goals.GET("", middleware.Require("goals", "read"), h.List)
		goals.GET("/:id", middleware.Require("goals", "read"), h.Get)
		goals.POST("/create", middleware.Require("goals", "create"), h.Create)
		goals.PATCH("/:id/update", middleware.Require("goals", "update"), h.Update)
		goals.DELETE("/:id/delete", middleware.Require("goals", "delete"), h.Delete)
	}
}
