package handler

import (
	"github.com/fittrack/internal/middleware"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/internal/service"
	"github.com/fittrack/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WorkoutHandler handles workout plan and workout exercise API requests
type WorkoutHandler struct {
	workoutService *service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler
func NewWorkoutHandler(workoutService *service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// ListPlans returns workout plans with filtering, search and pagination
// GET /workout_plans?difficulty_level=&created_by=&search=&page=&page_size=
func (h *WorkoutHandler) ListPlans(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := repository.PlanFilter{
		Difficulty: c.Query("difficulty_level"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		id, err := uuid.Parse(createdBy)
		if err != nil {
			response.BadRequest(c, "created_by must be a valid uuid")
			return
		}
		filter.CreatedBy = id
	}

	plans, total, err := h.workoutService.ListPlans(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessPaginated(c, plans, total, page, pageSize)
}

// GetPlan returns a single workout plan with its ordered exercises
// GET /workout_plans/:id
func (h *WorkoutHandler) GetPlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "workout plan not found")
		return
	}

	plan, err := h.workoutService.GetPlan(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "workout plan retrieved successfully", plan)
}

// CreatePlan adds a workout plan owned by the authenticated trainer
// POST /workout_plans/create
func (h *WorkoutHandler) CreatePlan(c *gin.Context) {
	var req service.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	plan, err := h.workoutService.CreatePlan(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "workout plan created successfully", plan)
}

// UpdatePlan applies a partial update to an owned workout plan
// PATCH /workout_plans/:id/update
func (h *WorkoutHandler) UpdatePlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "workout plan not found")
		return
	}

	var req service.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	plan, err := h.workoutService.UpdatePlan(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "workout plan updated successfully", plan)
}

// DeletePlan removes an owned workout plan and its exercise rows
// DELETE /workout_plans/:id/delete
func (h *WorkoutHandler) DeletePlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "workout plan not found")
		return
	}

	if err := h.workoutService.DeletePlan(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "workout plan deleted successfully", nil)
}

// CreateWorkoutExercise appends an exercise to a plan's sequence
// POST /workout_exercises/create
func (h *WorkoutHandler) CreateWorkoutExercise(c *gin.Context) {
	var req service.CreateWorkoutExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	we, err := h.workoutService.AddExercise(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "workout exercise created successfully", we)
}

// UpdateWorkoutExercise applies a partial update to one sequence row
// PATCH /workout_exercises/:id/update
func (h *WorkoutHandler) UpdateWorkoutExercise(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.NotFound(c, "workout exercise not found")
		return
	}

	var item service.BulkUpdateItem
	if err := c.ShouldBindJSON(&item); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	item.ID = id

	we, err := h.workoutService.UpdateExercise(c.Request.Context(), middleware.GetUserID(c), id, item)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "workout exercise updated successfully", we)
}

// BulkUpdateWorkoutExercises atomically reorders a plan's sequence
// PATCH /workout_exercises/bulk-update
func (h *WorkoutHandler) BulkUpdateWorkoutExercises(c *gin.Context) {
	var req service.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.workoutService.BulkUpdate(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "workout exercises updated successfully", nil)
}

// DeleteWorkoutExercise removes one row and closes the order gap
// DELETE /workout_exercises/:id/delete
func (h *WorkoutHandler) DeleteWorkoutExercise(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.NotFound(c, "workout exercise not found")
		return
	}

	if err := h.workoutService.RemoveExercise(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "workout exercise deleted successfully", nil)
}

// RegisterRoutes registers workout plan and workout exercise routes
func (h *WorkoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	plans := rg.Group("/workout_plans")
	{
		plans.GET("", middleware.Require("workout_plans", "read"), h.ListPlans)
		plans.GET("/:id", middleware.Require("workout_plans", "read"), h.GetPlan)
		plans.POST("/create", middleware.Require("workout_plans", "create"), h.CreatePlan)
		plans.PATCH("/:id/update", middleware.Require("workout_plans", "update"), h.UpdatePlan)
		plans.DELETE("/:id/delete", middleware.Require("workout_plans", "delete"), h.DeletePlan)
	}

	exercises := rg.Group("/workout_exercises")
	{
		exercises.POST("/create", middleware.Require("workout_exercises", "create"), h.CreateWorkoutExercise)
		exercises.PATCH("/bulk-update", middleware.Require("workout_exercises", "bulk_update"), h.BulkUpdateWorkoutExercises)
		exercises.PATCH("/:id/update", middleware.Require("workout_exercises", "update"), h.UpdateWorkoutExercise)
		exercises.DELETE("/:id/delete", middleware.Require("workout_exercises", "delete"), h.DeleteWorkoutExercise)
	}
}
