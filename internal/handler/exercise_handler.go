package handler

import (
	"github.com/fittrack/internal/middleware"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/internal/service"
	"github.com/fittrack/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExerciseHandler handles exercise API requests
type ExerciseHandler struct {
	exerciseService *service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler
func NewExerciseHandler(exerciseService *service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// List returns exercises with filtering, search and pagination
// GET /exercises?category=&muscle_group=&created_by=&search=&page=&page_size=
func (h *ExerciseHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := repository.ExerciseFilter{
		Category:    c.Query("category"),
		MuscleGroup: c.Query("muscle_group"),
		Search:      c.Query("search"),
		Page:        page,
		PageSize:    pageSize,
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		id, err := uuid.Parse(createdBy)
		if err != nil {
			response.BadRequest(c, "created_by must be a valid uuid")
			return
		}
		filter.CreatedBy = id
	}

	exercises, total, err := h.exerciseService.List(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessPaginated(c, exercises, total, page, pageSize)
}

// Get returns a single exercise by its public id
// GET /exercises/:id
func (h *ExerciseHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "exercise not found")
		return
	}

	exercise, err := h.exerciseService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "exercise retrieved successfully", exercise)
}

// Create adds a new exercise owned by the authenticated trainer
// POST /exercises/create
func (h *ExerciseHandler) Create(c *gin.Context) {
	var req service.ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	exercise, err := h.exerciseService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "exercise created successfully", exercise)
}

// BulkCreate atomically adds a batch of exercises
// POST /exercises/bulk-create
func (h *ExerciseHandler) BulkCreate(c *gin.Context) {
	var req service.BulkCreateExercisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	exercises, err := h.exerciseService.BulkCreate(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "exercises created successfully", exercises)
}

// Update applies a partial update to an owned exercise
// PATCH /exercises/:id/update
func (h *ExerciseHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "exercise not found")
		return
	}

	var req service.UpdateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	exercise, err := h.exerciseService.Update(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "exercise updated successfully", exercise)
}

// Delete removes an owned exercise
// DELETE /exercises/:id/delete
func (h *ExerciseHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		response.NotFound(c, "exercise not found")
		return
	}

	if err := h.exerciseService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "exercise deleted successfully", nil)
}

// RegisterRoutes registers exercise routes
func (h *ExerciseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	exercises := rg.Group("/exercises")
	{
		exercises.GET("", middleware.Require("exercises", "read"), h.List)
		exercises.GET("/:id", middleware.Require("exercises", "read"), h.Get)
		exercises.POST("/create", middleware.Require("exercises", "create"), h.Create)
		exercises.POST("/bulk-create", middleware.Require("exercises", "bulk_create"), h.BulkCreate)
		exercises.PATCH("/:id/update", middleware.Require("exercises", "update"), h.Update)
		exercises.DELETE("/:id/delete", middleware.Require("exercises", "delete"), h.Delete)
	}
}
