package handler

import (
	"github.com/fittrack/internal/middleware"
	"github.com/fittrack/internal/service"
	"github.com/fittrack/pkg/response"
	"github.com/gin-gonic/gin"
)

// UserHandler handles current-user profile requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CurrentUser returns the authenticated user's profile
// GET /current_user
func (h *UserHandler) CurrentUser(c *gin.Context) {
	profile, err := h.userService.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "profile retrieved successfully", profile)
}

// UpdateProfile applies a partial profile update
// PATCH /current_user
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "profile updated successfully", profile)
}

// RegisterRoutes registers current-user routes
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/current_user", middleware.Require("users", "read"), h.CurrentUser)
	rg.PATCH("/current_user", middleware.Require("users", "update"), h.UpdateProfile)
}
