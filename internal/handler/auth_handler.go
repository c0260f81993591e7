package handler

import (
	"errors"

	"github.com/fittrack/internal/middleware"
	"github.com/fittrack/internal/service"
	"github.com/fittrack/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication API requests
type AuthHandler struct {
	authService  *service.AuthService
	tokenService *service.TokenService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, tokenService *service.TokenService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenService: tokenService,
	}
}

// Register handles user registration
// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, pair, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	middleware.SetTokenCookies(c, pair)
	response.Created(c, "user registered successfully", gin.H{
		"user":   service.NewProfileResponse(user),
		"tokens": pair,
	})
}

// Login handles user login
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, pair, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		response.FromError(c, err)
		return
	}

	middleware.SetTokenCookies(c, pair)
	response.Success(c, "login successful", gin.H{
		"user":   service.NewProfileResponse(user),
		"tokens": pair,
	})
}

// Logout blacklists the refresh cookie and clears both credential cookies.
// Blacklist failures never block logout.
// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && refreshToken != "" {
		h.authService.Logout(c.Request.Context(), refreshToken)
	}
	middleware.ClearTokenCookies(c)
	response.Success(c, "logged out successfully", nil)
}

// Refresh rotates a refresh token into a new pair
// POST /token/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie
		}
	}
	if req.RefreshToken == "" {
		middleware.ClearTokenCookies(c)
		response.Unauthorized(c, "refresh token required")
		return
	}

	pair, err := h.tokenService.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrTokenExpired) ||
			errors.Is(err, service.ErrTokenInvalid) ||
			errors.Is(err, service.ErrTokenBlacklisted) {
			middleware.ClearTokenCookies(c)
			response.Unauthorized(c, "refresh token invalid or expired, you should login again")
			return
		}
		response.InternalError(c, "failed to refresh token")
		return
	}

	middleware.SetTokenCookies(c, pair)
	response.Success(c, "token refreshed successfully", pair)
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", middleware.AuthLoggerMiddleware(), h.Register)
	rg.POST("/login", middleware.AuthLoggerMiddleware(), h.Login)
	rg.POST("/logout", h.Logout)
	rg.POST("/token/refresh", h.Refresh)
}
