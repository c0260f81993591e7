package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fittrack/internal/service"
	"github.com/fittrack/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	// AccessTokenCookie stores the access token between requests
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie stores the refresh token between requests
	RefreshTokenCookie = "refresh_token"

	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the key for the user email in gin context
	ContextKeyEmail = "email"
	// ContextKeyIsTrainer is the key for the trainer flag in gin context
	ContextKeyIsTrainer = "is_trainer"
	// ContextKeyAuthenticated marks requests with a verified credential
	ContextKeyAuthenticated = "authenticated"
)

// SetTokenCookies stages the token pair as HTTP-only strict-same-site
// cookies on the response.
func SetTokenCookies(c *gin.Context, pair *service.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, pair.AccessToken, 0, "/", "", true, true)
	c.SetCookie(RefreshTokenCookie, pair.RefreshToken, 0, "/", "", true, true)
}

// ClearTokenCookies removes both credential cookies
func ClearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", true, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", true, true)
}

// Authenticate validates the request's access token, transparently rotating
// an expired one with the refresh cookie. It runs on every route: requests
// without any credential pass through anonymous, and RequireAuth gates the
// protected ones.
//
// On a successful rotation the new claims are substituted into the request
// context before any handler or permission check runs, and the new pair is
// staged onto the response headers so the controller's response carries the
// fresh cookies.
func Authenticate(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := bearerToken(c)
		if accessToken == "" {
			if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
				accessToken = cookie
			}
		}
		if accessToken == "" {
			c.Next()
			return
		}

		claims, err := tokens.Validate(accessToken)
		if err == nil {
			setIdentity(c, claims)
			c.Next()
			return
		}

		if !errors.Is(err, service.ErrTokenExpired) && !errors.Is(err, service.ErrTokenInvalid) {
			response.InternalError(c, "internal server error")
			c.Abort()
			return
		}

		refreshToken, cookieErr := c.Cookie(RefreshTokenCookie)
		if cookieErr != nil || refreshToken == "" {
			ClearTokenCookies(c)
			response.Unauthorized(c, "authentication required, please log in again")
			c.Abort()
			return
		}

		pair, rotateErr := tokens.Rotate(c.Request.Context(), refreshToken)
		if rotateErr != nil {
			if errors.Is(rotateErr, service.ErrTokenExpired) ||
				errors.Is(rotateErr, service.ErrTokenInvalid) ||
				errors.Is(rotateErr, service.ErrTokenBlacklisted) {
				ClearTokenCookies(c)
				response.Unauthorized(c, "refresh token invalid or expired, you should login again")
				c.Abort()
				return
			}
			response.InternalError(c, "internal server error")
			c.Abort()
			return
		}

		newClaims, err := tokens.Validate(pair.AccessToken)
		if err != nil {
			response.InternalError(c, "internal server error")
			c.Abort()
			return
		}

		setIdentity(c, newClaims)
		SetTokenCookies(c, pair)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func setIdentity(c *gin.Context, claims *service.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyEmail, claims.Email)
	c.Set(ContextKeyIsTrainer, claims.IsTrainer)
	c.Set(ContextKeyAuthenticated, true)
}

// GetUserID gets the authenticated user ID from the gin context
func GetUserID(c *gin.Context) uint {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	return userID.(uint)
}

// IsTrainer reports whether the authenticated user is a trainer
func IsTrainer(c *gin.Context) bool {
	isTrainer, exists := c.Get(ContextKeyIsTrainer)
	if !exists {
		return false
	}
	return isTrainer.(bool)
}

// IsAuthenticated reports whether the request carries a verified credential
func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(ContextKeyAuthenticated)
}
