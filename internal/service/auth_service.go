package service

import (
	"context"
	"log"
	"time"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/config"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/pkg/apperrors"
	"github.com/fittrack/pkg/crypto"
)

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	FirstName   string  `json:"first_name" binding:"required,max=255"`
	LastName    string  `json:"last_name" binding:"required,max=255"`
	Password    string  `json:"password" binding:"required,min=8,max=100"`
	Gender      string  `json:"gender" binding:"omitempty,oneof=Men Woman"`
	DateOfBirth string  `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Height      float64 `json:"height" binding:"required,gte=0.5,lte=2.5"`
	Weight      float64 `json:"weight" binding:"required,gte=2,lte=300"`
	IsTrainer   bool    `json:"is_trainer"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// AuthService handles registration, login and logout
type AuthService struct {
	userRepo  *repository.UserRepository
	tokens    *TokenService
	store     cache.Store
	rateLimit config.RateLimitConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo *repository.UserRepository, tokens *TokenService, store cache.Store, rateLimit config.RateLimitConfig) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		store:     store,
		rateLimit: rateLimit,
	}
}

// Register creates a user and issues the initial token pair
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, *TokenPair, error) {
	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, nil, apperrors.Validation("date_of_birth must be in YYYY-MM-DD format").
				WithDetail("field", "date_of_birth")
		}
		if parsed.After(time.Now()) {
			return nil, nil, apperrors.Validation("date_of_birth shouldn't be in the future").
				WithDetail("field", "date_of_birth")
		}
		dob = &parsed
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	if exists {
		return nil, nil, apperrors.Validation("a user with this email already exists").
			WithDetail("field", "email")
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	gender := models.GenderMen
	if req.Gender != "" {
		gender = models.Gender(req.Gender)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsTrainer:    req.IsTrainer,
		Gender:       gender,
		DateOfBirth:  dob,
		HeightM:      req.Height,
		WeightKg:     req.Weight,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	return user, pair, nil
}

// Login authenticates credentials under a fixed-window rate limit keyed by
// email and client IP, and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, clientIP string) (*models.User, *TokenPair, error) {
	key := cache.LoginRateKey(req.Email, clientIP)
	count, err := s.store.IncrWithTTL(ctx, key, s.rateLimit.Window())
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	if count > int64(s.rateLimit.LoginAttempts) {
		availableIn := int(s.rateLimit.Window().Seconds())
		if ttl, err := s.store.TTL(ctx, key); err == nil && ttl > 0 {
			availableIn = int(ttl.Seconds())
		}
		if availableIn < 1 {
			availableIn = 1
		}
		return nil, nil, apperrors.RateLimit(availableIn)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, nil, apperrors.Validation("invalid email or password")
		}
		return nil, nil, apperrors.Internal(err)
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, nil, apperrors.Validation("invalid email or password")
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	return user, pair, nil
}

// Logout blacklists the presented refresh token. Blacklisting is
// best-effort: a failure is logged but never blocks the logout itself.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		log.Printf("[AuthService] logout: could not blacklist refresh token: %v", err)
	}
}
