package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/config"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/pkg/apperrors"
	"github.com/google/uuid"
)

// ProfileResponse is the current-user detail payload
type ProfileResponse struct {
	PublicID    uuid.UUID `json:"unique_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Gender      string    `json:"gender"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Avatar      string    `json:"avatar"`
	Height      float64   `json:"height"`
	Weight      float64   `json:"weight"`
	IsTrainer   bool      `json:"is_trainer"`
}

// UpdateProfileRequest represents the profile update request
type UpdateProfileRequest struct {
	FirstName   *string  `json:"first_name" binding:"omitempty,max=255"`
	LastName    *string  `json:"last_name" binding:"omitempty,max=255"`
	Gender      *string  `json:"gender" binding:"omitempty,oneof=Men Woman"`
	DateOfBirth *string  `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Height      *float64 `json:"height" binding:"omitempty,gte=0.5,lte=2.5"`
	Weight      *float64 `json:"weight" binding:"omitempty,gte=2,lte=300"`
}

// UserService serves and mutates user profiles. Reads go through the
// versioned profile cache; every successful write bumps the user's cache
// version after commit, orphaning stale entries.
type UserService struct {
	userRepo *repository.UserRepository
	store    cache.Store
	ttl      time.Duration
}

// NewUserService creates a new UserService
func NewUserService(userRepo *repository.UserRepository, store cache.Store, cacheCfg config.CacheConfig) *UserService {
	return &UserService{
		userRepo: userRepo,
		store:    store,
		ttl:      cacheCfg.TTL(),
	}
}

// Profile returns the current user's profile, from cache when possible
func (s *UserService) Profile(ctx context.Context, userID uint) (*ProfileResponse, error) {
	ver, err := s.store.GetInt(ctx, cache.UserVersionKey(userID))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	key := cache.ProfileKey(userID, ver)

	if cached, err := s.store.Get(ctx, key); err == nil {
		var resp ProfileResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	} else if err != cache.ErrMiss {
		return nil, apperrors.Internal(err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err)
	}

	resp := NewProfileResponse(user)
	if encoded, err := json.Marshal(resp); err == nil {
		if err := s.store.Set(ctx, key, string(encoded), s.ttl); err != nil {
			log.Printf("[UserService] failed to cache profile for user %d: %v", userID, err)
		}
	}
	return resp, nil
}

// UpdateProfile applies a partial profile update and invalidates the user's
// cached entries.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err)
	}

	if req.DateOfBirth != nil {
		parsed, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, apperrors.Validation("date_of_birth must be in YYYY-MM-DD format").
				WithDetail("field", "date_of_birth")
		}
		if parsed.After(time.Now()) {
			return nil, apperrors.Validation("date_of_birth cannot be in the future").
				WithDetail("field", "date_of_birth")
		}
		user.DateOfBirth = &parsed
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Gender != nil {
		user.Gender = models.Gender(*req.Gender)
	}
	if req.Height != nil {
		user.HeightM = *req.Height
	}
	if req.Weight != nil {
		user.WeightKg = *req.Weight
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.bumpVersion(ctx, userID)

	return NewProfileResponse(user), nil
}

// bumpVersion increments the user's cache version after a committed write
func (s *UserService) bumpVersion(ctx context.Context, userID uint) {
	if _, err := s.store.Incr(ctx, cache.UserVersionKey(userID)); err != nil {
		log.Printf("[UserService] failed to bump cache version for user %d: %v", userID, err)
	}
}

// NewProfileResponse builds the public profile payload for a user
func NewProfileResponse(user *models.User) *ProfileResponse {
	resp := &ProfileResponse{
		PublicID:  user.PublicID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Gender:    string(user.Gender),
		Avatar:    user.Avatar,
		Height:    user.HeightM,
		Weight:    user.WeightKg,
		IsTrainer: user.IsTrainer,
	}
	if user.DateOfBirth != nil {
		resp.DateOfBirth = user.DateOfBirth.Format("2006-01-02")
	}
	return resp
}
