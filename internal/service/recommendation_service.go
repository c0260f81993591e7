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
)

// RecommendationPage is one cached page of recommended workout plans
type RecommendationPage struct {
	Plans    []models.WorkoutPlan `json:"plans"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// RecommendationService maps a user's active goals to tagged workout plans.
// Results are cached under the user's and the global plans' cache versions:
// bumping either version makes every entry built under the old pair
// unreachable, so invalidation never has to enumerate keys.
type RecommendationService struct {
	goalRepo    *repository.GoalRepository
	workoutRepo *repository.WorkoutRepository
	store       cache.Store
	ttl         time.Duration
}

// NewRecommendationService creates a new RecommendationService
func NewRecommendationService(goalRepo *repository.GoalRepository, workoutRepo *repository.WorkoutRepository, store cache.Store, cacheCfg config.CacheConfig) *RecommendationService {
	return &RecommendationService{
		goalRepo:    goalRepo,
		workoutRepo: workoutRepo,
		store:       store,
		ttl:         cacheCfg.TTL(),
	}
}

// Recommend returns the plans matching the user's active goal tags,
// paginated. Fails with a not-found error when the user has no active goals.
func (s *RecommendationService) Recommend(ctx context.Context, userID uint, page, pageSize int) (*RecommendationPage, error) {
	userVer, err := s.store.GetInt(ctx, cache.UserVersionKey(userID))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	plansVer, err := s.store.GetInt(ctx, cache.PlansVersionKey())
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	key := cache.RecommendationKey(userID, userVer, plansVer, page, pageSize)

	if cached, err := s.store.Get(ctx, key); err == nil {
		var result RecommendationPage
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result, nil
		}
	} else if err != cache.ErrMiss {
		return nil, apperrors.Internal(err)
	}

	// Apply the deadline rule before reading so a lapsed goal never feeds a
	// recommendation.
	if _, err := s.goalRepo.DeactivateExpired(ctx, userID, time.Now()); err != nil {
		return nil, apperrors.Internal(err)
	}

	goalTypes, err := s.goalRepo.ActiveGoalTypes(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(goalTypes) == 0 {
		return nil, apperrors.NotFound("you don't have any active fitness goals")
	}

	plans, total, err := s.workoutRepo.PlansByGoalTypes(ctx, goalTypes, page, pageSize)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := &RecommendationPage{
		Plans:    plans,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	if encoded, err := json.Marshal(result); err == nil {
		if err := s.store.Set(ctx, key, string(encoded), s.ttl); err != nil {
			log.Printf("[RecommendationService] failed to cache recommendations for user %d: %v", userID, err)
		}
	}
	return result, nil
}
