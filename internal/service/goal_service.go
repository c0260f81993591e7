package service

import (
	"context"
	"log"
	"time"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/pkg/apperrors"
	"github.com/google/uuid"
)

// CreateGoalRequest represents the goal creation request
type CreateGoalRequest struct {
	GoalType    string `json:"goal_type" binding:"required"`
	EndDate     string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Description string `json:"description"`
}

// UpdateGoalRequest represents the partial goal update request. StartDate is
// fixed at creation and cannot be changed.
type UpdateGoalRequest struct {
	GoalType    *string `json:"goal_type"`
	EndDate     *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// GoalService manages fitness goals. Reads first deactivate any goal whose
// deadline has passed, so a stale is_active flag is never served; writes
// bump the user's cache version after commit.
type GoalService struct {
	goalRepo *repository.GoalRepository
	store    cache.Store
}

// NewGoalService creates a new GoalService
func NewGoalService(goalRepo *repository.GoalRepository, store cache.Store) *GoalService {
	return &GoalService{
		goalRepo: goalRepo,
		store:    store,
	}
}

// Create creates a fitness goal for the user
func (s *GoalService) Create(ctx context.Context, userID uint, req *CreateGoalRequest) (*models.FitnessGoal, error) {
	goalType := models.GoalType(req.GoalType)
	if !goalType.IsValid() {
		return nil, apperrors.Validation("%q is not a valid goal type", req.GoalType).
			WithDetail("field", "goal_type")
	}

	startDate := time.Now().UTC().Truncate(24 * time.Hour)
	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, apperrors.Validation("end_date must be in YYYY-MM-DD format").
				WithDetail("field", "end_date")
		}
		if !parsed.After(startDate) {
			return nil, apperrors.Validation("end_date must be greater than the start date").
				WithDetail("field", "end_date")
		}
		endDate = &parsed
	}

	goal := &models.FitnessGoal{
		UserID:      userID,
		GoalType:    goalType,
		StartDate:   startDate,
		EndDate:     endDate,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.bumpVersion(ctx, userID)

	return goal, nil
}

// Get retrieves one of the user's goals by public identifier
func (s *GoalService) Get(ctx context.Context, userID uint, publicID uuid.UUID) (*models.FitnessGoal, error) {
	s.deactivateExpired(ctx, userID)

	goal, err := s.goalRepo.GetByPublicIDAndUser(ctx, publicID, userID)
	if err != nil {
		if err == repository.ErrGoalNotFound {
			return nil, apperrors.NotFound("the requested fitness goal does not exist or you do not have permission to access it")
		}
		return nil, apperrors.Internal(err)
	}
	return goal, nil
}

// List retrieves all of the user's goals
func (s *GoalService) List(ctx context.Context, userID uint) ([]models.FitnessGoal, error) {
	s.deactivateExpired(ctx, userID)

	goals, err := s.goalRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return goals, nil
}

// Update applies a partial update to one of the user's goals
func (s *GoalService) Update(ctx context.Context, userID uint, publicID uuid.UUID, req *UpdateGoalRequest) (*models.FitnessGoal, error) {
	goal, err := s.goalRepo.GetByPublicIDAndUser(ctx, publicID, userID)
	if err != nil {
		if err == repository.ErrGoalNotFound {
			return nil, apperrors.NotFound("the requested fitness goal does not exist or you do not have permission to access it")
		}
		return nil, apperrors.Internal(err)
	}

	if req.GoalType != nil {
		goalType := models.GoalType(*req.GoalType)
		if !goalType.IsValid() {
			return nil, apperrors.Validation("%q is not a valid goal type", *req.GoalType).
				WithDetail("field", "goal_type")
		}
		goal.GoalType = goalType
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			goal.EndDate = nil
		} else {
			parsed, err := time.Parse("2006-01-02", *req.EndDate)
			if err != nil {
				return nil, apperrors.Validation("end_date must be in YYYY-MM-DD format").
					WithDetail("field", "end_date")
			}
			if !parsed.After(goal.StartDate) {
				return nil, apperrors.Validation("end_date must be greater than the start date").
					WithDetail("field", "end_date")
			}
			goal.EndDate = &parsed
		}
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.IsActive != nil {
		goal.IsActive = *req.IsActive
	}

	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.bumpVersion(ctx, userID)

	return goal, nil
}

// Delete removes one of the user's goals
func (s *GoalService) Delete(ctx context.Context, userID uint, publicID uuid.UUID) error {
	goal, err := s.goalRepo.GetByPublicIDAndUser(ctx, publicID, userID)
	if err != nil {
		if err == repository.ErrGoalNotFound {
			return apperrors.NotFound("the requested fitness goal does not exist or you do not have permission to access it")
		}
		return apperrors.Internal(err)
	}

	if err := s.goalRepo.Delete(ctx, goal); err != nil {
		return apperrors.Internal(err)
	}

	s.bumpVersion(ctx, userID)

	return nil
}

// deactivateExpired applies the deadline rule on the read path. The
// maintenance worker runs the same sweep periodically; doing it here as well
// keeps reads correct between ticks.
func (s *GoalService) deactivateExpired(ctx context.Context, userID uint) {
	if _, err := s.goalRepo.DeactivateExpired(ctx, userID, time.Now()); err != nil {
		log.Printf("[GoalService] failed to deactivate expired goals for user %d: %v", userID, err)
	}
}

func (s *GoalService) bumpVersion(ctx context.Context, userID uint) {
	if _, err := s.store.Incr(ctx, cache.UserVersionKey(userID)); err != nil {
		log.Printf("[GoalService] failed to bump cache version for user %d: %v", userID, err)
	}
}
