package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fittrack/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGoalNotFound = errors.New("fitness goal not found")
)

// GoalRepository handles fitness goal data access
type GoalRepository struct {
	db *gorm.DB
}

// NewGoalRepository creates a new GoalRepository
func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create creates a new fitness goal
func (r *GoalRepository) Create(ctx context.Context, goal *models.FitnessGoal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

// GetByPublicIDAndUser retrieves a goal owned by the given user
func (r *GoalRepository) GetByPublicIDAndUser(ctx context.Context, publicID uuid.UUID, userID uint) (*models.FitnessGoal, error) {
	var goal models.FitnessGoal
	result := r.db.WithContext(ctx).Where("unique_id = ? AND user_id = ?", publicID, userID).First(&goal)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, result.Error
	}
	return &goal, nil
}

// ListByUser retrieves all goals for a user, newest first
func (r *GoalRepository) ListByUser(ctx context.Context, userID uint) ([]models.FitnessGoal, error) {
	var goals []models.FitnessGoal
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&goals)
	if result.Error != nil {
		return nil, result.Error
	}
	return goals, nil
}

// ActiveGoalTypes returns the distinct goal types of a user's active goals
func (r *GoalRepository) ActiveGoalTypes(ctx context.Context, userID uint) ([]models.GoalType, error) {
	var types []models.GoalType
	err := r.db.WithContext(ctx).Model(&models.FitnessGoal{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Distinct().
		Pluck("goal_type", &types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

// Update persists goal changes
func (r *GoalRepository) Update(ctx context.Context, goal *models.FitnessGoal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}

// Delete removes a goal
func (r *GoalRepository) Delete(ctx context.Context, goal *models.FitnessGoal) error {
	return r.db.WithContext(ctx).Delete(goal).Error
}

// DeactivateExpired flips is_active off for every active goal of the user
// whose end date has passed. Returns the number of goals deactivated.
func (r *GoalRepository) DeactivateExpired(ctx context.Context, userID uint, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.FitnessGoal{}).
		Where("user_id = ? AND is_active = ? AND end_date IS NOT NULL AND end_date < ?", userID, true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// DeactivateAllExpired is the sweep variant used by the maintenance worker.
// It returns the IDs of affected users so their cache versions can be bumped.
func (r *GoalRepository) DeactivateAllExpired(ctx context.Context, now time.Time) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.FitnessGoal{}).
			Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, now).
			Distinct().
			Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		return tx.Model(&models.FitnessGoal{}).
			Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, now).
			Update("is_active", false).Error
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
