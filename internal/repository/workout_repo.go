package repository

import (
	"context"
	"errors"

	"github.com/fittrack/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPlanNotFound            = errors.New("workout plan not found")
	ErrWorkoutExerciseNotFound = errors.New("workout exercise not found")
	ErrSequenceSlotTaken       = errors.New("order or exercise already present in plan")
)

// PlanFilter narrows and paginates workout plan listings
type PlanFilter struct {
	Difficulty string
	CreatedBy  uuid.UUID
	Search     string
	Page       int
	PageSize   int
}

// WorkoutExerciseUpdate is one partial-update item of a bulk reorder. Nil
// fields are left unchanged.
type WorkoutExerciseUpdate struct {
	ID          uint
	Order       *int
	ExerciseID  *uint
	Repetitions *int
	Sets        *int
	RestSeconds *int
}

// WorkoutRepository handles workout plan and workout exercise data access
type WorkoutRepository struct {
	db *gorm.DB
}

// NewWorkoutRepository creates a new WorkoutRepository
func NewWorkoutRepository(db *gorm.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// CreatePlan creates a plan and its goal mappings in one transaction
func (r *WorkoutRepository) CreatePlan(ctx context.Context, plan *models.WorkoutPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		return replaceMappings(tx, plan.ID, plan.GoalTags)
	})
}

// GetPlanByPublicID retrieves a plan with its ordered exercises
func (r *WorkoutRepository) GetPlanByPublicID(ctx context.Context, publicID uuid.UUID) (*models.WorkoutPlan, error) {
	var plan models.WorkoutPlan
	result := r.db.WithContext(ctx).Preload("Exercises", func(db *gorm.DB) *gorm.DB {
		return db.Order("exercise_order ASC")
	}).Preload("Exercises.Exercise").Where("unique_id = ?", publicID).First(&plan)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, result.Error
	}
	return &plan, nil
}

// GetPlanByPublicIDAndOwner retrieves a plan owned by the given trainer
func (r *WorkoutRepository) GetPlanByPublicIDAndOwner(ctx context.Context, publicID uuid.UUID, ownerID uint) (*models.WorkoutPlan, error) {
	var plan models.WorkoutPlan
	result := r.db.WithContext(ctx).Where("unique_id = ? AND created_by_id = ?", publicID, ownerID).First(&plan)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, result.Error
	}
	return &plan, nil
}

// ListPlans retrieves plans matching the filter with pagination
func (r *WorkoutRepository) ListPlans(ctx context.Context, filter PlanFilter) ([]models.WorkoutPlan, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WorkoutPlan{})

	if filter.Difficulty != "" {
		query = query.Where("difficulty_level = ?", filter.Difficulty)
	}
	if filter.CreatedBy != uuid.Nil {
		query = query.Where("created_by_id IN (?)",
			r.db.Model(&models.User{}).Select("id").Where("unique_id = ?", filter.CreatedBy))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var plans []models.WorkoutPlan
	offset := (filter.Page - 1) * filter.PageSize
	result := query.Preload("Exercises", func(db *gorm.DB) *gorm.DB {
		return db.Order("exercise_order ASC")
	}).Preload("Exercises.Exercise").
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&plans)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return plans, total, nil
}

// UpdatePlan persists plan changes and rebuilds its goal mappings
func (r *WorkoutRepository) UpdatePlan(ctx context.Context, plan *models.WorkoutPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(plan).Error; err != nil {
			return err
		}
		return replaceMappings(tx, plan.ID, plan.GoalTags)
	})
}

// DeletePlan removes a plan and everything it owns in one transaction
func (r *WorkoutRepository) DeletePlan(ctx context.Context, planID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workout_plan_id = ?", planID).Delete(&models.WorkoutExercise{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workout_plan_id = ?", planID).Delete(&models.GoalWorkoutMapping{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.WorkoutPlan{}, planID).Error
	})
}

// PlansByGoalTypes retrieves the distinct plans mapped to any of the given
// goal types, newest first, with pagination.
func (r *WorkoutRepository) PlansByGoalTypes(ctx context.Context, types []models.GoalType, page, pageSize int) ([]models.WorkoutPlan, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.WorkoutPlan{}).
		Joins("JOIN goal_workout_mappings ON goal_workout_mappings.workout_plan_id = workout_plans.id").
		Where("goal_workout_mappings.goal_type IN ?", types).
		Distinct("workout_plans.*")

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.GoalWorkoutMapping{}).
		Where("goal_type IN ?", types).
		Distinct("workout_plan_id").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var plans []models.WorkoutPlan
	offset := (page - 1) * pageSize
	result := base.Preload("Exercises", func(db *gorm.DB) *gorm.DB {
		return db.Order("exercise_order ASC")
	}).Preload("Exercises.Exercise").
		Order("workout_plans.created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&plans)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return plans, total, nil
}

func replaceMappings(tx *gorm.DB, planID uint, tags models.StringList) error {
	if err := tx.Where("workout_plan_id = ?", planID).Delete(&models.GoalWorkoutMapping{}).Error; err != nil {
		return err
	}
	for _, tag := range tags {
		mapping := models.GoalWorkoutMapping{GoalType: models.GoalType(tag), WorkoutPlanID: planID}
		if err := tx.Create(&mapping).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetWorkoutExerciseByIDAndOwner retrieves a workout exercise whose plan is
// owned by the given trainer.
func (r *WorkoutRepository) GetWorkoutExerciseByIDAndOwner(ctx context.Context, id, ownerID uint) (*models.WorkoutExercise, error) {
	var we models.WorkoutExercise
	result := r.db.WithContext(ctx).Preload("Exercise").
		Joins("JOIN workout_plans ON workout_plans.id = workout_exercises.workout_plan_id").
		Where("workout_exercises.id = ? AND workout_plans.created_by_id = ?", id, ownerID).
		First(&we)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWorkoutExerciseNotFound
		}
		return nil, result.Error
	}
	return &we, nil
}

// GetWorkoutExercisesByIDs retrieves the rows for the given IDs; missing IDs
// are simply absent from the result.
func (r *WorkoutRepository) GetWorkoutExercisesByIDs(ctx context.Context, ids []uint) ([]models.WorkoutExercise, error) {
	var rows []models.WorkoutExercise
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// ListPlanExercises retrieves a plan's rows in sequence order
func (r *WorkoutRepository) ListPlanExercises(ctx context.Context, planID uint) ([]models.WorkoutExercise, error) {
	var rows []models.WorkoutExercise
	result := r.db.WithContext(ctx).Preload("Exercise").
		Where("workout_plan_id = ?", planID).
		Order("exercise_order ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// CreateWorkoutExercise inserts a single row. The slot check and the insert
// run in one transaction under the plan lock, so two concurrent creates
// aiming at the same order (or the same exercise) serialize and the loser
// fails with ErrSequenceSlotTaken instead of both committing.
func (r *WorkoutRepository) CreateWorkoutExercise(ctx context.Context, we *models.WorkoutExercise) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPlan(tx, we.WorkoutPlanID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.WorkoutExercise{}).
			Where("workout_plan_id = ? AND (exercise_order = ? OR exercise_id = ?)", we.WorkoutPlanID, we.Order, we.ExerciseID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSequenceSlotTaken
		}
		return tx.Create(we).Error
	})
}

// DeleteWorkoutExerciseAndShift deletes the row and closes the gap: every
// row in the same plan with a higher order shifts down by one. Both steps
// run in one transaction so readers never observe a broken sequence.
func (r *WorkoutRepository) DeleteWorkoutExerciseAndShift(ctx context.Context, we *models.WorkoutExercise) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPlan(tx, we.WorkoutPlanID); err != nil {
			return err
		}
		if err := tx.Delete(&models.WorkoutExercise{}, we.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.WorkoutExercise{}).
			Where("workout_plan_id = ? AND exercise_order > ?", we.WorkoutPlanID, we.Order).
			Update("exercise_order", gorm.Expr("exercise_order - 1")).Error
	})
}

// ApplyBulkUpdate runs the nullify+apply phases of a validated bulk update
// as one transaction. The plan row is locked first so concurrent bulk
// updates on the same plan serialize instead of interleaving their phases.
// Rows whose order changes are parked at the 0 sentinel before final values
// are written, vacating the constrained order space so overlapping
// reassignments (e.g. swapping two orders) never transiently collide.
func (r *WorkoutRepository) ApplyBulkUpdate(ctx context.Context, planID uint, items []WorkoutExerciseUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPlan(tx, planID); err != nil {
			return err
		}

		// Nullify phase
		for _, item := range items {
			if item.Order == nil {
				continue
			}
			if err := tx.Model(&models.WorkoutExercise{}).
				Where("id = ?", item.ID).
				Update("exercise_order", 0).Error; err != nil {
				return err
			}
		}

		// Apply phase
		for _, item := range items {
			updates := map[string]interface{}{}
			if item.Order != nil {
				updates["exercise_order"] = *item.Order
			}
			if item.ExerciseID != nil {
				updates["exercise_id"] = *item.ExerciseID
			}
			if item.Repetitions != nil {
				updates["repetitions"] = *item.Repetitions
			}
			if item.Sets != nil {
				updates["sets"] = *item.Sets
			}
			if item.RestSeconds != nil {
				updates["rest_seconds"] = *item.RestSeconds
			}
			if len(updates) == 0 {
				continue
			}
			if err := tx.Model(&models.WorkoutExercise{}).
				Where("id = ?", item.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// lockPlan takes a row lock on the plan for the duration of the transaction.
// SQLite (used in tests) serializes writers on its own and rejects FOR
// UPDATE, so the clause is added only on postgres.
func lockPlan(tx *gorm.DB, planID uint) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var plan models.WorkoutPlan
	if err := q.First(&plan, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	return nil
}
