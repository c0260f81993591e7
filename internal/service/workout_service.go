package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/internal/storage"
	"github.com/fittrack/pkg/apperrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePlanRequest represents the workout plan creation request
type CreatePlanRequest struct {
	Title       string   `json:"title" binding:"required,max=100"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty_level" binding:"required"`
	GoalTags    []string `json:"goal_tags"`
	Banner      string   `json:"workout_banner"`
}

// UpdatePlanRequest represents the partial workout plan update request
type UpdatePlanRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=100"`
	Description *string   `json:"description"`
	Difficulty  *string   `json:"difficulty_level"`
	GoalTags    *[]string `json:"goal_tags"`
	Banner      *string   `json:"workout_banner"`
}

// CreateWorkoutExerciseRequest represents the single-row create request
type CreateWorkoutExerciseRequest struct {
	WorkoutPlanID uuid.UUID `json:"workout_plan" binding:"required"`
	ExerciseID    uuid.UUID `json:"exercise" binding:"required"`
	Order         int       `json:"order" binding:"required,gte=1"`
	Repetitions   int       `json:"repetitions" binding:"omitempty,gte=0"`
	Sets          int       `json:"sets" binding:"omitempty,gte=0"`
	RestSeconds   *int      `json:"rest_time" binding:"omitempty,gte=0"`
}

// BulkUpdateItem is one partial-update entry of a bulk reorder request.
// ExerciseID, when set, is the public identifier of the replacement exercise.
type BulkUpdateItem struct {
	ID          uint       `json:"id" binding:"required"`
	Order       *int       `json:"order"`
	ExerciseID  *uuid.UUID `json:"exercise"`
	Repetitions *int       `json:"repetitions" binding:"omitempty,gte=0"`
	Sets        *int       `json:"sets" binding:"omitempty,gte=0"`
	RestSeconds *int       `json:"rest_time" binding:"omitempty,gte=0"`
}

// BulkUpdateRequest represents the bulk reorder/update request
type BulkUpdateRequest struct {
	Items []BulkUpdateItem `json:"items" binding:"required,min=1,dive"`
}

// WorkoutService manages workout plans and the ordered exercise sequences
// inside them. It owns the per-plan invariants: order values are unique and
// contiguous, and an exercise appears at most once per plan.
type WorkoutService struct {
	workoutRepo  *repository.WorkoutRepository
	exerciseRepo *repository.ExerciseRepository
	banners      storage.BannerStore
	store        cache.Store
}

// NewWorkoutService creates a new WorkoutService
func NewWorkoutService(workoutRepo *repository.WorkoutRepository, exerciseRepo *repository.ExerciseRepository, banners storage.BannerStore, store cache.Store) *WorkoutService {
	return &WorkoutService{
		workoutRepo:  workoutRepo,
		exerciseRepo: exerciseRepo,
		banners:      banners,
		store:        store,
	}
}

// CreatePlan creates a workout plan owned by the trainer
func (s *WorkoutService) CreatePlan(ctx context.Context, trainerID uint, req *CreatePlanRequest) (*models.WorkoutPlan, error) {
	difficulty := models.Difficulty(req.Difficulty)
	if !difficulty.IsValid() {
		return nil, apperrors.Validation("%q is not a valid difficulty level", req.Difficulty).
			WithDetail("field", "difficulty_level")
	}
	tags, err := validateGoalTags(req.GoalTags)
	if err != nil {
		return nil, err
	}

	plan := &models.WorkoutPlan{
		CreatedByID: trainerID,
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  difficulty,
		GoalTags:    tags,
		Banner:      req.Banner,
	}
	if err := s.workoutRepo.CreatePlan(ctx, plan); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.bumpPlansVersion(ctx)

	return plan, nil
}

// GetPlan retrieves a plan with its ordered exercises; any authenticated
// user may read any plan.
func (s *WorkoutService) GetPlan(ctx context.Context, publicID uuid.UUID) (*models.WorkoutPlan, error) {
	plan, err := s.workoutRepo.GetPlanByPublicID(ctx, publicID)
	if err != nil {
		if err == repository.ErrPlanNotFound {
			return nil, apperrors.NotFound("the requested workout plan does not exist")
		}
		return nil, apperrors.Internal(err)
	}
	return plan, nil
}

// ListPlans retrieves plans matching the filter
func (s *WorkoutService) ListPlans(ctx context.Context, filter repository.PlanFilter) ([]models.WorkoutPlan, int64, error) {
	plans, total, err := s.workoutRepo.ListPlans(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return plans, total, nil
}

// UpdatePlan applies a partial update to a plan owned by the trainer and
// rebuilds its goal mappings when the tags change.
func (s *WorkoutService) UpdatePlan(ctx context.Context, trainerID uint, publicID uuid.UUID, req *UpdatePlanRequest) (*models.WorkoutPlan, error) {
	plan, err := s.ownedPlan(ctx, trainerID, publicID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		plan.Title = *req.Title
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Difficulty != nil {
		difficulty := models.Difficulty(*req.Difficulty)
		if !difficulty.IsValid() {
			return nil, apperrors.Validation("%q is not a valid difficulty level", *req.Difficulty).
				WithDetail("field", "difficulty_level")
		}
		plan.Difficulty = difficulty
	}
	if req.GoalTags != nil {
		tags, err := validateGoalTags(*req.GoalTags)
		if err != nil {
			return nil, err
		}
		plan.GoalTags = tags
	}
	if req.Banner != nil {
		plan.Banner = *req.Banner
	}

	if err := s.workoutRepo.UpdatePlan(ctx, plan); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.bumpPlansVersion(ctx)

	return plan, nil
}

// DeletePlan removes a plan, everything it owns, and its banner asset
// (unless it is the shared placeholder).
func (s *WorkoutService) DeletePlan(ctx context.Context, trainerID uint, publicID uuid.UUID) error {
	plan, err := s.ownedPlan(ctx, trainerID, publicID)
	if err != nil {
		return err
	}

	if err := s.workoutRepo.DeletePlan(ctx, plan.ID); err != nil {
		return apperrors.Internal(err)
	}

	if err := s.banners.Remove(plan.Banner); err != nil {
		log.Printf("[WorkoutService] failed to remove banner %q: %v", plan.Banner, err)
	}

	s.bumpPlansVersion(ctx)

	return nil
}

// AddExercise inserts a single row into a plan's sequence. The caller
// supplies the order; it must not collide with an existing order, and the
// exercise must not already be in the plan. Both checks run inside the
// insert transaction, so concurrent creates cannot slip past each other.
func (s *WorkoutService) AddExercise(ctx context.Context, trainerID uint, req *CreateWorkoutExerciseRequest) (*models.WorkoutExercise, error) {
	plan, err := s.ownedPlan(ctx, trainerID, req.WorkoutPlanID)
	if err != nil {
		return nil, err
	}

	exercise, err := s.exerciseRepo.GetByPublicID(ctx, req.ExerciseID)
	if err != nil {
		if err == repository.ErrExerciseNotFound {
			return nil, apperrors.NotFound("the requested exercise does not exist")
		}
		return nil, apperrors.Internal(err)
	}

	we := &models.WorkoutExercise{
		WorkoutPlanID: plan.ID,
		ExerciseID:    exercise.ID,
		Order:         req.Order,
		Repetitions:   req.Repetitions,
		Sets:          req.Sets,
		RestSeconds:   req.RestSeconds,
	}
	if err := s.workoutRepo.CreateWorkoutExercise(ctx, we); err != nil {
		if errors.Is(err, repository.ErrSequenceSlotTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("the order or exercise already exists in the workout plan")
		}
		return nil, apperrors.Internal(err)
	}
	we.Exercise = exercise

	s.bumpPlansVersion(ctx)

	return we, nil
}

// RemoveExercise deletes a row and closes the gap so the remaining orders
// stay contiguous. Delete and shift are atomic.
func (s *WorkoutService) RemoveExercise(ctx context.Context, trainerID uint, id uint) error {
	we, err := s.workoutRepo.GetWorkoutExerciseByIDAndOwner(ctx, id, trainerID)
	if err != nil {
		if err == repository.ErrWorkoutExerciseNotFound {
			return apperrors.NotFound("the requested workout exercise does not exist or you do not have permission to access it")
		}
		return apperrors.Internal(err)
	}

	if err := s.workoutRepo.DeleteWorkoutExerciseAndShift(ctx, we); err != nil {
		return apperrors.Internal(err)
	}

	s.bumpPlansVersion(ctx)

	return nil
}

// UpdateExercise applies a partial update to a single row. It runs through
// the bulk path so order/exercise changes get the same validation and
// atomicity as a batch.
func (s *WorkoutService) UpdateExercise(ctx context.Context, trainerID uint, id uint, item BulkUpdateItem) (*models.WorkoutExercise, error) {
	item.ID = id
	if err := s.BulkUpdate(ctx, trainerID, &BulkUpdateRequest{Items: []BulkUpdateItem{item}}); err != nil {
		return nil, err
	}

	we, err := s.workoutRepo.GetWorkoutExerciseByIDAndOwner(ctx, id, trainerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return we, nil
}

// BulkUpdate reorders and updates a batch of rows belonging to one plan.
// Validation happens before any write; the nullify and apply phases then run
// in one transaction, so a failing batch leaves the plan untouched.
func (s *WorkoutService) BulkUpdate(ctx context.Context, trainerID uint, req *BulkUpdateRequest) error {
	ids := make([]uint, 0, len(req.Items))
	itemByID := make(map[uint]*BulkUpdateItem, len(req.Items))
	for i := range req.Items {
		item := &req.Items[i]
		if _, dup := itemByID[item.ID]; dup {
			return apperrors.Validation("duplicate workout exercise id %d in batch", item.ID)
		}
		if item.Order != nil && *item.Order < 1 {
			return apperrors.Validation("order must be a positive integer").WithDetail("id", item.ID)
		}
		itemByID[item.ID] = item
		ids = append(ids, item.ID)
	}

	rows, err := s.workoutRepo.GetWorkoutExercisesByIDs(ctx, ids)
	if err != nil {
		return apperrors.Internal(err)
	}
	if len(rows) != len(ids) {
		found := make(map[uint]bool, len(rows))
		for _, row := range rows {
			found[row.ID] = true
		}
		missing := make([]uint, 0)
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return apperrors.NotFound("workout exercises not found: %v", missing).WithDetail("missing_ids", missing)
	}

	planID := rows[0].WorkoutPlanID
	for _, row := range rows {
		if row.WorkoutPlanID != planID {
			return apperrors.Validation("all workout exercises must belong to the same workout plan")
		}
	}

	// Ownership gate doubles as the not-found response so existence of other
	// trainers' plans is not leaked.
	if _, err := s.workoutRepo.GetWorkoutExerciseByIDAndOwner(ctx, rows[0].ID, trainerID); err != nil {
		if err == repository.ErrWorkoutExerciseNotFound {
			return apperrors.NotFound("the requested workout exercises do not exist or you do not have permission to access them")
		}
		return apperrors.Internal(err)
	}

	updates, err := s.resolveBatch(ctx, planID, rows, itemByID)
	if err != nil {
		return err
	}

	if err := s.workoutRepo.ApplyBulkUpdate(ctx, planID, updates); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Pre-validation passed, so this is a concurrent write racing the
			// transaction rather than bad input.
			return apperrors.Internal(fmt.Errorf("bulk update lost uniqueness race: %w", err))
		}
		return apperrors.Internal(err)
	}

	s.bumpPlansVersion(ctx)

	return nil
}

// resolveBatch validates the requested target state against the whole plan
// and resolves public exercise IDs to internal ones.
func (s *WorkoutService) resolveBatch(ctx context.Context, planID uint, rows []models.WorkoutExercise, itemByID map[uint]*BulkUpdateItem) ([]repository.WorkoutExerciseUpdate, error) {
	planRows, err := s.workoutRepo.ListPlanExercises(ctx, planID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	// Final order and exercise per row, batch items applied over current state
	finalOrder := make(map[uint]int, len(planRows))
	finalExercise := make(map[uint]uint, len(planRows))
	for _, row := range planRows {
		finalOrder[row.ID] = row.Order
		finalExercise[row.ID] = row.ExerciseID
	}

	updates := make([]repository.WorkoutExerciseUpdate, 0, len(rows))
	for _, row := range rows {
		item := itemByID[row.ID]
		update := repository.WorkoutExerciseUpdate{
			ID:          row.ID,
			Order:       item.Order,
			Repetitions: item.Repetitions,
			Sets:        item.Sets,
			RestSeconds: item.RestSeconds,
		}
		if item.Order != nil {
			finalOrder[row.ID] = *item.Order
		}
		if item.ExerciseID != nil {
			exercise, err := s.exerciseRepo.GetByPublicID(ctx, *item.ExerciseID)
			if err != nil {
				if err == repository.ErrExerciseNotFound {
					return nil, apperrors.NotFound("the requested exercise does not exist")
				}
				return nil, apperrors.Internal(err)
			}
			update.ExerciseID = &exercise.ID
			finalExercise[row.ID] = exercise.ID
		}
		updates = append(updates, update)
	}

	if err := checkFinalState(finalOrder, finalExercise, itemByID); err != nil {
		return nil, err
	}
	return updates, nil
}

// checkFinalState rejects any target state that would break the per-plan
// invariants: duplicated orders or duplicated exercises. Collisions between
// two batch items are validation errors; a batch item colliding with an
// untouched row is a conflict.
func checkFinalState(finalOrder map[uint]int, finalExercise map[uint]uint, itemByID map[uint]*BulkUpdateItem) error {
	rowIDs := make([]uint, 0, len(finalOrder))
	for id := range finalOrder {
		rowIDs = append(rowIDs, id)
	}
	sort.Slice(rowIDs, func(i, j int) bool { return rowIDs[i] < rowIDs[j] })

	byOrder := make(map[int]uint, len(rowIDs))
	byExercise := make(map[uint]uint, len(rowIDs))
	for _, id := range rowIDs {
		order := finalOrder[id]
		if otherID, taken := byOrder[order]; taken {
			if bothInBatch(id, otherID, itemByID) {
				return apperrors.Validation("duplicate order %d requested in batch", order)
			}
			return apperrors.Conflict("order %d is already taken in the workout plan", order)
		}
		byOrder[order] = id

		exerciseID := finalExercise[id]
		if otherID, taken := byExercise[exerciseID]; taken {
			if bothInBatch(id, otherID, itemByID) {
				return apperrors.Validation("duplicate exercise requested in batch")
			}
			return apperrors.Conflict("the exercise already exists in the workout plan")
		}
		byExercise[exerciseID] = id
	}
	return nil
}

func bothInBatch(a, b uint, itemByID map[uint]*BulkUpdateItem) bool {
	_, aIn := itemByID[a]
	_, bIn := itemByID[b]
	return aIn && bIn
}

func (s *WorkoutService) ownedPlan(ctx context.Context, trainerID uint, publicID uuid.UUID) (*models.WorkoutPlan, error) {
	plan, err := s.workoutRepo.GetPlanByPublicIDAndOwner(ctx, publicID, trainerID)
	if err != nil {
		if err == repository.ErrPlanNotFound {
			return nil, apperrors.NotFound("the requested workout plan does not exist or you do not have permission to access it")
		}
		return nil, apperrors.Internal(err)
	}
	return plan, nil
}

// bumpPlansVersion invalidates every user's cached recommendations after a
// committed plan write. Plan content affects all users, so the counter is
// global rather than per-user.
func (s *WorkoutService) bumpPlansVersion(ctx context.Context) {
	if _, err := s.store.Incr(ctx, cache.PlansVersionKey()); err != nil {
		log.Printf("[WorkoutService] failed to bump plans cache version: %v", err)
	}
}

func validateGoalTags(tags []string) (models.StringList, error) {
	out := make(models.StringList, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if !models.GoalType(tag).IsValid() {
			return nil, apperrors.Validation("%q is not a valid goal type tag", tag).
				WithDetail("field", "goal_tags")
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, nil
}
