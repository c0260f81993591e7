package service

import (
	"context"
	"errors"

	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/pkg/apperrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExerciseRequest represents the exercise create request
type ExerciseRequest struct {
	Name        string   `json:"name" binding:"required,max=50"`
	Category    string   `json:"category" binding:"required"`
	Description string   `json:"description"`
	Equipment   []string `json:"equipment"`
	Repetitions int      `json:"repetitions" binding:"omitempty,gte=0"`
	Sets        int      `json:"sets" binding:"omitempty,gte=0"`
	MuscleGroup string   `json:"muscle_group" binding:"omitempty,max=50"`
}

// UpdateExerciseRequest represents the partial exercise update request
type UpdateExerciseRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=50"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	Equipment   *[]string `json:"equipment"`
	Repetitions *int      `json:"repetitions" binding:"omitempty,gte=0"`
	Sets        *int      `json:"sets" binding:"omitempty,gte=0"`
	MuscleGroup *string   `json:"muscle_group" binding:"omitempty,max=50"`
}

// BulkCreateExercisesRequest represents the bulk exercise create request
type BulkCreateExercisesRequest struct {
	Exercises []ExerciseRequest `json:"exercises" binding:"required,min=1,dive"`
}

// ExerciseService manages trainer-authored exercises
type ExerciseService struct {
	exerciseRepo *repository.ExerciseRepository
}

// NewExerciseService creates a new ExerciseService
func NewExerciseService(exerciseRepo *repository.ExerciseRepository) *ExerciseService {
	return &ExerciseService{exerciseRepo: exerciseRepo}
}

// Create creates an exercise owned by the trainer
func (s *ExerciseService) Create(ctx context.Context, trainerID uint, req *ExerciseRequest) (*models.Exercise, error) {
	exercise, err := exerciseFromRequest(trainerID, req)
	if err != nil {
		return nil, err
	}

	if err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("an exercise with the name %q already exists for you, please choose a different name", req.Name)
		}
		return nil, apperrors.Internal(err)
	}
	return exercise, nil
}

// BulkCreate creates multiple exercises atomically: if any insert fails, no
// exercise from the batch is persisted.
func (s *ExerciseService) BulkCreate(ctx context.Context, trainerID uint, req *BulkCreateExercisesRequest) ([]models.Exercise, error) {
	seen := make(map[string]bool, len(req.Exercises))
	exercises := make([]models.Exercise, 0, len(req.Exercises))
	for i := range req.Exercises {
		if seen[req.Exercises[i].Name] {
			return nil, apperrors.Validation("duplicate exercise name %q in batch", req.Exercises[i].Name)
		}
		seen[req.Exercises[i].Name] = true

		exercise, err := exerciseFromRequest(trainerID, &req.Exercises[i])
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *exercise)
	}

	if err := s.exerciseRepo.CreateBatch(ctx, exercises); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("one of the exercise names already exists for you, please choose a different name")
		}
		return nil, apperrors.Internal(err)
	}
	return exercises, nil
}

// Get retrieves an exercise by public identifier; any authenticated user may
// read any exercise.
func (s *ExerciseService) Get(ctx context.Context, publicID uuid.UUID) (*models.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if err == repository.ErrExerciseNotFound {
			return nil, apperrors.NotFound("the requested exercise does not exist")
		}
		return nil, apperrors.Internal(err)
	}
	return exercise, nil
}

// List retrieves exercises matching the filter
func (s *ExerciseService) List(ctx context.Context, filter repository.ExerciseFilter) ([]models.Exercise, int64, error) {
	exercises, total, err := s.exerciseRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return exercises, total, nil
}

// Update applies a partial update to an exercise owned by the trainer
func (s *ExerciseService) Update(ctx context.Context, trainerID uint, publicID uuid.UUID, req *UpdateExerciseRequest) (*models.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByPublicIDAndOwner(ctx, publicID, trainerID)
	if err != nil {
		if err == repository.ErrExerciseNotFound {
			return nil, apperrors.NotFound("the requested exercise does not exist or you do not have permission to access it")
		}
		return nil, apperrors.Internal(err)
	}

	if req.Name != nil {
		exercise.Name = *req.Name
	}
	if req.Category != nil {
		category := models.ExerciseCategory(*req.Category)
		if !category.IsValid() {
			return nil, apperrors.Validation("%q is not a valid exercise category", *req.Category).
				WithDetail("field", "category")
		}
		exercise.Category = category
	}
	if req.Description != nil {
		exercise.Description = *req.Description
	}
	if req.Equipment != nil {
		exercise.Equipment = *req.Equipment
	}
	if req.Repetitions != nil {
		exercise.Repetitions = *req.Repetitions
	}
	if req.Sets != nil {
		exercise.Sets = *req.Sets
	}
	if req.MuscleGroup != nil {
		exercise.MuscleGroup = *req.MuscleGroup
	}

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("an exercise with the name %q already exists for you, please choose a different name", exercise.Name)
		}
		return nil, apperrors.Internal(err)
	}
	return exercise, nil
}

// Delete removes an exercise owned by the trainer
func (s *ExerciseService) Delete(ctx context.Context, trainerID uint, publicID uuid.UUID) error {
	exercise, err := s.exerciseRepo.GetByPublicIDAndOwner(ctx, publicID, trainerID)
	if err != nil {
		if err == repository.ErrExerciseNotFound {
			return apperrors.NotFound("the requested exercise does not exist or you do not have permission to access it")
		}
		return apperrors.Internal(err)
	}
	if err := s.exerciseRepo.Delete(ctx, exercise); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func exerciseFromRequest(trainerID uint, req *ExerciseRequest) (*models.Exercise, error) {
	category := models.ExerciseCategory(req.Category)
	if !category.IsValid() {
		return nil, apperrors.Validation("%q is not a valid exercise category", req.Category).
			WithDetail("field", "category")
	}

	equipment := req.Equipment
	if equipment == nil {
		equipment = []string{}
	}

	return &models.Exercise{
		CreatedByID: trainerID,
		Name:        req.Name,
		Description: req.Description,
		Category:    category,
		Equipment:   equipment,
		Repetitions: req.Repetitions,
		Sets:        req.Sets,
		MuscleGroup: req.MuscleGroup,
	}, nil
}
