package repository

import (
	"context"
	"errors"

	"github.com/fittrack/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrExerciseNotFound = errors.New("exercise not found")
)

// ExerciseFilter narrows and paginates exercise listings
type ExerciseFilter struct {
	Category    string
	MuscleGroup string
	CreatedBy   uuid.UUID
	Search      string
	Page        int
	PageSize    int
}

// ExerciseRepository handles exercise data access
type ExerciseRepository struct {
	db *gorm.DB
}

// NewExerciseRepository creates a new ExerciseRepository
func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// Create creates a new exercise
func (r *ExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	return r.db.WithContext(ctx).Create(exercise).Error
}

// CreateBatch inserts all exercises in one transaction; any failure rolls
// back the whole batch.
func (r *ExerciseRepository) CreateBatch(ctx context.Context, exercises []models.Exercise) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range exercises {
			if err := tx.Create(&exercises[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByPublicID retrieves an exercise by public identifier
func (r *ExerciseRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Exercise, error) {
	var exercise models.Exercise
	result := r.db.WithContext(ctx).Where("unique_id = ?", publicID).First(&exercise)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, result.Error
	}
	return &exercise, nil
}

// GetByPublicIDAndOwner retrieves an exercise owned by the given trainer
func (r *ExerciseRepository) GetByPublicIDAndOwner(ctx context.Context, publicID uuid.UUID, ownerID uint) (*models.Exercise, error) {
	var exercise models.Exercise
	result := r.db.WithContext(ctx).Where("unique_id = ? AND created_by_id = ?", publicID, ownerID).First(&exercise)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, result.Error
	}
	return &exercise, nil
}

// List retrieves exercises matching the filter with pagination
func (r *ExerciseRepository) List(ctx context.Context, filter ExerciseFilter) ([]models.Exercise, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Exercise{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MuscleGroup != "" {
		query = query.Where("muscle_group = ?", filter.MuscleGroup)
	}
	if filter.CreatedBy != uuid.Nil {
		query = query.Where("created_by_id IN (?)",
			r.db.Model(&models.User{}).Select("id").Where("unique_id = ?", filter.CreatedBy))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exercises []models.Exercise
	offset := (filter.Page - 1) * filter.PageSize
	result := query.Order("name ASC").Offset(offset).Limit(filter.PageSize).Find(&exercises)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return exercises, total, nil
}

// Update persists exercise changes
func (r *ExerciseRepository) Update(ctx context.Context, exercise *models.Exercise) error {
	return r.db.WithContext(ctx).Save(exercise).Error
}

// Delete removes an exercise
func (r *ExerciseRepository) Delete(ctx context.Context, exercise *models.Exercise) error {
	return r.db.WithContext(ctx).Delete(exercise).Error
}
