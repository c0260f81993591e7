package service

import (
	"context"
	"testing"

	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newExerciseServiceForTest(t *testing.T, db *gorm.DB) *ExerciseService {
	t.Helper()
	return NewExerciseService(repository.NewExerciseRepository(db))
}

func TestCreateExerciseInvalidCategory(t *testing.T) {
	db := newTestDB(t)
	svc := newExerciseServiceForTest(t, db)
	trainer := createTestUser(t, db, "trainer@example.com", true)

	_, err := svc.Create(context.Background(), trainer.ID, &ExerciseRequest{Name: "Bench Press", Category: "Juggling"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestCreateExerciseDuplicateNamePerTrainer(t *testing.T) {
	db := newTestDB(t)
	svc := newExerciseServiceForTest(t, db)
	trainer := createTestUser(t, db, "trainer@example.com", true)
	other := createTestUser(t, db, "other@example.com", true)

	req := &ExerciseRequest{Name: "Bench Press", Category: string(models.CategoryStrength)}
	_, err := svc.Create(context.Background(), trainer.ID, req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), trainer.ID, req)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	// Uniqueness is scoped per trainer
	_, err = svc.Create(context.Background(), other.ID, req)
	assert.NoError(t, err)
}

func TestBulkCreateRejectsIntraBatchDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := newExerciseServiceForTest(t, db)
	trainer := createTestUser(t, db, "trainer@example.com", true)

	_, err := svc.BulkCreate(context.Background(), trainer.ID, &BulkCreateExercisesRequest{Exercises: []ExerciseRequest{
		{Name: "Squat", Category: string(models.CategoryStrength)},
		{Name: "Squat", Category: string(models.CategoryStrength)},
	}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestBulkCreateIsAtomic(t *testing.T) {
	db := newTestDB(t)
	svc := newExerciseServiceForTest(t, db)
	trainer := createTestUser(t, db, "trainer@example.com", true)
	createTestExercise(t, db, trainer.ID, "Deadlift")

	_, err := svc.BulkCreate(context.Background(), trainer.ID, &BulkCreateExercisesRequest{Exercises: []ExerciseRequest{
		{Name: "Squat", Category: string(models.CategoryStrength)},
		{Name: "Deadlift", Category: string(models.CategoryStrength)},
	}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	// Nothing from the failed batch was persisted
	var count int64
	require.NoError(t, db.Model(&models.Exercise{}).Where("created_by_id = ?", trainer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetExerciseUnknownID(t *testing.T) {
	db := newTestDB(t)
	svc := newExerciseServiceForTest(t, db)

	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestUpdateExerciseOwnershipGate(t *testing.T) {
	db := newTestDB(t)
	svc := newExerciseServiceForTest(t, db)
	trainer := createTestUser(t, db, "trainer@example.com", true)
	other := createTestUser(t, db, "other@example.com", true)
	exercise := createTestExercise(t, db, trainer.ID, "Bench Press")

	name := "Incline Bench Press"
	_, err := svc.Update(context.Background(), other.ID, exercise.PublicID, &UpdateExerciseRequest{Name: &name})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	updated, err := svc.Update(context.Background(), trainer.ID, exercise.PublicID, &UpdateExerciseRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
}

func TestListExercisesFilters(t *testing.T) {
	db := newTestDB(t)
	svc := newExerciseServiceForTest(t, db)
	trainer := createTestUser(t, db, "trainer@example.com", true)

	createTestExercise(t, db, trainer.ID, "Bench Press")
	require.NoError(t, db.Create(&models.Exercise{
		CreatedByID: trainer.ID,
		Name:        "Treadmill Run",
		Category:    models.CategoryCardio,
		MuscleGroup: "Legs",
	}).Error)

	exercises, total, err := svc.List(context.Background(), repository.ExerciseFilter{
		Category: string(models.CategoryCardio),
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, exercises, 1)
	assert.Equal(t, "Treadmill Run", exercises[0].Name)

	exercises, total, err = svc.List(context.Background(), repository.ExerciseFilter{
		Search:   "Bench",
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, exercises, 1)
	assert.Equal(t, "Bench Press", exercises[0].Name)
}
