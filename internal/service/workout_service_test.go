package service

import (
	"context"
	"testing"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// workoutFixture wires a plan owned by one trainer with n sequenced
// exercises at orders 1..n.
type workoutFixture struct {
	db      *gorm.DB
	svc     *WorkoutService
	store   *fakeStore
	trainer *models.User
	plan    *models.WorkoutPlan
	rows    []*models.WorkoutExercise
}

func newWorkoutFixture(t *testing.T, n int) *workoutFixture {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStore()
	f := &workoutFixture{
		db:      db,
		svc:     newWorkoutServiceForTest(t, db, store),
		store:   store,
		trainer: createTestUser(t, db, "trainer@example.com", true),
	}
	f.plan = createTestPlan(t, db, f.trainer.ID, "Full Body", string(models.GoalStrength))
	for i := 1; i <= n; i++ {
		exercise := createTestExercise(t, db, f.trainer.ID, "Exercise "+string(rune('A'+i-1)))
		f.rows = append(f.rows, addPlanExercise(t, db, f.plan.ID, exercise.ID, i))
	}
	return f
}

func TestCreatePlanInvalidTag(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkoutServiceForTest(t, db, newFakeStore())
	trainer := createTestUser(t, db, "trainer@example.com", true)

	_, err := svc.CreatePlan(context.Background(), trainer.ID, &CreatePlanRequest{
		Title:      "Plan",
		Difficulty: string(models.DifficultyBeginner),
		GoalTags:   []string{"Jogging"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestCreatePlanAssignsDefaultBanner(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkoutServiceForTest(t, db, newFakeStore())
	trainer := createTestUser(t, db, "trainer@example.com", true)

	plan, err := svc.CreatePlan(context.Background(), trainer.ID, &CreatePlanRequest{
		Title:      "Plan",
		Difficulty: string(models.DifficultyBeginner),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultBanner, plan.Banner)
}

func TestAddExerciseDuplicateOrderConflict(t *testing.T) {
	f := newWorkoutFixture(t, 1)
	other := createTestExercise(t, f.db, f.trainer.ID, "Other Exercise")

	_, err := f.svc.AddExercise(context.Background(), f.trainer.ID, &CreateWorkoutExerciseRequest{
		WorkoutPlanID: f.plan.PublicID,
		ExerciseID:    other.PublicID,
		Order:         1,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
}

func TestAddExerciseDuplicateExerciseConflict(t *testing.T) {
	f := newWorkoutFixture(t, 1)

	var existing models.Exercise
	require.NoError(t, f.db.First(&existing, f.rows[0].ExerciseID).Error)

	_, err := f.svc.AddExercise(context.Background(), f.trainer.ID, &CreateWorkoutExerciseRequest{
		WorkoutPlanID: f.plan.PublicID,
		ExerciseID:    existing.PublicID,
		Order:         2,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
}

func TestAddExerciseAppends(t *testing.T) {
	f := newWorkoutFixture(t, 2)
	exercise := createTestExercise(t, f.db, f.trainer.ID, "New Exercise")

	we, err := f.svc.AddExercise(context.Background(), f.trainer.ID, &CreateWorkoutExerciseRequest{
		WorkoutPlanID: f.plan.PublicID,
		ExerciseID:    exercise.PublicID,
		Order:         3,
		Repetitions:   12,
		Sets:          3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, we.Order)
	assert.Equal(t, []int{1, 2, 3}, planOrders(t, f.db, f.plan.ID))
}

// The slot check runs inside the insert transaction, so a writer that did
// not pre-check (e.g. one racing another create) still cannot commit a
// second row at a taken order or a second row for the same exercise.
func TestCreateWorkoutExerciseRejectsTakenSlot(t *testing.T) {
	f := newWorkoutFixture(t, 1)
	repo := repository.NewWorkoutRepository(f.db)
	other := createTestExercise(t, f.db, f.trainer.ID, "Other Exercise")

	err := repo.CreateWorkoutExercise(context.Background(), &models.WorkoutExercise{
		WorkoutPlanID: f.plan.ID,
		ExerciseID:    other.ID,
		Order:         1,
	})
	require.ErrorIs(t, err, repository.ErrSequenceSlotTaken)

	err = repo.CreateWorkoutExercise(context.Background(), &models.WorkoutExercise{
		WorkoutPlanID: f.plan.ID,
		ExerciseID:    f.rows[0].ExerciseID,
		Order:         2,
	})
	require.ErrorIs(t, err, repository.ErrSequenceSlotTaken)

	// Neither attempt left a row behind
	assert.Equal(t, []int{1}, planOrders(t, f.db, f.plan.ID))
}

func TestRemoveExerciseShiftsOrdersDown(t *testing.T) {
	f := newWorkoutFixture(t, 4)

	require.NoError(t, f.svc.RemoveExercise(context.Background(), f.trainer.ID, f.rows[1].ID))

	assert.Equal(t, []int{1, 2, 3}, planOrders(t, f.db, f.plan.ID))

	// The rows above the removed one each moved down exactly one slot
	var moved models.WorkoutExercise
	require.NoError(t, f.db.First(&moved, f.rows[3].ID).Error)
	assert.Equal(t, 3, moved.Order)
}

func TestRemoveExerciseOwnershipGate(t *testing.T) {
	f := newWorkoutFixture(t, 1)
	other := createTestUser(t, f.db, "other@example.com", true)

	err := f.svc.RemoveExercise(context.Background(), other.ID, f.rows[0].ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestBulkUpdateSwapsOrders(t *testing.T) {
	f := newWorkoutFixture(t, 2)

	one, two := 1, 2
	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, Order: &two},
		{ID: f.rows[1].ID, Order: &one},
	}})
	require.NoError(t, err)

	var first, second models.WorkoutExercise
	require.NoError(t, f.db.First(&first, f.rows[0].ID).Error)
	require.NoError(t, f.db.First(&second, f.rows[1].ID).Error)
	assert.Equal(t, 2, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, []int{1, 2}, planOrders(t, f.db, f.plan.ID))
}

func TestBulkUpdateRotatesThreeRows(t *testing.T) {
	f := newWorkoutFixture(t, 3)

	one, two, three := 1, 2, 3
	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, Order: &two},
		{ID: f.rows[1].ID, Order: &three},
		{ID: f.rows[2].ID, Order: &one},
	}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, planOrders(t, f.db, f.plan.ID))
}

func TestBulkUpdateMissingIDs(t *testing.T) {
	f := newWorkoutFixture(t, 1)

	two := 2
	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, Order: &two},
		{ID: 9999, Order: &two},
	}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	assert.Equal(t, []uint{9999}, apperrors.As(err).Details["missing_ids"])
}

func TestBulkUpdateDuplicateOrderInBatch(t *testing.T) {
	f := newWorkoutFixture(t, 2)

	three := 3
	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, Order: &three},
		{ID: f.rows[1].ID, Order: &three},
	}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestBulkUpdateConflictWithUntouchedRow(t *testing.T) {
	f := newWorkoutFixture(t, 2)

	// Row 2 is not in the batch and already holds order 2
	two := 2
	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, Order: &two},
	}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	// The failed batch left the plan untouched
	assert.Equal(t, []int{1, 2}, planOrders(t, f.db, f.plan.ID))
	var row models.WorkoutExercise
	require.NoError(t, f.db.First(&row, f.rows[0].ID).Error)
	assert.Equal(t, 1, row.Order)
}

func TestBulkUpdateOrderMustBePositive(t *testing.T) {
	f := newWorkoutFixture(t, 1)

	zero := 0
	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, Order: &zero},
	}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestBulkUpdateCrossPlanRejected(t *testing.T) {
	f := newWorkoutFixture(t, 1)
	otherPlan := createTestPlan(t, f.db, f.trainer.ID, "Other Plan")
	exercise := createTestExercise(t, f.db, f.trainer.ID, "Other Plan Exercise")
	otherRow := addPlanExercise(t, f.db, otherPlan.ID, exercise.ID, 1)

	three := 3
	four := 4
	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, Order: &three},
		{ID: otherRow.ID, Order: &four},
	}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestBulkUpdateOwnershipGate(t *testing.T) {
	f := newWorkoutFixture(t, 1)
	other := createTestUser(t, f.db, "other@example.com", true)

	two := 2
	err := f.svc.BulkUpdate(context.Background(), other.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, Order: &two},
	}})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestBulkUpdateSwapsExercises(t *testing.T) {
	f := newWorkoutFixture(t, 2)

	var firstEx, secondEx models.Exercise
	require.NoError(t, f.db.First(&firstEx, f.rows[0].ExerciseID).Error)
	require.NoError(t, f.db.First(&secondEx, f.rows[1].ExerciseID).Error)

	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, ExerciseID: &secondEx.PublicID},
		{ID: f.rows[1].ID, ExerciseID: &firstEx.PublicID},
	}})
	require.NoError(t, err)

	var first, second models.WorkoutExercise
	require.NoError(t, f.db.First(&first, f.rows[0].ID).Error)
	require.NoError(t, f.db.First(&second, f.rows[1].ID).Error)
	assert.Equal(t, secondEx.ID, first.ExerciseID)
	assert.Equal(t, firstEx.ID, second.ExerciseID)
}

func TestBulkUpdateDuplicateExerciseWithUntouchedRow(t *testing.T) {
	f := newWorkoutFixture(t, 2)

	var secondEx models.Exercise
	require.NoError(t, f.db.First(&secondEx, f.rows[1].ExerciseID).Error)

	err := f.svc.BulkUpdate(context.Background(), f.trainer.ID, &BulkUpdateRequest{Items: []BulkUpdateItem{
		{ID: f.rows[0].ID, ExerciseID: &secondEx.PublicID},
	}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
}

func TestUpdateExerciseSingleRow(t *testing.T) {
	f := newWorkoutFixture(t, 2)

	reps := 15
	we, err := f.svc.UpdateExercise(context.Background(), f.trainer.ID, f.rows[0].ID, BulkUpdateItem{
		Repetitions: &reps,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, we.Repetitions)
	assert.Equal(t, 1, we.Order)
}

func TestOrderInvariantAcrossSequence(t *testing.T) {
	f := newWorkoutFixture(t, 5)

	// Delete from the middle, then the head, then append twice: orders must
	// stay unique and contiguous after each step.
	require.NoError(t, f.svc.RemoveExercise(context.Background(), f.trainer.ID, f.rows[2].ID))
	assert.Equal(t, []int{1, 2, 3, 4}, planOrders(t, f.db, f.plan.ID))

	require.NoError(t, f.svc.RemoveExercise(context.Background(), f.trainer.ID, f.rows[0].ID))
	assert.Equal(t, []int{1, 2, 3}, planOrders(t, f.db, f.plan.ID))

	for i := 4; i <= 5; i++ {
		exercise := createTestExercise(t, f.db, f.trainer.ID, "Filler "+string(rune('0'+i)))
		_, err := f.svc.AddExercise(context.Background(), f.trainer.ID, &CreateWorkoutExerciseRequest{
			WorkoutPlanID: f.plan.PublicID,
			ExerciseID:    exercise.PublicID,
			Order:         i,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, planOrders(t, f.db, f.plan.ID))
}

func TestDeletePlanRemovesSequenceAndMappings(t *testing.T) {
	f := newWorkoutFixture(t, 2)

	require.NoError(t, f.svc.DeletePlan(context.Background(), f.trainer.ID, f.plan.PublicID))

	var rows, mappings int64
	require.NoError(t, f.db.Model(&models.WorkoutExercise{}).Where("workout_plan_id = ?", f.plan.ID).Count(&rows).Error)
	require.NoError(t, f.db.Model(&models.GoalWorkoutMapping{}).Where("workout_plan_id = ?", f.plan.ID).Count(&mappings).Error)
	assert.Zero(t, rows)
	assert.Zero(t, mappings)

	_, err := f.svc.GetPlan(context.Background(), f.plan.PublicID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestPlanWritesBumpPlansVersion(t *testing.T) {
	f := newWorkoutFixture(t, 0)

	ver, err := f.store.GetInt(context.Background(), cache.PlansVersionKey())
	require.NoError(t, err)
	require.Zero(t, ver)

	title := "Renamed"
	_, err = f.svc.UpdatePlan(context.Background(), f.trainer.ID, f.plan.PublicID, &UpdatePlanRequest{Title: &title})
	require.NoError(t, err)

	ver, err = f.store.GetInt(context.Background(), cache.PlansVersionKey())
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)
}

func TestUpdatePlanRebuildsGoalMappings(t *testing.T) {
	f := newWorkoutFixture(t, 0)

	tags := []string{string(models.GoalCardio), string(models.GoalFlexibility)}
	_, err := f.svc.UpdatePlan(context.Background(), f.trainer.ID, f.plan.PublicID, &UpdatePlanRequest{GoalTags: &tags})
	require.NoError(t, err)

	var mapped []models.GoalType
	require.NoError(t, f.db.Model(&models.GoalWorkoutMapping{}).
		Where("workout_plan_id = ?", f.plan.ID).
		Order("goal_type ASC").
		Pluck("goal_type", &mapped).Error)
	assert.Equal(t, []models.GoalType{models.GoalCardio, models.GoalFlexibility}, mapped)
}

func TestGetPlanUnknownID(t *testing.T) {
	db := newTestDB(t)
	svc := newWorkoutServiceForTest(t, db, newFakeStore())

	_, err := svc.GetPlan(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}
