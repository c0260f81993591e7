package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/config"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/pkg/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:fittrack_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.FitnessGoal{},
		&models.Exercise{},
		&models.WorkoutPlan{},
		&models.WorkoutExercise{},
		&models.GoalWorkoutMapping{},
	))
	return db
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:             "test-secret",
		Issuer:             "fittrack",
		AccessExpireMins:   15,
		RefreshExpireHours: 48,
	}
}

// fakeStore is an in-memory cache.Store so service tests run without redis
type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return val, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, _ := strconv.ParseInt(f.data[key], 10, 64)
	count++
	f.data[key] = strconv.FormatInt(count, 10)
	return count, nil
}

func (f *fakeStore) GetInt(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(val, 10, 64)
}

func (f *fakeStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := f.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if count == 1 {
		f.mu.Lock()
		f.ttls[key] = ttl
		f.mu.Unlock()
	}
	return count, nil
}

func (f *fakeStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key], nil
}

func createTestUser(t *testing.T, db *gorm.DB, email string, trainer bool) *models.User {
	t.Helper()
	hash, err := crypto.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		IsTrainer:    trainer,
		HeightM:      1.80,
		WeightKg:     75,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestExercise(t *testing.T, db *gorm.DB, ownerID uint, name string) *models.Exercise {
	t.Helper()
	exercise := &models.Exercise{
		CreatedByID: ownerID,
		Name:        name,
		Category:    models.CategoryStrength,
		MuscleGroup: "Chest",
	}
	require.NoError(t, db.Create(exercise).Error)
	return exercise
}

func createTestPlan(t *testing.T, db *gorm.DB, ownerID uint, title string, tags ...string) *models.WorkoutPlan {
	t.Helper()
	plan := &models.WorkoutPlan{
		CreatedByID: ownerID,
		Title:       title,
		Difficulty:  models.DifficultyBeginner,
		GoalTags:    models.StringList(tags),
	}
	require.NoError(t, db.Create(plan).Error)
	for _, tag := range tags {
		require.NoError(t, db.Create(&models.GoalWorkoutMapping{
			GoalType:      models.GoalType(tag),
			WorkoutPlanID: plan.ID,
		}).Error)
	}
	return plan
}

func addPlanExercise(t *testing.T, db *gorm.DB, planID, exerciseID uint, order int) *models.WorkoutExercise {
	t.Helper()
	we := &models.WorkoutExercise{
		WorkoutPlanID: planID,
		ExerciseID:    exerciseID,
		Order:         order,
	}
	require.NoError(t, db.Create(we).Error)
	return we
}

func planOrders(t *testing.T, db *gorm.DB, planID uint) []int {
	t.Helper()
	var orders []int
	require.NoError(t, db.Model(&models.WorkoutExercise{}).
		Where("workout_plan_id = ?", planID).
		Order("exercise_order ASC").
		Pluck("exercise_order", &orders).Error)
	return orders
}

func newWorkoutServiceForTest(t *testing.T, db *gorm.DB, store cache.Store) *WorkoutService {
	t.Helper()
	return NewWorkoutService(
		repository.NewWorkoutRepository(db),
		repository.NewExerciseRepository(db),
		nopBannerStore{},
		store,
	)
}

type nopBannerStore struct{}

func (nopBannerStore) Remove(string) error { return nil }
