package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Difficulty represents the workout plan difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// IsValid reports whether the difficulty is one of the accepted values
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// DefaultBanner is the placeholder banner assigned to plans without an upload.
// It is shared between plans and never removed on plan deletion.
const DefaultBanner = "workout_banners/no-img-banner.jpg"

// WorkoutPlan represents a workout plan created by a trainer. GoalTags drive
// the recommendation index: each tag produces one GoalWorkoutMapping row.
type WorkoutPlan struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	PublicID    uuid.UUID  `gorm:"column:unique_id;type:uuid;uniqueIndex;not null" json:"unique_id"`
	CreatedByID uint       `gorm:"index;not null" json:"-"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Difficulty  Difficulty `gorm:"column:difficulty_level;size:20;not null" json:"difficulty_level"`
	GoalTags    StringList `gorm:"type:text" json:"goal_tags"`
	Banner      string     `gorm:"size:255" json:"workout_banner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	CreatedBy *User                `gorm:"foreignKey:CreatedByID" json:"-"`
	Exercises []WorkoutExercise    `gorm:"foreignKey:WorkoutPlanID;constraint:OnDelete:CASCADE" json:"workout_exercises,omitempty"`
	Mappings  []GoalWorkoutMapping `gorm:"foreignKey:WorkoutPlanID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for WorkoutPlan model
func (WorkoutPlan) TableName() string {
	return "workout_plans"
}

// BeforeCreate assigns the public ID and the placeholder banner
func (p *WorkoutPlan) BeforeCreate(tx *gorm.DB) error {
	if p.PublicID == uuid.Nil {
		p.PublicID = uuid.New()
	}
	if p.Banner == "" {
		p.Banner = DefaultBanner
	}
	return nil
}

// WorkoutExercise links one WorkoutPlan to one Exercise at a position in the
// plan's sequence. Within a plan, Order values are unique and contiguous
// starting at 1, and each exercise appears at most once; both invariants are
// enforced by the workout service on every mutation. The composite index
// mirrors the storage-level constraint the service's nullify phase relies on:
// a row parked at Order 0 never collides with another parked row because the
// exercise column still differs.
type WorkoutExercise struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	WorkoutPlanID uint `gorm:"uniqueIndex:idx_plan_exercise_order;not null" json:"-"`
	ExerciseID    uint `gorm:"uniqueIndex:idx_plan_exercise_order;not null" json:"-"`
	Order         int  `gorm:"column:exercise_order;uniqueIndex:idx_plan_exercise_order;not null" json:"order"`
	Repetitions   int  `gorm:"default:0" json:"repetitions"`
	Sets          int  `gorm:"default:0" json:"sets"`
	RestSeconds   *int `json:"rest_time,omitempty"`

	WorkoutPlan *WorkoutPlan `gorm:"foreignKey:WorkoutPlanID" json:"-"`
	Exercise    *Exercise    `gorm:"foreignKey:ExerciseID" json:"exercise_details,omitempty"`
}

// TableName specifies the table name for WorkoutExercise model
func (WorkoutExercise) TableName() string {
	return "workout_exercises"
}

// GoalWorkoutMapping indexes a workout plan under one of its goal-type tags.
// Rows are derived from WorkoutPlan.GoalTags and rebuilt whenever the tags
// change; the recommendation read path joins through this table.
type GoalWorkoutMapping struct {
	ID            uint     `gorm:"primaryKey" json:"-"`
	GoalType      GoalType `gorm:"size:35;index;not null" json:"goal_type"`
	WorkoutPlanID uint     `gorm:"index;not null" json:"-"`

	WorkoutPlan *WorkoutPlan `gorm:"foreignKey:WorkoutPlanID" json:"-"`
}

// TableName specifies the table name for GoalWorkoutMapping model
func (GoalWorkoutMapping) TableName() string {
	return "goal_workout_mappings"
}
