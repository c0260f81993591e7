package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GoalType represents the fitness goal category
type GoalType string

const (
	GoalWeightLoss   GoalType = "Weight Loss"
	GoalStrength     GoalType = "Strength Building"
	GoalCardio       GoalType = "Cardiovascular Fitness"
	GoalFlexibility  GoalType = "Flexibility"
	GoalBodyBuilding GoalType = "BodyBuilding"
)

// ValidGoalTypes lists every accepted goal type
var ValidGoalTypes = []GoalType{
	GoalWeightLoss,
	GoalStrength,
	GoalCardio,
	GoalFlexibility,
	GoalBodyBuilding,
}

// IsValid reports whether the goal type is one of the accepted values
func (g GoalType) IsValid() bool {
	for _, t := range ValidGoalTypes {
		if g == t {
			return true
		}
	}
	return false
}

// FitnessGoal represents a user's fitness goal. StartDate is fixed at
// creation; EndDate, when set, must be strictly after it. Goals whose
// EndDate has passed are deactivated before being read.
type FitnessGoal struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	PublicID    uuid.UUID  `gorm:"column:unique_id;type:uuid;uniqueIndex;not null" json:"unique_id"`
	UserID      uint       `gorm:"index;not null" json:"-"`
	GoalType    GoalType   `gorm:"size:35;not null" json:"goal_type"`
	StartDate   time.Time  `gorm:"not null" json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Description string     `gorm:"type:text" json:"description"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for FitnessGoal model
func (FitnessGoal) TableName() string {
	return "fitness_goals"
}

// BeforeCreate assigns the public ID and pins the start date
func (g *FitnessGoal) BeforeCreate(tx *gorm.DB) error {
	if g.PublicID == uuid.Nil {
		g.PublicID = uuid.New()
	}
	if g.StartDate.IsZero() {
		g.StartDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return nil
}

// Expired reports whether the goal's deadline has passed
func (g *FitnessGoal) Expired(now time.Time) bool {
	return g.EndDate != nil && g.EndDate.Before(now)
}
