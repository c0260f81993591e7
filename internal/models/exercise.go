package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExerciseCategory represents the type of exercise
type ExerciseCategory string

const (
	CategoryStrength     ExerciseCategory = "Strength"
	CategoryCardio       ExerciseCategory = "Cardio"
	CategoryYoga         ExerciseCategory = "Yoga"
	CategoryFlexibility  ExerciseCategory = "Flexibility"
	CategoryCalisthenics ExerciseCategory = "Calisthenics"
	CategoryAerobic      ExerciseCategory = "Aerobic"
)

// ValidExerciseCategories lists every accepted category
var ValidExerciseCategories = []ExerciseCategory{
	CategoryStrength,
	CategoryCardio,
	CategoryYoga,
	CategoryFlexibility,
	CategoryCalisthenics,
	CategoryAerobic,
}

// IsValid reports whether the category is one of the accepted values
func (c ExerciseCategory) IsValid() bool {
	for _, v := range ValidExerciseCategories {
		if c == v {
			return true
		}
	}
	return false
}

// StringList is a []string stored as a JSON column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Exercise represents an exercise authored by a trainer.
// A trainer cannot have two exercises with the same name.
type Exercise struct {
	ID          uint             `gorm:"primaryKey" json:"-"`
	PublicID    uuid.UUID        `gorm:"column:unique_id;type:uuid;uniqueIndex;not null" json:"unique_id"`
	CreatedByID uint             `gorm:"uniqueIndex:idx_exercise_name_owner;not null" json:"-"`
	Name        string           `gorm:"uniqueIndex:idx_exercise_name_owner;size:50;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Category    ExerciseCategory `gorm:"size:50;not null" json:"category"`
	Equipment   StringList       `gorm:"type:text" json:"equipment"`
	Repetitions int              `gorm:"default:0" json:"repetitions"`
	Sets        int              `gorm:"default:0" json:"sets"`
	MuscleGroup string           `gorm:"size:50" json:"muscle_group"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"-"`
}

// TableName specifies the table name for Exercise model
func (Exercise) TableName() string {
	return "exercises"
}

// BeforeCreate assigns the public ID
func (e *Exercise) BeforeCreate(tx *gorm.DB) error {
	if e.PublicID == uuid.Nil {
		e.PublicID = uuid.New()
	}
	return nil
}
