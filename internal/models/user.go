package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gender represents the user's gender
type Gender string

const (
	GenderMen   Gender = "Men"
	GenderWoman Gender = "Woman"
)

const (
	// DefaultAvatarMen is assigned to new accounts unless the gender is Woman
	DefaultAvatarMen   = "avatars/default-boy-avatar.jpg"
	DefaultAvatarWoman = "avatars/default-girl-avatar.jpg"
)

// User represents a registered user. PublicID is the identifier exposed to
// clients; the numeric primary key never leaves the service.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"-"`
	PublicID     uuid.UUID      `gorm:"column:unique_id;type:uuid;uniqueIndex;not null" json:"unique_id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	FirstName    string         `gorm:"size:255;not null" json:"first_name"`
	LastName     string         `gorm:"size:255;not null" json:"last_name"`
	IsTrainer    bool           `gorm:"default:false" json:"is_trainer"`
	Gender       Gender         `gorm:"size:6;default:Men" json:"gender"`
	DateOfBirth  *time.Time     `json:"date_of_birth,omitempty"`
	Avatar       string         `gorm:"size:255" json:"avatar"`
	HeightM      float64        `gorm:"type:decimal(4,2)" json:"height"`
	WeightKg     float64        `gorm:"type:decimal(5,2)" json:"weight"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Goals        []FitnessGoal `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"goals,omitempty"`
	Exercises    []Exercise    `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"exercises,omitempty"`
	WorkoutPlans []WorkoutPlan `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"workout_plans,omitempty"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the public ID and the gender-matched avatar
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.PublicID == uuid.Nil {
		u.PublicID = uuid.New()
	}
	if u.Avatar == "" {
		u.Avatar = DefaultAvatarMen
		if u.Gender == GenderWoman {
			u.Avatar = DefaultAvatarWoman
		}
	}
	return nil
}

// Age returns the user's age in full years, or -1 if date of birth is unset
func (u *User) Age(now time.Time) int {
	if u.DateOfBirth == nil {
		return -1
	}
	dob := *u.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
