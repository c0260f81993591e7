package models

import (
	"time"
)

// RefreshTokenStatus represents the lifecycle state of an outstanding
// refresh token. Active tokens become Rotated on successful rotation or
// Blacklisted on logout; both states are terminal. Expiry is computed from
// the token's own claim and needs no stored state.
type RefreshTokenStatus string

const (
	TokenStatusActive      RefreshTokenStatus = "active"
	TokenStatusRotated     RefreshTokenStatus = "rotated"
	TokenStatusBlacklisted RefreshTokenStatus = "blacklisted"
)

// RefreshToken is the outstanding-token ledger entry for one issued refresh
// token, keyed by the token's jti claim.
type RefreshToken struct {
	ID        uint               `gorm:"primaryKey" json:"-"`
	JTI       string             `gorm:"column:jti;size:36;uniqueIndex;not null" json:"jti"`
	UserID    uint               `gorm:"index;not null" json:"user_id"`
	Status    RefreshTokenStatus `gorm:"size:16;not null;default:active" json:"status"`
	ExpiresAt time.Time          `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
