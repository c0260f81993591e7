package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fittrack/internal/models"
	"gorm.io/gorm"
)

var (
	ErrTokenNotFound = errors.New("refresh token not found")
)

// TokenRepository is the outstanding refresh-token ledger
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create records a newly issued refresh token
func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByJTI retrieves a ledger entry by token ID
func (r *TokenRepository) GetByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	result := r.db.WithContext(ctx).Where("jti = ?", jti).First(&token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, result.Error
	}
	return &token, nil
}

// MarkRotated transitions an active token to rotated. The status guard makes
// the transition a check-and-set: of two concurrent rotations using the same
// token, exactly one observes a row change.
func (r *TokenRepository) MarkRotated(ctx context.Context, jti string) (bool, error) {
	return r.transition(ctx, jti, models.TokenStatusRotated)
}

// MarkBlacklisted transitions an active token to blacklisted (logout)
func (r *TokenRepository) MarkBlacklisted(ctx context.Context, jti string) (bool, error) {
	return r.transition(ctx, jti, models.TokenStatusBlacklisted)
}

func (r *TokenRepository) transition(ctx context.Context, jti string, to models.RefreshTokenStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND status = ?", jti, models.TokenStatusActive).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// PurgeExpired removes ledger rows whose token expiry passed before the
// cutoff. Expired tokens fail signature-level validation anyway, so the rows
// are only kept long enough to be useful in audits.
func (r *TokenRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
