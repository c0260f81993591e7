package service

import (
	"context"
	"errors"
	"time"

	"github.com/fittrack/internal/config"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims represents the JWT claims carried by both token kinds
type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	IsTrainer bool   `json:"is_trainer"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is an issued access/refresh pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenService issues, validates, rotates and blacklists paired
// access/refresh tokens. Every refresh token is recorded in a ledger so it
// can be invalidated later; access tokens are validated purely from their
// signature and expiry claim.
type TokenService struct {
	tokenRepo *repository.TokenRepository
	userRepo  *repository.UserRepository
	jwtConfig config.JWTConfig
}

// NewTokenService creates a new TokenService
func NewTokenService(tokenRepo *repository.TokenRepository, userRepo *repository.UserRepository, jwtConfig config.JWTConfig) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		jwtConfig: jwtConfig,
	}
}

// Issue mints a new access/refresh pair for the user and records the refresh
// token in the outstanding-token ledger.
func (s *TokenService) Issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := time.Now()

	accessToken, err := s.sign(user, tokenTypeAccess, uuid.NewString(), now, s.jwtConfig.AccessTTL())
	if err != nil {
		return nil, err
	}

	refreshJTI := uuid.NewString()
	refreshExpiry := now.Add(s.jwtConfig.RefreshTTL())
	refreshToken, err := s.sign(user, tokenTypeRefresh, refreshJTI, now, s.jwtConfig.RefreshTTL())
	if err != nil {
		return nil, err
	}

	ledger := &models.RefreshToken{
		JTI:       refreshJTI,
		UserID:    user.ID,
		Status:    models.TokenStatusActive,
		ExpiresAt: refreshExpiry,
	}
	if err := s.tokenRepo.Create(ctx, ledger); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtConfig.AccessTTL().Seconds()),
	}, nil
}

// Validate checks signature and expiry of an access token and returns its
// claims. Expired tokens fail with ErrTokenExpired so callers can attempt a
// refresh; anything else fails with ErrTokenInvalid.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Rotate exchanges a valid refresh token for a new pair. The old token's
// ledger entry is marked rotated first; the status guard means a replayed
// refresh token fails here even if two rotations race.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, ErrTokenInvalid
	}

	rotated, err := s.tokenRepo.MarkRotated(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrTokenBlacklisted
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	return s.Issue(ctx, user)
}

// Revoke blacklists a refresh token (logout). The signature must verify but
// an already-expired token is still accepted: blacklisting it is harmless
// and callers treat revocation as best-effort anyway.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parseAllowExpired(refreshToken)
	if err != nil {
		return err
	}
	if claims.TokenType != tokenTypeRefresh {
		return ErrTokenInvalid
	}

	revoked, err := s.tokenRepo.MarkBlacklisted(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		return ErrTokenBlacklisted
	}
	return nil
}

// PurgeExpired removes ledger rows expired for longer than the retention
// window; called by the maintenance worker.
func (s *TokenService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	return s.tokenRepo.PurgeExpired(ctx, time.Now().Add(-retention))
}

func (s *TokenService) sign(user *models.User, tokenType, jti string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		IsTrainer: user.IsTrainer,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.jwtConfig.Issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) parseAllowExpired(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if _, err := parser.ParseWithClaims(tokenString, claims, s.keyFunc); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	return []byte(s.jwtConfig.Secret), nil
}
