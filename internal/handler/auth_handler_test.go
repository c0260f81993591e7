package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fittrack/internal/cache"
	"github.com/fittrack/internal/config"
	"github.com/fittrack/internal/handler"
	"github.com/fittrack/internal/middleware"
	"github.com/fittrack/internal/models"
	"github.com/fittrack/internal/repository"
	"github.com/fittrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory cache.Store for handler tests.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return val, nil
}

func (s *memStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *memStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
		delete(s.ttls, key)
	}
	return nil
}

func (s *memStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, _ := strconv.ParseInt(s.data[key], 10, 64)
	count++
	s.data[key] = strconv.FormatInt(count, 10)
	return count, nil
}

func (s *memStore) GetInt(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	if !ok {
		return 0, cache.ErrMiss
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *memStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, _ := strconv.ParseInt(s.data[key], 10, 64)
	count++
	s.data[key] = strconv.FormatInt(count, 10)
	if count == 1 {
		s.ttls[key] = ttl
	}
	return count, nil
}

func (s *memStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl, ok := s.ttls[key]
	if !ok {
		return -2 * time.Second, nil
	}
	return ttl, nil
}

type authAPIEnv struct {
	db     *gorm.DB
	tokens *service.TokenService
	router *gin.Engine
}

func newAuthAPIEnv(t *testing.T) *authAPIEnv {
	t.Helper()
	dsn := "file:fittrack_api_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	store := newMemStore()
	userRepo := repository.NewUserRepository(db)
	tokens := service.NewTokenService(repository.NewTokenRepository(db), userRepo, config.JWTConfig{
		Secret:             "test-secret",
		Issuer:             "fittrack",
		AccessExpireMins:   15,
		RefreshExpireHours: 48,
	})
	auth := service.NewAuthService(userRepo, tokens, store, config.RateLimitConfig{
		LoginAttempts: 3,
		WindowSeconds: 60,
	})

	router := gin.New()
	router.Use(middleware.Authenticate(tokens))
	handler.NewAuthHandler(auth, tokens).RegisterRoutes(router.Group("/"))

	return &authAPIEnv{db: db, tokens: tokens, router: router}
}

func registerBody() map[string]interface{} {
	return map[string]interface{}{
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Smith",
		"password":   "password123",
		"height":     1.80,
		"weight":     75.0,
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestRegisterSetsCredentialCookies(t *testing.T) {
	env := newAuthAPIEnv(t)

	rec := postJSON(t, env.router, "/register", registerBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	accessCookie := cookieByName(rec, middleware.AccessTokenCookie)
	refreshCookie := cookieByName(rec, middleware.RefreshTokenCookie)
	require.NotNil(t, accessCookie)
	require.NotNil(t, refreshCookie)
	assert.True(t, accessCookie.HttpOnly)
	assert.True(t, refreshCookie.HttpOnly)

	var body struct {
		Data struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
			Tokens struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice@example.com", body.Data.User.Email)
	assert.NotEmpty(t, body.Data.Tokens.AccessToken)
	assert.Equal(t, refreshCookie.Value, body.Data.Tokens.RefreshToken)
}

func TestRegisterRejectsFutureDateOfBirth(t *testing.T) {
	env := newAuthAPIEnv(t)

	body := registerBody()
	body["date_of_birth"] = time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	rec := postJSON(t, env.router, "/register", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date_of_birth")
}

func TestRegisterRejectsMalformedBody(t *testing.T) {
	env := newAuthAPIEnv(t)

	rec := postJSON(t, env.router, "/register", map[string]interface{}{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newAuthAPIEnv(t)

	rec := postJSON(t, env.router, "/register", registerBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, env.router, "/register", registerBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}

func TestLoginWrongPassword(t *testing.T) {
	env := newAuthAPIEnv(t)
	require.Equal(t, http.StatusCreated, postJSON(t, env.router, "/register", registerBody()).Code)

	rec := postJSON(t, env.router, "/login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	env := newAuthAPIEnv(t)
	require.Equal(t, http.StatusCreated, postJSON(t, env.router, "/register", registerBody()).Code)

	bad := map[string]interface{}{"email": "alice@example.com", "password": "wrongpassword"}
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusBadRequest, postJSON(t, env.router, "/login", bad).Code)
	}

	// Window exhausted: even the correct password is throttled now
	rec := postJSON(t, env.router, "/login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body struct {
		Details struct {
			AvailableIn int `json:"available_in"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Positive(t, body.Details.AvailableIn)
}

func TestLoginSucceeds(t *testing.T) {
	env := newAuthAPIEnv(t)
	require.Equal(t, http.StatusCreated, postJSON(t, env.router, "/register", registerBody()).Code)

	rec := postJSON(t, env.router, "/login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, cookieByName(rec, middleware.AccessTokenCookie))
	assert.NotNil(t, cookieByName(rec, middleware.RefreshTokenCookie))
}

func TestLogoutClearsCookiesAndConsumesRefreshToken(t *testing.T) {
	env := newAuthAPIEnv(t)
	reg := postJSON(t, env.router, "/register", registerBody())
	require.Equal(t, http.StatusCreated, reg.Code)
	refreshCookie := cookieByName(reg, middleware.RefreshTokenCookie)
	require.NotNil(t, refreshCookie)

	rec := postJSON(t, env.router, "/logout", nil, refreshCookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	cleared := cookieByName(rec, middleware.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	_, err := env.tokens.Rotate(context.Background(), refreshCookie.Value)
	assert.ErrorIs(t, err, service.ErrTokenBlacklisted)
}

func TestRefreshRotatesFromCookie(t *testing.T) {
	env := newAuthAPIEnv(t)
	reg := postJSON(t, env.router, "/register", registerBody())
	require.Equal(t, http.StatusCreated, reg.Code)
	refreshCookie := cookieByName(reg, middleware.RefreshTokenCookie)
	require.NotNil(t, refreshCookie)

	rec := postJSON(t, env.router, "/token/refresh", nil, refreshCookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rotated := cookieByName(rec, middleware.RefreshTokenCookie)
	require.NotNil(t, rotated)
	assert.NotEmpty(t, rotated.Value)
	assert.NotEqual(t, refreshCookie.Value, rotated.Value)

	// The consumed token cannot be replayed
	replay := postJSON(t, env.router, "/token/refresh", nil, refreshCookie)
	assert.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	env := newAuthAPIEnv(t)

	rec := postJSON(t, env.router, "/token/refresh", map[string]interface{}{
		"refresh_token": "garbage",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := cookieByName(rec, middleware.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestRefreshWithoutTokenFails(t *testing.T) {
	env := newAuthAPIEnv(t)

	rec := postJSON(t, env.router, "/token/refresh", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
