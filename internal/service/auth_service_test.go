package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/config"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
)

type mockUserRepo struct {
	usersByEmail  map[string]*models.User
	usersByID     map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revoked       []string
	lastLoginSet  bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByEmail:  make(map[string]*models.User),
		usersByID:     make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (m *mockUserRepo) addUser(user *models.User) {
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-generated"
	}
	m.addUser(user)
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginSet = true
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
	}
}

func seedUser(t *testing.T, repo *mockUserRepo, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "user-1",
		Email:        "dana@example.com",
		PasswordHash: string(hash),
		FullName:     "Dana Arifka",
		Active:       true,
	}
	repo.addUser(user)
	return user
}

func TestAuthRegister(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "new@example.com",
		Password: "secret123",
		FullName: "New User",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "new@example.com", info.Email)

	stored := repo.usersByEmail["new@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, stored.Active)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "dana@example.com",
		Password: "secret123",
		FullName: "Someone Else",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthLogin(t *testing.T) {
	repo := newMockUserRepo()
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.True(t, repo.lastLoginSet)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "dana@example.com", claims.Email)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	repo := newMockUserRepo()
	user := seedUser(t, repo, "secret123")
	user.Active = false
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshTokenRotation(t *testing.T) {
	repo := newMockUserRepo()
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshTokenExpired(t *testing.T) {
	repo := newMockUserRepo()
	seedUser(t, repo, "secret123")
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthLogout(t *testing.T) {
	repo := newMockUserRepo()
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "user-1", login.RefreshToken))
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	err = svc.Logout(context.Background(), "someone-else", login.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenBadSignature(t *testing.T) {
	repo := newMockUserRepo()
	seedUser(t, repo, "secret123")
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), jwtConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, validator.New(), zap.NewNop(), config.JWTConfig{Secret: "different", Expiration: time.Hour})
	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
}
