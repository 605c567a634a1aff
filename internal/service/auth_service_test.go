package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
)

type mockAuthRepo struct {
	user          *models.User
	findErr       error
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
	revokedIDs    []int64
}

func (m *mockAuthRepo) FindByUserID(ctx context.Context, userID string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.user == nil || m.user.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	token.ID = int64(len(m.refreshTokens) + 1)
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id int64, revokedAt time.Time) error {
	m.revokedIDs = append(m.revokedIDs, id)
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func testAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "logbook-api",
	})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{user: &models.User{
		ID:           1,
		UserID:       "t001",
		PasswordHash: hashPassword(t, "secret"),
		FullName:     "김선생",
		Role:         models.RoleTeacher,
		Active:       true,
	}}
	svc := testAuthService(repo)

	pair, err := svc.Login(context.Background(), "t001", "secret", LoginMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.Login.TokenType)
	assert.Equal(t, "t001", pair.Login.UserID)
	assert.Equal(t, models.RoleTeacher, pair.Login.Role)
	assert.Equal(t, "김선생", pair.Login.FullName)
	assert.NotEmpty(t, pair.Login.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Len(t, repo.auditLogs, 1)

	claims, err := svc.ValidateToken(pair.Login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t001", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{user: &models.User{
		UserID:       "t001",
		PasswordHash: hashPassword(t, "secret"),
		Active:       true,
	}}
	svc := testAuthService(repo)

	_, err := svc.Login(context.Background(), "t001", "wrong", LoginMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := testAuthService(&mockAuthRepo{})

	_, err := svc.Login(context.Background(), "ghost", "secret", LoginMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveUser(t *testing.T) {
	repo := &mockAuthRepo{user: &models.User{
		UserID:       "t001",
		PasswordHash: hashPassword(t, "secret"),
		Active:       false,
	}}
	svc := testAuthService(repo)

	_, err := svc.Login(context.Background(), "t001", "secret", LoginMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := &mockAuthRepo{user: &models.User{
		UserID:       "t001",
		PasswordHash: hashPassword(t, "secret"),
		FullName:     "김선생",
		Role:         models.RoleTeacher,
		Active:       true,
	}}
	svc := testAuthService(repo)

	pair, err := svc.Login(context.Background(), "t001", "secret", LoginMeta{})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken, LoginMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.NotEmpty(t, rotated.Login.AccessToken)
	assert.NotEmpty(t, repo.revokedIDs)
}

func TestRefreshExpiredToken(t *testing.T) {
	repo := &mockAuthRepo{
		user: &models.User{UserID: "t001", Active: true},
		refreshTokens: map[string]*models.RefreshToken{
			"old": {ID: 1, UserID: "t001", Token: "old", ExpiresAt: time.Now().Add(-time.Hour)},
		},
	}
	svc := testAuthService(repo)

	_, err := svc.Refresh(context.Background(), "old", LoginMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
