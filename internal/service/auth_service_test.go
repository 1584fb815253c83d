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

	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

type fakeAuthRepo struct {
	usersByEmail map[string]*models.SystemUser
	usersByID    map[int64]*models.SystemUser
	tokens       map[string]*models.RefreshToken
	revokedIDs   []string
	revokedUsers []int64
	savedTokens  []*models.RefreshToken
	newHash      string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail: map[string]*models.SystemUser{},
		usersByID:    map[int64]*models.SystemUser{},
		tokens:       map[string]*models.RefreshToken{},
	}
}

func (f *fakeAuthRepo) FindByEmail(_ context.Context, email string) (*models.SystemUser, error) {
	if u, ok := f.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByID(_ context.Context, id int64) (*models.SystemUser, error) {
	if u, ok := f.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.newHash = hash
	return nil
}

func (f *fakeAuthRepo) SaveRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.savedTokens = append(f.savedTokens, token)
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string) error {
	f.revokedIDs = append(f.revokedIDs, id)
	for _, t := range f.tokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID int64) error {
	f.revokedUsers = append(f.revokedUsers, userID)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "fitclub-test",
	}
}

func seedUser(repo *fakeAuthRepo, password string, active bool) *models.SystemUser {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	email := "staff@club.local"
	user := &models.SystemUser{
		ID:           1,
		Username:     "staff",
		Email:        &email,
		PasswordHash: string(hash),
		Role:         "admin",
		Active:       active,
	}
	repo.usersByEmail[email] = user
	repo.usersByID[user.ID] = user
	return user
}

func TestLogin_Succeeds(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@club.local", Password: "secret-pass"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "admin", res.User.Role)
	require.Len(t, repo.savedTokens, 1)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@club.local", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLogin_UnknownEmailMatchesWrongPasswordError(t *testing.T) {
	svc := NewAuthService(newFakeAuthRepo(), nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@club.local", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLogin_InactiveAccount(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(repo, "secret-pass", false)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@club.local", Password: "secret-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshToken_RotatesAndRevokesUsedToken(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@club.local", Password: "secret-pass"})
	require.NoError(t, err)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, res.RefreshToken)
	require.Len(t, repo.revokedIDs, 1)

	// the used token is single-use
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRefreshToken_ExpiredToken(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(repo, "secret-pass", true)
	repo.tokens["stale"] = &models.RefreshToken{
		ID:        "token-1",
		UserID:    1,
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogout_RejectsForeignToken(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.tokens["other"] = &models.RefreshToken{
		ID:        "token-2",
		UserID:    99,
		Token:     "other",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	err := svc.Logout(context.Background(), "other", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.revokedIDs)
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(repo, "old-password", true)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), 1, models.ChangePasswordRequest{
		OldPassword: "old-password",
		NewPassword: "brand-new-pass",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, repo.newHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.newHash), []byte("brand-new-pass")))
	assert.Equal(t, []int64{1}, repo.revokedUsers)
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(repo, "old-password", true)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), 1, models.ChangePasswordRequest{
		OldPassword: "not-it",
		NewPassword: "brand-new-pass",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.newHash)
}

func TestValidateToken_RejectsTamperedToken(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@club.local", Password: "secret-pass"})
	require.NoError(t, err)

	otherSvc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
	})
	_, err = otherSvc.ValidateToken(login.AccessToken)
	require.Error(t, err)
}
