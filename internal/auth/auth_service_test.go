package auth

import (
	"context"
	"testing"
	"time"

	"bounce-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeAuthRepo struct {
	usersByEmail map[string]*models.User
	usersByApple map[string]*models.User
	tokens       map[string]*models.RefreshToken
	nextID       uint
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail: make(map[string]*models.User),
		usersByApple: make(map[string]*models.User),
		tokens:       make(map[string]*models.RefreshToken),
		nextID:       1,
	}
}

func (f *fakeAuthRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuthRepo) FindUserByAppleID(_ context.Context, appleID string) (*models.User, error) {
	if u, ok := f.usersByApple[appleID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuthRepo) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range f.usersByEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuthRepo) CreateUser(_ context.Context, user *models.User) error {
	user.ID = f.nextID
	f.nextID++
	f.usersByEmail[user.Email] = user
	if user.AppleID != nil {
		f.usersByApple[*user.AppleID] = user
	}
	return nil
}

func (f *fakeAuthRepo) SaveRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.TokenID] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, tokenID string) (*models.RefreshToken, error) {
	if t, ok := f.tokens[tokenID]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, tokenID string) error {
	if t, ok := f.tokens[tokenID]; ok {
		t.Revoked = true
	}
	return nil
}

func (f *fakeAuthRepo) DeleteExpiredRefreshTokens(_ context.Context, before time.Time) error {
	for id, t := range f.tokens {
		if t.ExpiresAt.Before(before) {
			delete(f.tokens, id)
		}
	}
	return nil
}

type fakeAppleVerifier struct {
	appleID string
	email   string
	err     error
}

func (f fakeAppleVerifier) Verify(context.Context, string) (string, string, error) {
	return f.appleID, f.email, f.err
}

func newTestService(t *testing.T) (*fakeAuthRepo, Service) {
	t.Helper()
	repo := newFakeAuthRepo()
	svc := NewService(repo, NewDisabledAppleVerifier(), "test-secret", 15*time.Minute, 720*time.Hour)
	return repo, svc
}

func seedUser(t *testing.T, repo *fakeAuthRepo, email, passcode string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Email: email, Nickname: "tester", Passcode: string(hash)}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestPasscodeAuthIssuesVerifiableTokens(t *testing.T) {
	repo, svc := newTestService(t)
	user := seedUser(t, repo, "ana@example.com", "123456")

	pair, got, err := svc.PasscodeAuth(context.Background(), "ana@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	userID, err := svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestPasscodeAuthRejectsBadCredentials(t *testing.T) {
	repo, svc := newTestService(t)
	seedUser(t, repo, "ana@example.com", "123456")

	_, _, err := svc.PasscodeAuth(context.Background(), "ana@example.com", "654321")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.PasscodeAuth(context.Background(), "nobody@example.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenTypeClaimsAreEnforced(t *testing.T) {
	repo, svc := newTestService(t)
	seedUser(t, repo, "ana@example.com", "123456")

	pair, _, err := svc.PasscodeAuth(context.Background(), "ana@example.com", "123456")
	require.NoError(t, err)

	// A refresh token is not an access token.
	_, err = svc.VerifyAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// And an access token cannot be used to refresh.
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotatesTokens(t *testing.T) {
	repo, svc := newTestService(t)
	seedUser(t, repo, "ana@example.com", "123456")

	pair, _, err := svc.PasscodeAuth(context.Background(), "ana@example.com", "123456")
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The spent token is revoked and cannot be replayed.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// The rotated one still works.
	_, err = svc.Refresh(context.Background(), next.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	repo, svc := newTestService(t)
	seedUser(t, repo, "ana@example.com", "123456")

	pair, _, err := svc.PasscodeAuth(context.Background(), "ana@example.com", "123456")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	_, svc := newTestService(t)

	_, err := svc.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyAccessToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with a different secret.
	otherRepo := newFakeAuthRepo()
	other := NewService(otherRepo, NewDisabledAppleVerifier(), "other-secret", time.Minute, time.Hour)
	seedUser(t, otherRepo, "ana@example.com", "123456")
	pair, _, err := other.PasscodeAuth(context.Background(), "ana@example.com", "123456")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAppleSignInCreatesAccountOnFirstUse(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewService(repo, fakeAppleVerifier{appleID: "apple-123", email: "ana@icloud.com"},
		"test-secret", 15*time.Minute, 720*time.Hour)

	pair, user, err := svc.AppleSignIn(context.Background(), "identity-token", "ana")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "ana@icloud.com", user.Email)
	assert.NotEmpty(t, pair.AccessToken)

	// Second sign-in reuses the same account.
	_, again, err := svc.AppleSignIn(context.Background(), "identity-token", "ignored")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestAppleSignInUnavailableWithoutVerifier(t *testing.T) {
	_, svc := newTestService(t)

	_, _, err := svc.AppleSignIn(context.Background(), "identity-token", "ana")
	assert.ErrorIs(t, err, ErrAppleNotConfigured)
}
