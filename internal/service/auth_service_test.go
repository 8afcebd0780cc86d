package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/mijwel-dev/chatter-backend/internal/apperr"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
	"github.com/mijwel-dev/chatter-backend/internal/repository"
	"github.com/mijwel-dev/chatter-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bcrypt cost 4 keeps the hashing fast in tests
const testBcryptCost = 4

type authFixture struct {
	svc      *authService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	cache    *fakeCache
	mail     *fakeMailer
	tokens   *utils.TokenManager
}

func newAuthFixture(t *testing.T, accessExpiry, refreshExpiry time.Duration) *authFixture {
	t.Helper()

	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	cache := newFakeCache()
	mail := &fakeMailer{}
	tokens := utils.NewTokenManager(
		"access-secret-for-tests-0123456789abcdef",
		"refresh-secret-for-tests-0123456789abcdef",
		accessExpiry,
		refreshExpiry,
	)

	svc := NewAuthService(users, sessions, tokens, cache, mail, testBcryptCost).(*authService)

	return &authFixture{
		svc:      svc,
		users:    users,
		sessions: sessions,
		cache:    cache,
		mail:     mail,
		tokens:   tokens,
	}
}

func (f *authFixture) addUser(t *testing.T, email, password string, verified, setup bool) *domain.User {
	t.Helper()

	hash, err := utils.HashPassword(password, testBcryptCost)
	require.NoError(t, err)

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Verified:     verified,
		Setup:        setup,
	}
	if setup {
		name := "Test User"
		username := "testuser" + fmt.Sprint(len(f.users.users))
		user.Name = &name
		user.Username = &username
		user.Gender = domain.GenderOther
	}
	return f.users.add(user)
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.From(err).Code)
}

func TestSignUpNewUser(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()

	result, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "New@Example.com", Password: "Password1"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, result.Code)
	assert.Equal(t, "Please, verify your email!", result.Message)
	assert.Equal(t, "new@example.com", result.User.Email)
	assert.False(t, result.User.Setup)
	// Masked payload never leaks profile fields
	assert.Nil(t, result.User.Name)
	assert.Nil(t, result.User.Username)

	stored, err := f.users.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.False(t, stored.Verified)

	creds, err := f.users.CredentialsByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, creds.VerificationCode)
	assert.Len(t, *creds.VerificationCode, 6)
	require.NotNil(t, creds.VerificationExpiry)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *creds.VerificationExpiry, time.Minute)

	assert.Equal(t, []string{"new@example.com"}, f.mail.verifications)
}

func TestSignUpVerifiedEmailConflicts(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	f.addUser(t, "taken@example.com", "Password1", true, false)

	_, err := f.svc.SignUp(context.Background(), &dto.SignUpRequest{Email: "taken@example.com", Password: "Password1"})
	requireCode(t, err, http.StatusConflict)
	assert.Equal(t, "Email already exists!", apperr.From(err).Message)
	assert.Empty(t, f.mail.verifications)
}

func TestSignUpUnverifiedRetries(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()
	user := f.addUser(t, "retry@example.com", "OldPassword1", false, false)
	oldHash := user.PasswordHash

	result, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "retry@example.com", Password: "NewPassword1"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.Code)
	assert.Equal(t, "Please, verify your email!", result.Message)

	creds, err := f.users.CredentialsByEmail(ctx, "retry@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, creds.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("NewPassword1", creds.PasswordHash))
	assert.Equal(t, []string{"retry@example.com"}, f.mail.verifications)
}

func TestVerifyEmailSuccess(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()
	user := f.addUser(t, "verify@example.com", "Password1", false, false)
	code := "123456"
	expiry := time.Now().Add(time.Hour)
	user.VerificationCode = &code
	user.VerificationExpiry = &expiry

	result, err := f.svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Email: "verify@example.com", Code: "123456"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, result.Code)
	stored, err := f.users.GetByEmail(ctx, "verify@example.com")
	require.NoError(t, err)
	assert.True(t, stored.Verified)
	assert.Equal(t, []string{"verify@example.com"}, f.mail.welcomes)
}

func TestVerifyEmailWrongCode(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	user := f.addUser(t, "verify@example.com", "Password1", false, false)
	code := "123456"
	expiry := time.Now().Add(time.Hour)
	user.VerificationCode = &code
	user.VerificationExpiry = &expiry

	_, err := f.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{Email: "verify@example.com", Code: "654321"})
	requireCode(t, err, http.StatusForbidden)
	assert.Equal(t, "Invalid verification code!", apperr.From(err).Message)
}

func TestVerifyEmailExpiredCodeReissues(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()
	user := f.addUser(t, "verify@example.com", "Password1", false, false)
	code := "123456"
	expiry := time.Now().Add(-time.Minute)
	user.VerificationCode = &code
	user.VerificationExpiry = &expiry

	result, err := f.svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Email: "verify@example.com", Code: "123456"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.Code)

	creds, err := f.users.CredentialsByEmail(ctx, "verify@example.com")
	require.NoError(t, err)
	assert.False(t, creds.Verified)
	require.NotNil(t, creds.VerificationCode)
	assert.NotEqual(t, "123456", *creds.VerificationCode)
	// Reissued codes live one hour, not a day
	assert.WithinDuration(t, time.Now().Add(time.Hour), *creds.VerificationExpiry, time.Minute)
	assert.Equal(t, []string{"verify@example.com"}, f.mail.verifications)
}

func TestVerifyEmailAlreadyVerified(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	f.addUser(t, "done@example.com", "Password1", true, false)

	_, err := f.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{Email: "done@example.com", Code: "123456"})
	requireCode(t, err, http.StatusConflict)
	assert.Equal(t, "Email is already verified!", apperr.From(err).Message)
}

func TestSignInUnknownUser(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)

	_, err := f.svc.SignIn(context.Background(), &dto.SignInRequest{Email: "nobody@example.com", Password: "Password1"}, "")
	requireCode(t, err, http.StatusNotFound)
	assert.Equal(t, "User not exists!", apperr.From(err).Message)
}

func TestSignInRequiresLogin(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)

	_, err := f.svc.SignIn(context.Background(), &dto.SignInRequest{Password: "Password1"}, "")
	requireCode(t, err, http.StatusBadRequest)
}

func TestSignInWrongPassword(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	f.addUser(t, "user@example.com", "Password1", true, true)

	_, err := f.svc.SignIn(context.Background(), &dto.SignInRequest{Email: "user@example.com", Password: "WrongPassword1"}, "")
	requireCode(t, err, http.StatusForbidden)
	assert.Equal(t, "Incorrect password!", apperr.From(err).Message)
	assert.Zero(t, f.sessions.count())
}

func TestSignInUnverifiedResendsCode(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	f.addUser(t, "pending@example.com", "Password1", false, false)

	result, err := f.svc.SignIn(context.Background(), &dto.SignInRequest{Email: "pending@example.com", Password: "anything"}, "")
	require.NoError(t, err)

	assert.Equal(t, "Please, verify your email!", result.Message)
	assert.Empty(t, result.Access)
	assert.Empty(t, result.Refresh)
	assert.Equal(t, []string{"pending@example.com"}, f.mail.verifications)
	assert.Zero(t, f.sessions.count())
}

func TestSignInWithoutSetupGetsAccessOnly(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	f.addUser(t, "fresh@example.com", "Password1", true, false)

	result, err := f.svc.SignIn(context.Background(), &dto.SignInRequest{Email: "fresh@example.com", Password: "Password1"}, "test-device")
	require.NoError(t, err)

	assert.Equal(t, "Please, complete your profile!", result.Message)
	assert.NotEmpty(t, result.Access)
	assert.Empty(t, result.Refresh)
	assert.Empty(t, result.SessionID)
	assert.Zero(t, f.sessions.count())
	assert.Nil(t, result.User.Username)
}

func TestSignInFullProfileCreatesSession(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()
	user := f.addUser(t, "user@example.com", "Password1", true, true)

	result, err := f.svc.SignIn(ctx, &dto.SignInRequest{Email: "user@example.com", Password: "Password1"}, "test-device")
	require.NoError(t, err)

	assert.Equal(t, "Signed in successfully!", result.Message)
	assert.NotEmpty(t, result.Access)
	assert.NotEmpty(t, result.Refresh)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, 1, f.sessions.count())

	session, err := f.sessions.Find(ctx, user.ID, result.SessionID, result.Refresh)
	require.NoError(t, err)
	require.NotNil(t, session.Device)
	assert.Equal(t, "test-device", *session.Device)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	// Every sign-in appends another device session
	_, err = f.svc.SignIn(ctx, &dto.SignInRequest{Email: "user@example.com", Password: "Password1"}, "second-device")
	require.NoError(t, err)
	assert.Equal(t, 2, f.sessions.count())

	_, ok := f.cache.Get(ctx, user.ID)
	assert.True(t, ok)
}

func TestSignInByUsername(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	user := f.addUser(t, "user@example.com", "Password1", true, true)

	result, err := f.svc.SignIn(context.Background(), &dto.SignInRequest{Username: *user.Username, Password: "Password1"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Refresh)
}

// signIn is a helper establishing a full session for the refresh tests
func (f *authFixture) signIn(t *testing.T) (userID, refresh, sessionID string) {
	t.Helper()

	user := f.addUser(t, "refresh@example.com", "Password1", true, true)
	result, err := f.svc.SignIn(context.Background(), &dto.SignInRequest{Email: "refresh@example.com", Password: "Password1"}, "")
	require.NoError(t, err)
	return user.ID, result.Refresh, result.SessionID
}

func TestRefreshFreshTokenReuses(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	_, refresh, sessionID := f.signIn(t)

	// Well before the grace window: expiry-15m is 45m away
	result, err := f.svc.RefreshSession(context.Background(), refresh, sessionID)
	require.NoError(t, err)

	assert.False(t, result.Rotated)
	assert.NotEmpty(t, result.Tokens.Access)
	assert.Empty(t, result.Tokens.Refresh)
	assert.Equal(t, "refresh@example.com", result.User.Email)
	assert.NotNil(t, result.User.Username)
}

func TestRefreshInsideGraceWindowRotates(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	userID, refresh, sessionID := f.signIn(t)

	f.svc.now = func() time.Time { return time.Now().Add(50 * time.Minute) }

	result, err := f.svc.RefreshSession(context.Background(), refresh, sessionID)
	require.NoError(t, err)

	assert.True(t, result.Rotated)
	assert.NotEmpty(t, result.Tokens.Access)
	assert.NotEmpty(t, result.Tokens.Refresh)
	assert.NotEqual(t, refresh, result.Tokens.Refresh)
	assert.Equal(t, sessionID, result.SessionID)

	// The stored entry now matches only the new token
	_, err = f.sessions.Find(context.Background(), userID, sessionID, refresh)
	assert.Error(t, err)
	_, err = f.sessions.Find(context.Background(), userID, sessionID, result.Tokens.Refresh)
	assert.NoError(t, err)
}

func TestRefreshGraceBoundaryRotates(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	_, refresh, sessionID := f.signIn(t)

	claims, err := f.tokens.VerifyRefreshToken(refresh)
	require.NoError(t, err)

	// Exactly at expiry minus the access lifetime the rotate branch wins
	f.svc.now = func() time.Time { return claims.ExpiresAt.Time.Add(-15 * time.Minute) }

	result, err := f.svc.RefreshSession(context.Background(), refresh, sessionID)
	require.NoError(t, err)
	assert.True(t, result.Rotated)
}

func TestRefreshExpiredTokenRevokes(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	_, refresh, sessionID := f.signIn(t)

	claims, err := f.tokens.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	f.svc.now = func() time.Time { return claims.ExpiresAt.Time }

	_, err = f.svc.RefreshSession(context.Background(), refresh, sessionID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Zero(t, f.sessions.count())
}

func TestRefreshForgedTokenRejected(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	_, _, sessionID := f.signIn(t)

	forged := utils.NewTokenManager(
		"access-secret-for-tests-0123456789abcdef",
		"some-other-refresh-secret-0123456789abcd",
		15*time.Minute,
		time.Hour,
	)
	token, err := forged.GenerateRefreshToken("refresh@example.com")
	require.NoError(t, err)

	_, err = f.svc.RefreshSession(context.Background(), token, sessionID)
	requireCode(t, err, http.StatusForbidden)
	assert.Equal(t, 1, f.sessions.count())
}

func TestRefreshRotatedTokenRejected(t *testing.T) {
	// Scenario: the stored counterpart was already rotated by a previous
	// request, so the presented token no longer byte-matches the entry
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	_, refresh, sessionID := f.signIn(t)

	f.svc.now = func() time.Time { return time.Now().Add(50 * time.Minute) }

	first, err := f.svc.RefreshSession(context.Background(), refresh, sessionID)
	require.NoError(t, err)
	require.True(t, first.Rotated)

	_, err = f.svc.RefreshSession(context.Background(), refresh, sessionID)
	requireCode(t, err, http.StatusForbidden)
	assert.Equal(t, "Invalid user request!", apperr.From(err).Message)

	// The rotated entry is untouched
	assert.Equal(t, 1, f.sessions.count())
}

func TestRefreshLostRaceRejected(t *testing.T) {
	// Two refreshes race: both pass the read, only one wins the conditional
	// rotation. The loser must fail closed.
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	_, refresh, sessionID := f.signIn(t)

	f.svc.now = func() time.Time { return time.Now().Add(50 * time.Minute) }
	f.sessions.rotateFn = func(string, string, string, time.Time) error {
		return repository.ErrNotFound
	}

	_, err := f.svc.RefreshSession(context.Background(), refresh, sessionID)
	requireCode(t, err, http.StatusForbidden)
	assert.Equal(t, "Invalid refresh request!", apperr.From(err).Message)
}

func TestRefreshUnknownSessionRejected(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	f.signIn(t)

	token, err := f.tokens.GenerateRefreshToken("some-other-user")
	require.NoError(t, err)

	_, err = f.svc.RefreshSession(context.Background(), token, "b2f6c1de-0000-4000-8000-000000000000")
	requireCode(t, err, http.StatusForbidden)
}

func TestRefreshMalformedSessionIDRejected(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	_, refresh, _ := f.signIn(t)

	_, err := f.svc.RefreshSession(context.Background(), refresh, "not-a-uuid")
	requireCode(t, err, http.StatusForbidden)
}

func TestSignOutIdempotent(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()
	userID, refresh, sessionID := f.signIn(t)

	user, err := f.users.GetByID(ctx, userID)
	require.NoError(t, err)
	snapshot := domain.NewSnapshot(user)

	require.NoError(t, f.svc.SignOut(ctx, snapshot, refresh, sessionID))
	assert.Zero(t, f.sessions.count())

	// Repeating with the now-stale cookies still succeeds
	require.NoError(t, f.svc.SignOut(ctx, snapshot, refresh, sessionID))
}

func TestSignOutWithoutSetupIsNoop(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)

	err := f.svc.SignOut(context.Background(), domain.Snapshot{ID: "u", Setup: false}, "token", "session")
	assert.NoError(t, err)
}

func TestPurgeSessionsRemovesOnlyExpired(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()

	require.NoError(t, f.sessions.Create(ctx, &domain.Session{ID: "a1a1a1a1-0000-4000-8000-000000000001", UserID: "u1", Token: "t1", ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, f.sessions.Create(ctx, &domain.Session{ID: "a1a1a1a1-0000-4000-8000-000000000002", UserID: "u1", Token: "t2", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, f.sessions.Create(ctx, &domain.Session{ID: "a1a1a1a1-0000-4000-8000-000000000003", UserID: "u2", Token: "t3", ExpiresAt: time.Now().Add(-time.Minute)}))

	removed, err := f.svc.PurgeSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 2, f.sessions.count())
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()
	f.addUser(t, "reset@example.com", "OldPassword1", true, true)

	require.NoError(t, f.svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "reset@example.com"}))
	require.Equal(t, []string{"reset@example.com"}, f.mail.resets)
	code := f.mail.lastCode

	err := f.svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "reset@example.com", Code: "000000", Password: "NewPassword1"})
	if code != "000000" {
		requireCode(t, err, http.StatusBadRequest)
	}

	require.NoError(t, f.svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "reset@example.com", Code: code, Password: "NewPassword1"}))

	creds, err := f.users.CredentialsByEmail(ctx, "reset@example.com")
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("NewPassword1", creds.PasswordHash))
	assert.Nil(t, creds.ResetCode)
	assert.Equal(t, []string{"reset@example.com"}, f.mail.resetDones)
}

func TestForgotPasswordUnverified(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	f.addUser(t, "pending@example.com", "Password1", false, false)

	err := f.svc.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{Email: "pending@example.com"})
	requireCode(t, err, http.StatusForbidden)
}

func TestResetPasswordExpiredCode(t *testing.T) {
	f := newAuthFixture(t, 15*time.Minute, time.Hour)
	ctx := context.Background()
	user := f.addUser(t, "reset@example.com", "OldPassword1", true, true)
	code := "123456"
	expiry := time.Now().Add(-time.Minute)
	user.ResetCode = &code
	user.ResetExpiry = &expiry

	err := f.svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "reset@example.com", Code: "123456", Password: "NewPassword1"})
	requireCode(t, err, http.StatusBadRequest)
	assert.Equal(t, "Expired reset code!", apperr.From(err).Message)
}

func TestVerifyAccessMapsErrors(t *testing.T) {
	f := newAuthFixture(t, -time.Minute, time.Hour)
	user := f.addUser(t, "user@example.com", "Password1", true, true)

	expired, err := f.tokens.GenerateAccessToken(domain.NewSnapshot(user))
	require.NoError(t, err)

	_, err = f.svc.VerifyAccess(expired)
	requireCode(t, err, http.StatusUnauthorized)

	_, err = f.svc.VerifyAccess("garbage")
	requireCode(t, err, http.StatusForbidden)
}
