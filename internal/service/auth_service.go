package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mijwel-dev/chatter-backend/internal/apperr"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
	"github.com/mijwel-dev/chatter-backend/internal/repository"
	"github.com/mijwel-dev/chatter-backend/internal/utils"
	"github.com/mijwel-dev/chatter-backend/pkg/mailer"
)

// Verification/reset code lifetimes: the first code lasts a day, reissued
// codes only an hour
const (
	longCodeTTL  = 24 * time.Hour
	shortCodeTTL = time.Hour

	codeLength = 6
)

// ErrSessionExpired signals that the presented refresh token passed its
// absolute expiry: the session entry has been revoked and the client must
// sign in again.
var ErrSessionExpired = errors.New("session expired, login required")

// AuthResult is the outcome of the pre-session flows (sign-up, verify-email)
type AuthResult struct {
	Code    int
	Message string
	User    domain.Snapshot
}

// SignInResult carries the issued credentials of a sign-in. Refresh and
// SessionID stay empty when the account has not finished profile setup.
type SignInResult struct {
	Code      int
	Message   string
	User      domain.Snapshot
	Access    string
	Refresh   string
	SessionID string
}

// RefreshResult is the outcome of a granted refresh decision. Tokens.Refresh
// is empty when the stored refresh token was still fresh enough to reuse.
type RefreshResult struct {
	User      domain.Snapshot
	Tokens    domain.TokenPair
	SessionID string
	Rotated   bool
}

// authService implements AuthService
type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *utils.TokenManager
	cache    SnapshotCache
	mail     mailer.Mailer

	bcryptCost int

	// now is swapped in tests to pin the refresh-decision boundaries
	now func() time.Time
}

// NewAuthService creates the session lifecycle manager
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *utils.TokenManager,
	cache SnapshotCache,
	mail mailer.Mailer,
	bcryptCost int,
) AuthService {
	return &authService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		cache:      cache,
		mail:       mail,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// SignUp registers a new account and emails its verification code. An
// existing unverified account gets its password and code replaced instead of
// a conflict, so an abandoned registration can be retried.
func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*AuthResult, error) {
	email := utils.SanitizeEmail(req.Email)

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("Error while registering user!", err)
	}

	code, err := utils.GenerateSecureCode(codeLength)
	if err != nil {
		return nil, apperr.Internal("Error while registering user!", err)
	}
	expiry := s.now().Add(longCodeTTL)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal("Error while registering user!", err)
	}

	if existing != nil {
		if existing.Verified {
			return nil, apperr.Conflict("Email already exists!")
		}

		if err := s.users.SetVerificationWithPassword(ctx, existing.ID, passwordHash, code, expiry); err != nil {
			return nil, apperr.Internal("Error while registering user!", err)
		}
		if err := s.mail.SendVerification(ctx, email, code); err != nil {
			return nil, apperr.Internal("Error while sending verification email!", err)
		}

		return &AuthResult{
			Code:    http.StatusOK,
			Message: "Please, verify your email!",
			User:    domain.NewSnapshot(existing).Masked(),
		}, nil
	}

	user := &domain.User{
		Email:              email,
		PasswordHash:       passwordHash,
		VerificationCode:   &code,
		VerificationExpiry: &expiry,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("Email already exists!")
		}
		return nil, apperr.Internal("Error while registering user!", err)
	}

	if err := s.mail.SendVerification(ctx, email, code); err != nil {
		return nil, apperr.Internal("Error while sending verification email!", err)
	}

	return &AuthResult{
		Code:    http.StatusCreated,
		Message: "Please, verify your email!",
		User:    domain.NewSnapshot(user).Masked(),
	}, nil
}

// VerifyEmail checks the emailed code. A correct-but-expired code triggers a
// fresh short-lived code instead of a hard failure.
func (s *authService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) (*AuthResult, error) {
	email := utils.SanitizeEmail(req.Email)

	user, err := s.users.CredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found!")
		}
		return nil, apperr.Internal("Error while verifying email!", err)
	}

	if user.Verified {
		return nil, apperr.Conflict("Email is already verified!")
	}

	if user.VerificationCode == nil || user.VerificationExpiry == nil || *user.VerificationCode != req.Code {
		return nil, apperr.Forbidden("Invalid verification code!")
	}

	if s.now().Before(*user.VerificationExpiry) {
		if err := s.users.MarkVerified(ctx, user.ID); err != nil {
			return nil, apperr.Internal("Error while verifying email!", err)
		}
		if err := s.mail.SendWelcome(ctx, user.Email); err != nil {
			return nil, apperr.Internal("Error while sending welcome email!", err)
		}

		user.Verified = true
		return &AuthResult{
			Code:    http.StatusAccepted,
			Message: "Email verified successfully!",
			User:    domain.NewSnapshot(user).Masked(),
		}, nil
	}

	// Correct code, but expired: reissue with the short lifetime
	code, err := utils.GenerateSecureCode(codeLength)
	if err != nil {
		return nil, apperr.Internal("Error while resending verification email!", err)
	}
	if err := s.users.SetVerification(ctx, user.ID, code, s.now().Add(shortCodeTTL)); err != nil {
		return nil, apperr.Internal("Error while resending verification email!", err)
	}
	if err := s.mail.SendVerification(ctx, user.Email, code); err != nil {
		return nil, apperr.Internal("Error while resending verification email!", err)
	}

	return &AuthResult{
		Code:    http.StatusOK,
		Message: "Verification code has expired. A new code has been sent to your email!",
		User:    domain.NewSnapshot(user).Masked(),
	}, nil
}

// SignIn authenticates by email or username. Incomplete profiles receive
// only an access token: no refresh session exists until setup is done.
func (s *authService) SignIn(ctx context.Context, req *dto.SignInRequest, device string) (*SignInResult, error) {
	email := utils.SanitizeEmail(req.Email)
	username := utils.SanitizeUsername(req.Username)

	if email == "" && username == "" {
		return nil, apperr.BadRequest("Email or Username required!")
	}

	user, err := s.users.CredentialsByLogin(ctx, email, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not exists!")
		}
		return nil, apperr.Internal("Error while signing in!", err)
	}

	if !user.Verified {
		code, err := utils.GenerateSecureCode(codeLength)
		if err != nil {
			return nil, apperr.Internal("Error while signing in!", err)
		}
		if err := s.users.SetVerification(ctx, user.ID, code, s.now().Add(shortCodeTTL)); err != nil {
			return nil, apperr.Internal("Error while signing in!", err)
		}
		if err := s.mail.SendVerification(ctx, user.Email, code); err != nil {
			return nil, apperr.Internal("Error while sending verification email!", err)
		}

		return &SignInResult{
			Code:    http.StatusOK,
			Message: "Please, verify your email!",
			User:    domain.NewSnapshot(user).Masked(),
		}, nil
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperr.Forbidden("Incorrect password!")
	}

	snapshot := domain.NewSnapshot(user)

	access, err := s.tokens.GenerateAccessToken(snapshot)
	if err != nil {
		return nil, apperr.Internal("Error while signing in!", err)
	}

	if !snapshot.Setup {
		return &SignInResult{
			Code:    http.StatusOK,
			Message: "Please, complete your profile!",
			User:    snapshot.Masked(),
			Access:  access,
		}, nil
	}

	refresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperr.Internal("Error while signing in!", err)
	}

	session := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: s.now().Add(s.tokens.RefreshExpiry()),
	}
	if device != "" {
		session.Device = &device
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperr.Internal("Error while signing in!", err)
	}

	s.cache.Set(ctx, snapshot)

	return &SignInResult{
		Code:      http.StatusOK,
		Message:   "Signed in successfully!",
		User:      snapshot.Masked(),
		Access:    access,
		Refresh:   refresh,
		SessionID: session.ID,
	}, nil
}

// VerifyAccess checks an access token and returns the embedded snapshot. No
// database read happens here: trust is delegated to the signature, which is
// why the access lifetime stays short.
func (s *authService) VerifyAccess(token string) (domain.Snapshot, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return domain.Snapshot{}, apperr.Unauthorized("Access token expired!")
		}
		return domain.Snapshot{}, apperr.Forbidden("Invalid access request!")
	}
	return claims.User, nil
}

// RefreshSession runs the refresh decision:
//
//	now <  expiry − accessTTL  → reuse (new access token only)
//	now >= expiry − accessTTL  → rotate (new refresh token, entry replaced)
//	now >= expiry              → revoke entry and reject with ErrSessionExpired
//
// A signature-valid token that does not byte-match the stored entry is
// rejected regardless: the store copy is the single source of truth.
func (s *authService) RefreshSession(ctx context.Context, refreshToken, sessionID string) (*RefreshResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Forbidden("Invalid refresh request!")
	}

	if uuid.Validate(sessionID) != nil {
		return nil, apperr.Forbidden("Invalid user request!")
	}

	if _, err := s.sessions.Find(ctx, claims.UID, sessionID, refreshToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Forbidden("Invalid user request!")
		}
		return nil, apperr.Internal("Error while refreshing session!", err)
	}

	user, err := s.users.GetByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Forbidden("Invalid user request!")
		}
		return nil, apperr.Internal("Error while refreshing session!", err)
	}
	snapshot := domain.NewSnapshot(user)

	now := s.now()
	expiry := claims.ExpiresAt.Time
	graceStart := expiry.Add(-s.tokens.AccessExpiry())

	switch {
	case !now.Before(expiry):
		// Past absolute expiry: revoke the entry and force a re-login
		if err := s.sessions.Delete(ctx, claims.UID, sessionID, refreshToken); err != nil {
			return nil, apperr.Internal("Error while refreshing session!", err)
		}
		return nil, ErrSessionExpired

	case !now.Before(graceStart):
		// Inside the grace window: rotate so the client always holds a
		// refresh token with more than one access lifetime left
		newRefresh, err := s.tokens.GenerateRefreshToken(claims.UID)
		if err != nil {
			return nil, apperr.Internal("Error while refreshing session!", err)
		}

		err = s.sessions.Rotate(ctx, sessionID, refreshToken, newRefresh, now.Add(s.tokens.RefreshExpiry()))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// A concurrent refresh already rotated this entry; the
				// presented token is now correctly stale
				return nil, apperr.Forbidden("Invalid refresh request!")
			}
			return nil, apperr.Internal("Error while refreshing session!", err)
		}

		access, err := s.tokens.GenerateAccessToken(snapshot)
		if err != nil {
			return nil, apperr.Internal("Error while refreshing session!", err)
		}

		return &RefreshResult{
			User:      snapshot,
			Tokens:    domain.TokenPair{Access: access, Refresh: newRefresh},
			SessionID: sessionID,
			Rotated:   true,
		}, nil

	default:
		// Still fresh: reuse the stored refresh token
		access, err := s.tokens.GenerateAccessToken(snapshot)
		if err != nil {
			return nil, apperr.Internal("Error while refreshing session!", err)
		}

		return &RefreshResult{
			User:      snapshot,
			Tokens:    domain.TokenPair{Access: access},
			SessionID: sessionID,
		}, nil
	}
}

// SignOut revokes the one session named by the cookies. It never fails on a
// missing entry so repeated sign-outs are safe.
func (s *authService) SignOut(ctx context.Context, user domain.Snapshot, refreshToken, sessionID string) error {
	if !user.Setup || refreshToken == "" || sessionID == "" {
		return nil
	}
	if uuid.Validate(sessionID) != nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, user.ID, sessionID, refreshToken); err != nil {
		return apperr.Internal("Error while signing out!", err)
	}

	s.cache.Delete(ctx, user.ID)
	return nil
}

// PurgeSessions removes all of the caller's expired session entries
func (s *authService) PurgeSessions(ctx context.Context, userID string) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, userID, s.now())
	if err != nil {
		return 0, apperr.Internal("Error while purging sessions!", err)
	}
	return removed, nil
}

// ForgotPassword stores a reset code and emails it; only verified accounts
// can request a reset
func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	email := utils.SanitizeEmail(req.Email)

	user, err := s.users.CredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found!")
		}
		return apperr.Internal("Error while requesting password reset!", err)
	}

	if !user.Verified {
		return apperr.Forbidden("Please verify your email before requesting a password reset!")
	}

	code, err := utils.GenerateSecureCode(codeLength)
	if err != nil {
		return apperr.Internal("Error while requesting password reset!", err)
	}

	if err := s.users.SetResetCode(ctx, user.ID, code, s.now().Add(shortCodeTTL)); err != nil {
		return apperr.Internal("Error while requesting password reset!", err)
	}

	if err := s.mail.SendPasswordReset(ctx, user.Email, code); err != nil {
		return apperr.Internal("Error while sending password reset email!", err)
	}

	return nil
}

// ResetPassword completes the reset flow against the stored code
func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	email := utils.SanitizeEmail(req.Email)

	user, err := s.users.CredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found!")
		}
		return apperr.Internal("Error while resetting password!", err)
	}

	if user.ResetCode == nil || user.ResetExpiry == nil {
		return apperr.BadRequest("No reset request found for this user!")
	}
	if *user.ResetCode != req.Code {
		return apperr.BadRequest("Invalid reset code!")
	}
	if !s.now().Before(*user.ResetExpiry) {
		return apperr.BadRequest("Expired reset code!")
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return apperr.Internal("Error while resetting password!", err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, passwordHash); err != nil {
		return apperr.Internal("Error while resetting password!", err)
	}

	if err := s.mail.SendResetSuccess(ctx, user.Email); err != nil {
		return apperr.Internal("Error while sending reset confirmation email!", err)
	}

	return nil
}
