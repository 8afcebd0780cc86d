package service

import (
	"context"

	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
)

// AuthService is the session lifecycle manager: it owns sign-up/verification,
// sign-in, the refresh decision and sign-out, and it is the only place that
// mutates the per-device session list.
type AuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*AuthResult, error)
	VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) (*AuthResult, error)
	SignIn(ctx context.Context, req *dto.SignInRequest, device string) (*SignInResult, error)
	RefreshSession(ctx context.Context, refreshToken, sessionID string) (*RefreshResult, error)
	SignOut(ctx context.Context, user domain.Snapshot, refreshToken, sessionID string) error
	PurgeSessions(ctx context.Context, userID string) (int64, error)
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	VerifyAccess(token string) (domain.Snapshot, error)
}

// UserService manages profile mutations and lookups for signed-in users
type UserService interface {
	ProfileSetup(ctx context.Context, user domain.Snapshot, req *dto.ProfileSetupRequest) (*ProfileResult, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) (*ProfileResult, error)
	Search(ctx context.Context, selfID, term string) ([]domain.Snapshot, error)
}

// FriendService manages the friend-request lifecycle
type FriendService interface {
	SendRequest(ctx context.Context, requesterID, recipientID string) error
	HandleRequest(ctx context.Context, recipientID, requesterID, action string) error
	RetrieveRequest(ctx context.Context, requesterID, recipientID string) error
	Pending(ctx context.Context, userID string) (sent, received []domain.PendingRequest, err error)
	Unfriend(ctx context.Context, userID, friendID string) error
	Friends(ctx context.Context, userID string) ([]domain.Snapshot, error)
}

// MessageService manages direct messages between users
type MessageService interface {
	Send(ctx context.Context, senderID, recipientID string, req *dto.SendMessageRequest) (*domain.Message, error)
	Get(ctx context.Context, userID, otherID string) ([]*domain.Message, error)
	Edit(ctx context.Context, userID, messageID, text string) (*domain.Message, error)
	Delete(ctx context.Context, userID, messageID string) (*domain.Message, error)
	DeleteOld(ctx context.Context, userID string) (int64, error)
}

// SnapshotCache fronts hot user lookups; implementations must be best-effort
type SnapshotCache interface {
	Set(ctx context.Context, snapshot domain.Snapshot)
	Get(ctx context.Context, id string) (domain.Snapshot, bool)
	Delete(ctx context.Context, id string)
}
