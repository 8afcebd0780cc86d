package repository

import (
	"context"
	"time"

	"github.com/mijwel-dev/chatter-backend/internal/domain"
)

// ProfileUpdate carries the mutable profile fields of a setup request
type ProfileUpdate struct {
	Name     string
	Username string
	Gender   string
	Bio      *string
	Setup    bool
}

// UserRepository defines methods for user operations. The Get* readers never
// select the password hash or the verification/reset codes; the Credentials*
// readers do, and are the only paths allowed to.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)

	CredentialsByLogin(ctx context.Context, email, username string) (*domain.User, error)
	CredentialsByEmail(ctx context.Context, email string) (*domain.User, error)
	CredentialsByID(ctx context.Context, id string) (*domain.User, error)

	UpdateProfile(ctx context.Context, id string, details ProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetVerification(ctx context.Context, id, code string, expiry time.Time) error
	SetVerificationWithPassword(ctx context.Context, id, passwordHash, code string, expiry time.Time) error
	MarkVerified(ctx context.Context, id string) error
	SetResetCode(ctx context.Context, id, code string, expiry time.Time) error
	ResetPassword(ctx context.Context, id, passwordHash string) error

	Search(ctx context.Context, selfID, term string) ([]*domain.User, error)
}

// SessionRepository manages the per-device refresh sessions (the user's
// authentication list). Every mutation is a single conditional statement so
// concurrent refresh attempts race safely without application-level locks.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Find(ctx context.Context, userID, sessionID, token string) (*domain.Session, error)
	// Rotate replaces the token and expiry of the entry matched by session id
	// AND the exact old token value. Returns ErrNotFound when nothing matched,
	// which a caller must treat as a lost rotation race.
	Rotate(ctx context.Context, sessionID, oldToken, newToken string, expiresAt time.Time) error
	// Delete removes one session entry; removing nothing is not an error so
	// sign-out stays idempotent.
	Delete(ctx context.Context, userID, sessionID, token string) error
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}

// FriendRepository manages friend-request records
type FriendRepository interface {
	Create(ctx context.Context, requester, recipient string) error
	FindBetween(ctx context.Context, userA, userB string) (*domain.Friend, error)
	// UpdateStatus transitions the pending request from requester to recipient;
	// ErrNotFound when no pending record matched.
	UpdateStatus(ctx context.Context, requester, recipient, from, to string) error
	// Reopen resets a previously rejected/canceled record back to pending
	Reopen(ctx context.Context, id string) error
	DeleteAccepted(ctx context.Context, userA, userB string) error
	PendingFor(ctx context.Context, userID string) (sent, received []domain.PendingRequest, err error)
	FriendsOf(ctx context.Context, userID string) ([]domain.Snapshot, error)
}

// MessageRepository manages conversations and direct messages
type MessageRepository interface {
	FindOrCreateConversation(ctx context.Context, userA, userB string) (*domain.Conversation, error)
	CreateMessage(ctx context.Context, message *domain.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*domain.Message, error)
	EditMessage(ctx context.Context, messageID, senderID, text string) (*domain.Message, error)
	DeleteMessage(ctx context.Context, messageID, senderID string) (*domain.Message, error)
	DeleteOldMessages(ctx context.Context, userID string, before time.Time) (int64, error)
}
