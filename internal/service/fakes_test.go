package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/internal/repository"
)

// In-memory fakes for the repository and collaborator interfaces. Error
// injection hooks let individual tests force the failure paths.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) add(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	r.users[u.ID] = u
	return u
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username != nil && *u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

func (r *fakeUserRepo) CredentialsByLogin(ctx context.Context, email, username string) (*domain.User, error) {
	if email != "" {
		return r.GetByEmail(ctx, email)
	}
	if username != "" {
		return r.GetByUsername(ctx, username)
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) CredentialsByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.GetByEmail(ctx, email)
}

func (r *fakeUserRepo) CredentialsByID(ctx context.Context, id string) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id string, details repository.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Username != nil && *other.Username == details.Username {
			return nil, repository.ErrDuplicateUsername
		}
	}
	u.Name = &details.Name
	u.Username = &details.Username
	u.Gender = details.Gender
	u.Bio = details.Bio
	u.Setup = details.Setup
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) SetVerification(_ context.Context, id, code string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.VerificationCode = &code
	u.VerificationExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) SetVerificationWithPassword(_ context.Context, id, passwordHash, code string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Verified {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.VerificationCode = &code
	u.VerificationExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Verified = true
	u.VerificationCode = nil
	u.VerificationExpiry = nil
	return nil
}

func (r *fakeUserRepo) SetResetCode(_ context.Context, id, code string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetCode = &code
	u.ResetExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) ResetPassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetCode = nil
	u.ResetExpiry = nil
	return nil
}

func (r *fakeUserRepo) Search(_ context.Context, selfID, term string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.ID == selfID || !u.Setup {
			continue
		}
		if u.Username != nil && strings.Contains(*u.Username, term) {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	rotateFn func(sessionID, oldToken, newToken string, expiresAt time.Time) error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	c := *session
	r.sessions[session.ID] = &c
	return nil
}

func (r *fakeSessionRepo) Find(_ context.Context, userID, sessionID, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.UserID != userID || s.Token != token {
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	c := *s
	return &c, nil
}

func (r *fakeSessionRepo) Rotate(_ context.Context, sessionID, oldToken, newToken string, expiresAt time.Time) error {
	if r.rotateFn != nil {
		return r.rotateFn(sessionID, oldToken, newToken, expiresAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.Token != oldToken {
		return fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	s.Token = newToken
	s.ExpiresAt = expiresAt
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, userID, sessionID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if ok && s.UserID == userID && s.Token == token {
		delete(r.sessions, sessionID)
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, s := range r.sessions {
		if s.UserID == userID && !now.Before(s.ExpiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type fakeCache struct {
	mu        sync.Mutex
	snapshots map[string]domain.Snapshot
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: map[string]domain.Snapshot{}}
}

func (c *fakeCache) Set(_ context.Context, snapshot domain.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[snapshot.ID] = snapshot
}

func (c *fakeCache) Get(_ context.Context, id string) (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snapshots[id]
	return s, ok
}

func (c *fakeCache) Delete(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, id)
}

type fakeFriendRepo struct {
	mu      sync.Mutex
	records map[string]*domain.Friend
}

func newFakeFriendRepo() *fakeFriendRepo {
	return &fakeFriendRepo{records: map[string]*domain.Friend{}}
}

func (r *fakeFriendRepo) Create(_ context.Context, requester, recipient string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.records {
		if samePair(f, requester, recipient) {
			return repository.ErrDuplicateFriend
		}
	}
	id := uuid.New().String()
	now := time.Now()
	r.records[id] = &domain.Friend{
		ID:           id,
		Requester:    requester,
		Recipient:    recipient,
		Status:       domain.FriendPending,
		LastActionAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return nil
}

func samePair(f *domain.Friend, a, b string) bool {
	return (f.Requester == a && f.Recipient == b) || (f.Requester == b && f.Recipient == a)
}

func (r *fakeFriendRepo) FindBetween(_ context.Context, userA, userB string) (*domain.Friend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.records {
		if samePair(f, userA, userB) {
			c := *f
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeFriendRepo) UpdateStatus(_ context.Context, requester, recipient, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.records {
		if f.Requester == requester && f.Recipient == recipient && f.Status == from {
			f.Status = to
			f.LastActionAt = time.Now()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeFriendRepo) Reopen(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.Status = domain.FriendPending
	f.LastActionAt = time.Now()
	return nil
}

func (r *fakeFriendRepo) DeleteAccepted(_ context.Context, userA, userB string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.records {
		if samePair(f, userA, userB) && f.Status == domain.FriendAccepted {
			delete(r.records, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeFriendRepo) PendingFor(_ context.Context, userID string) (sent, received []domain.PendingRequest, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.records {
		if f.Status != domain.FriendPending {
			continue
		}
		entry := domain.PendingRequest{At: f.CreatedAt}
		switch userID {
		case f.Requester:
			entry.User = domain.Snapshot{ID: f.Recipient}
			sent = append(sent, entry)
		case f.Recipient:
			entry.User = domain.Snapshot{ID: f.Requester}
			received = append(received, entry)
		}
	}
	return sent, received, nil
}

func (r *fakeFriendRepo) FriendsOf(_ context.Context, userID string) ([]domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Snapshot
	for _, f := range r.records {
		if f.Status != domain.FriendAccepted {
			continue
		}
		switch userID {
		case f.Requester:
			out = append(out, domain.Snapshot{ID: f.Recipient})
		case f.Recipient:
			out = append(out, domain.Snapshot{ID: f.Requester})
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	messages      map[string]*domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		conversations: map[string]*domain.Conversation{},
		messages:      map[string]*domain.Message{},
	}
}

func (r *fakeMessageRepo) FindOrCreateConversation(_ context.Context, userA, userB string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	one, two := userA, userB
	if one > two {
		one, two = two, one
	}
	for _, c := range r.conversations {
		if c.ParticipantOne == one && c.ParticipantTwo == two {
			cc := *c
			return &cc, nil
		}
	}
	id := uuid.New().String()
	now := time.Now()
	conv := &domain.Conversation{ID: id, ParticipantOne: one, ParticipantTwo: two, Interaction: now, CreatedAt: now}
	r.conversations[id] = conv
	cc := *conv
	return &cc, nil
}

func (r *fakeMessageRepo) CreateMessage(_ context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()
	message.UpdatedAt = message.CreatedAt
	c := *message
	r.messages[message.ID] = &c
	if conv, ok := r.conversations[message.ConversationID]; ok {
		conv.Interaction = message.CreatedAt
	}
	return nil
}

func (r *fakeMessageRepo) ListMessages(_ context.Context, conversationID string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Message{}
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) EditMessage(_ context.Context, messageID, senderID, text string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[messageID]
	if !ok || m.Sender != senderID || m.Content == nil ||
		m.Content.Type != domain.MessageText || m.Status == domain.MessageDeleted {
		return nil, repository.ErrNotFound
	}
	m.Content.Text = &text
	m.Status = domain.MessageEdited
	m.UpdatedAt = time.Now()
	c := *m
	return &c, nil
}

func (r *fakeMessageRepo) DeleteMessage(_ context.Context, messageID, senderID string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[messageID]
	if !ok || m.Sender != senderID || m.Status == domain.MessageDeleted {
		return nil, repository.ErrNotFound
	}
	m.Status = domain.MessageDeleted
	m.Content = nil
	now := time.Now()
	m.DeletedAt = &now
	m.UpdatedAt = now
	c := *m
	return &c, nil
}

func (r *fakeMessageRepo) DeleteOldMessages(_ context.Context, userID string, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, m := range r.messages {
		if (m.Sender == userID || m.Recipient == userID) && m.CreatedAt.Before(before) {
			delete(r.messages, id)
			removed++
		}
	}
	return removed, nil
}

// fakeMailer records every delivery so tests can assert on the email flows
type fakeMailer struct {
	mu            sync.Mutex
	verifications []string
	welcomes      []string
	resets        []string
	resetDones    []string
	lastCode      string
}

func (m *fakeMailer) SendVerification(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, email)
	m.lastCode = code
	return nil
}

func (m *fakeMailer) SendWelcome(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, email)
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, email)
	m.lastCode = code
	return nil
}

func (m *fakeMailer) SendResetSuccess(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDones = append(m.resetDones, email)
	return nil
}
