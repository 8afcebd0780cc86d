package repository

import (
	"github.com/mijwel-dev/chatter-backend/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Friend  FriendRepository
	Message MessageRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Session: NewSessionRepository(db),
		Friend:  NewFriendRepository(db),
		Message: NewMessageRepository(db),
	}
}
