package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/pkg/database"
)

// sessionRepository implements SessionRepository on PostgreSQL
type sessionRepository struct {
	db *database.Postgres
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.Postgres) SessionRepository {
	return &sessionRepository{db: db}
}

// Create appends a new device session to the user's authentication list
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.Device,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Find loads the session matched by owner, session id and the exact refresh
// token string. A signature-valid token that was already rotated will not
// match and must be treated as forged.
func (r *sessionRepository) Find(ctx context.Context, userID, sessionID, token string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, token, expires_at, device, created_at
		FROM sessions
		WHERE user_id = $1 AND id = $2 AND token = $3
	`

	session := &domain.Session{}
	err := r.db.DB.QueryRowContext(ctx, query, userID, sessionID, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.Device,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// Rotate atomically replaces the token and expiry of the entry matched by
// session id AND old token. Of two racing rotations exactly one matches; the
// loser gets ErrNotFound and must be rejected, not retried.
func (r *sessionRepository) Rotate(ctx context.Context, sessionID, oldToken, newToken string, expiresAt time.Time) error {
	query := `
		UPDATE sessions
		SET token = $3, expires_at = $4
		WHERE id = $1 AND token = $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, sessionID, oldToken, newToken, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	return nil
}

// Delete removes one session entry; a zero-row match is not an error
func (r *sessionRepository) Delete(ctx context.Context, userID, sessionID, token string) error {
	query := `DELETE FROM sessions WHERE user_id = $1 AND id = $2 AND token = $3`

	if _, err := r.db.DB.ExecContext(ctx, query, userID, sessionID, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteExpired removes all of the user's sessions whose refresh tokens are
// past absolute expiry
func (r *sessionRepository) DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE user_id = $1 AND expires_at <= $2`

	result, err := r.db.DB.ExecContext(ctx, query, userID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
