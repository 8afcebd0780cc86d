package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/pkg/database"
)

// friendRepository implements FriendRepository on PostgreSQL
type friendRepository struct {
	db *database.Postgres
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *database.Postgres) FriendRepository {
	return &friendRepository{db: db}
}

// Create inserts a pending friend request
func (r *friendRepository) Create(ctx context.Context, requester, recipient string) error {
	query := `
		INSERT INTO friends (id, requester, recipient, status, last_action_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5, $5)
	`

	_, err := r.db.DB.ExecContext(ctx, query, uuid.New().String(), requester, recipient, domain.FriendPending, time.Now())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("failed to create friend request: %w", ErrDuplicateFriend)
		}
		return fmt.Errorf("failed to create friend request: %w", err)
	}

	return nil
}

// FindBetween loads the friend record between two users in either direction
func (r *friendRepository) FindBetween(ctx context.Context, userA, userB string) (*domain.Friend, error) {
	query := `
		SELECT id, requester, recipient, status, last_action_at, created_at, updated_at
		FROM friends
		WHERE (requester = $1 AND recipient = $2) OR (requester = $2 AND recipient = $1)
	`

	friend := &domain.Friend{}
	err := r.db.DB.QueryRowContext(ctx, query, userA, userB).Scan(
		&friend.ID,
		&friend.Requester,
		&friend.Recipient,
		&friend.Status,
		&friend.LastActionAt,
		&friend.CreatedAt,
		&friend.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("friend record: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find friend record: %w", err)
	}

	return friend, nil
}

// UpdateStatus transitions a request of status `from` between the exact pair,
// conditionally so a concurrent transition matches at most once
func (r *friendRepository) UpdateStatus(ctx context.Context, requester, recipient, from, to string) error {
	query := `
		UPDATE friends
		SET status = $4, last_action_at = $5, updated_at = $5
		WHERE requester = $1 AND recipient = $2 AND status = $3
	`

	result, err := r.db.DB.ExecContext(ctx, query, requester, recipient, from, to, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update friend status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("friend request %s -> %s: %w", requester, recipient, ErrNotFound)
	}

	return nil
}

// Reopen resets a rejected/canceled record back to pending after cooldown
func (r *friendRepository) Reopen(ctx context.Context, id string) error {
	query := `
		UPDATE friends
		SET status = $2, last_action_at = $3, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, domain.FriendPending, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reopen friend request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("friend record %s: %w", id, ErrNotFound)
	}

	return nil
}

// DeleteAccepted removes the accepted record between a pair (unfriend)
func (r *friendRepository) DeleteAccepted(ctx context.Context, userA, userB string) error {
	query := `
		DELETE FROM friends
		WHERE status = $3
		  AND ((requester = $1 AND recipient = $2) OR (requester = $2 AND recipient = $1))
	`

	result, err := r.db.DB.ExecContext(ctx, query, userA, userB, domain.FriendAccepted)
	if err != nil {
		return fmt.Errorf("failed to unfriend: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("friendship: %w", ErrNotFound)
	}

	return nil
}

const pendingQuery = `
	SELECT f.created_at, u.id, u.name, u.email, u.username, u.gender, u.image, u.bio, u.setup
	FROM friends f
	JOIN users u ON u.id = f.%s
	WHERE f.%s = $1 AND f.status = $2
	ORDER BY f.created_at DESC
`

// PendingFor lists the user's outgoing and incoming pending requests with the
// counterpart's profile attached
func (r *friendRepository) PendingFor(ctx context.Context, userID string) (sent, received []domain.PendingRequest, err error) {
	sent, err = r.pending(ctx, fmt.Sprintf(pendingQuery, "recipient", "requester"), userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sent requests: %w", err)
	}

	received, err = r.pending(ctx, fmt.Sprintf(pendingQuery, "requester", "recipient"), userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list received requests: %w", err)
	}

	return sent, received, nil
}

func (r *friendRepository) pending(ctx context.Context, query, userID string) ([]domain.PendingRequest, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, userID, domain.FriendPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []domain.PendingRequest{}
	for rows.Next() {
		var req domain.PendingRequest
		err := rows.Scan(
			&req.At,
			&req.User.ID,
			&req.User.Name,
			&req.User.Email,
			&req.User.Username,
			&req.User.Gender,
			&req.User.Image,
			&req.User.Bio,
			&req.User.Setup,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// FriendsOf lists the profiles of all accepted counterparts
func (r *friendRepository) FriendsOf(ctx context.Context, userID string) ([]domain.Snapshot, error) {
	query := `
		SELECT u.id, u.name, u.email, u.username, u.gender, u.image, u.bio, u.setup
		FROM friends f
		JOIN users u ON u.id = CASE WHEN f.requester = $1 THEN f.recipient ELSE f.requester END
		WHERE (f.requester = $1 OR f.recipient = $1) AND f.status = $2
		ORDER BY u.username
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID, domain.FriendAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := []domain.Snapshot{}
	for rows.Next() {
		var snap domain.Snapshot
		err := rows.Scan(
			&snap.ID,
			&snap.Name,
			&snap.Email,
			&snap.Username,
			&snap.Gender,
			&snap.Image,
			&snap.Bio,
			&snap.Setup,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}

	return friends, nil
}
