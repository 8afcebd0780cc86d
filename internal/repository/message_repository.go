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

// messageRepository implements MessageRepository on PostgreSQL
type messageRepository struct {
	db *database.Postgres
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.Postgres) MessageRepository {
	return &messageRepository{db: db}
}

// orderPair normalizes a participant pair so one conversation exists per pair
func orderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// FindOrCreateConversation returns the conversation for a participant pair,
// creating it on first contact. The upsert keeps concurrent first messages
// from creating duplicates.
func (r *messageRepository) FindOrCreateConversation(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	one, two := orderPair(userA, userB)

	query := `
		INSERT INTO conversations (id, participant_one, participant_two, interaction, created_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (participant_one, participant_two)
		DO UPDATE SET participant_one = EXCLUDED.participant_one
		RETURNING id, participant_one, participant_two, interaction, created_at
	`

	conv := &domain.Conversation{}
	err := r.db.DB.QueryRowContext(ctx, query, uuid.New().String(), one, two, time.Now()).Scan(
		&conv.ID,
		&conv.ParticipantOne,
		&conv.ParticipantTwo,
		&conv.Interaction,
		&conv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create conversation: %w", err)
	}

	return conv, nil
}

// CreateMessage appends a message and bumps the conversation interaction time
func (r *messageRepository) CreateMessage(ctx context.Context, message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now
	if message.Status == "" {
		message.Status = domain.MessageSent
	}

	var contentType, contentText, contentFile *string
	if message.Content != nil {
		contentType = &message.Content.Type
		contentText = message.Content.Text
		contentFile = message.Content.File
	}

	query := `
		INSERT INTO messages (id, conversation_id, sender, recipient, status,
			content_type, content_text, content_file, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		message.ID,
		message.ConversationID,
		message.Sender,
		message.Recipient,
		message.Status,
		contentType,
		contentText,
		contentFile,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	bump := `UPDATE conversations SET interaction = $2 WHERE id = $1`
	if _, err := r.db.DB.ExecContext(ctx, bump, message.ConversationID, now); err != nil {
		return fmt.Errorf("failed to bump conversation: %w", err)
	}

	return nil
}

const messageColumns = `id, conversation_id, sender, recipient, status,
	content_type, content_text, content_file, deleted_at, created_at, updated_at`

func scanMessage(row rowScanner) (*domain.Message, error) {
	msg := &domain.Message{}
	var contentType, contentText, contentFile *string

	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Sender,
		&msg.Recipient,
		&msg.Status,
		&contentType,
		&contentText,
		&contentFile,
		&msg.DeletedAt,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if contentType != nil {
		msg.Content = &domain.MessageContent{
			Type: *contentType,
			Text: contentText,
			File: contentFile,
		}
	}

	return msg, nil
}

// ListMessages returns a conversation's messages in send order
func (r *messageRepository) ListMessages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 ORDER BY created_at`

	rows, err := r.db.DB.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// EditMessage rewrites the text of the sender's own text message and marks it
// edited; ErrNotFound when the message is not theirs or not editable
func (r *messageRepository) EditMessage(ctx context.Context, messageID, senderID, text string) (*domain.Message, error) {
	query := `
		UPDATE messages
		SET content_text = $3, status = $4, updated_at = $5
		WHERE id = $1 AND sender = $2 AND content_type = $6 AND status <> $7
		RETURNING ` + messageColumns

	msg, err := scanMessage(r.db.DB.QueryRowContext(ctx, query,
		messageID, senderID, text, domain.MessageEdited, time.Now(), domain.MessageText, domain.MessageDeleted,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %s: %w", messageID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}

	return msg, nil
}

// DeleteMessage marks the sender's own message deleted and clears its content
func (r *messageRepository) DeleteMessage(ctx context.Context, messageID, senderID string) (*domain.Message, error) {
	query := `
		UPDATE messages
		SET status = $3, content_type = NULL, content_text = NULL, content_file = NULL,
			deleted_at = $4, updated_at = $4
		WHERE id = $1 AND sender = $2 AND status <> $3
		RETURNING ` + messageColumns

	msg, err := scanMessage(r.db.DB.QueryRowContext(ctx, query,
		messageID, senderID, domain.MessageDeleted, time.Now(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %s: %w", messageID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}

	return msg, nil
}

// DeleteOldMessages purges the user's messages created before the cutoff
func (r *messageRepository) DeleteOldMessages(ctx context.Context, userID string, before time.Time) (int64, error) {
	query := `DELETE FROM messages WHERE (sender = $1 OR recipient = $1) AND created_at < $2`

	result, err := r.db.DB.ExecContext(ctx, query, userID, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old messages: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
