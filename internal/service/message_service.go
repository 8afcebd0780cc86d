package service

import (
	"context"
	"errors"
	"time"

	"github.com/mijwel-dev/chatter-backend/internal/apperr"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
	"github.com/mijwel-dev/chatter-backend/internal/repository"
)

// oldMessageAge is the cutoff used by the bulk delete of stale messages
const oldMessageAge = 24 * time.Hour

type messageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	cache    SnapshotCache

	now func() time.Time
}

// NewMessageService creates the direct-message service
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, cache SnapshotCache) MessageService {
	return &messageService{
		messages: messages,
		users:    users,
		cache:    cache,
		now:      time.Now,
	}
}

func (s *messageService) exists(ctx context.Context, userID string) (bool, error) {
	if _, ok := s.cache.Get(ctx, userID); ok {
		return true, nil
	}
	return s.users.Exists(ctx, userID)
}

// Send stores a message towards the recipient, creating the conversation on
// first contact
func (s *messageService) Send(ctx context.Context, senderID, recipientID string, req *dto.SendMessageRequest) (*domain.Message, error) {
	if senderID == recipientID {
		return nil, apperr.BadRequest("You can't message yourself!")
	}

	ok, err := s.exists(ctx, recipientID)
	if err != nil {
		return nil, apperr.Internal("Error while sending message!", err)
	}
	if !ok {
		return nil, apperr.NotFound("User not found!")
	}

	conversation, err := s.messages.FindOrCreateConversation(ctx, senderID, recipientID)
	if err != nil {
		return nil, apperr.Internal("Error while sending message!", err)
	}

	message := &domain.Message{
		ConversationID: conversation.ID,
		Sender:         senderID,
		Recipient:      recipientID,
		Status:         domain.MessageSent,
		Content: &domain.MessageContent{
			Type: req.Type,
			Text: req.Text,
			File: req.File,
		},
	}

	if err := s.messages.CreateMessage(ctx, message); err != nil {
		return nil, apperr.Internal("Error while sending message!", err)
	}
	return message, nil
}

// Get lists the conversation between the caller and the other user, oldest
// first
func (s *messageService) Get(ctx context.Context, userID, otherID string) ([]*domain.Message, error) {
	if userID == otherID {
		return nil, apperr.BadRequest("You can't message yourself!")
	}

	ok, err := s.exists(ctx, otherID)
	if err != nil {
		return nil, apperr.Internal("Error while fetching messages!", err)
	}
	if !ok {
		return nil, apperr.NotFound("User not found!")
	}

	conversation, err := s.messages.FindOrCreateConversation(ctx, userID, otherID)
	if err != nil {
		return nil, apperr.Internal("Error while fetching messages!", err)
	}

	messages, err := s.messages.ListMessages(ctx, conversation.ID)
	if err != nil {
		return nil, apperr.Internal("Error while fetching messages!", err)
	}
	return messages, nil
}

// Edit replaces the text of a message the caller sent. Ownership, text-only
// content and not-deleted are all enforced by the conditional update, so a
// failed match is indistinguishable from a missing message on purpose.
func (s *messageService) Edit(ctx context.Context, userID, messageID, text string) (*domain.Message, error) {
	message, err := s.messages.EditMessage(ctx, messageID, userID, text)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Forbidden("You can't edit this message or message not found!")
		}
		return nil, apperr.Internal("Error while editing message!", err)
	}
	return message, nil
}

// Delete marks a message the caller sent as deleted and clears its content
func (s *messageService) Delete(ctx context.Context, userID, messageID string) (*domain.Message, error) {
	message, err := s.messages.DeleteMessage(ctx, messageID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Forbidden("You can't delete this message or message not found!")
		}
		return nil, apperr.Internal("Error while deleting message!", err)
	}
	return message, nil
}

// DeleteOld removes the caller's messages older than a day
func (s *messageService) DeleteOld(ctx context.Context, userID string) (int64, error) {
	removed, err := s.messages.DeleteOldMessages(ctx, userID, s.now().Add(-oldMessageAge))
	if err != nil {
		return 0, apperr.Internal("Error while deleting old messages!", err)
	}
	return removed, nil
}
