package service

import (
	"context"
	"errors"
	"time"

	"github.com/mijwel-dev/chatter-backend/internal/apperr"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/internal/repository"
)

// resendCooldown is how long a rejected or canceled request blocks a new one
// between the same pair
const resendCooldown = 7 * 24 * time.Hour

type friendService struct {
	friends repository.FriendRepository
	users   repository.UserRepository
	cache   SnapshotCache

	now func() time.Time
}

// NewFriendService creates the friend-request lifecycle service
func NewFriendService(friends repository.FriendRepository, users repository.UserRepository, cache SnapshotCache) FriendService {
	return &friendService{
		friends: friends,
		users:   users,
		cache:   cache,
		now:     time.Now,
	}
}

// exists checks the recipient through the snapshot cache before hitting the
// database
func (s *friendService) exists(ctx context.Context, userID string) (bool, error) {
	if _, ok := s.cache.Get(ctx, userID); ok {
		return true, nil
	}
	return s.users.Exists(ctx, userID)
}

// SendRequest creates a pending request towards the recipient. A previously
// rejected or canceled record between the pair is reopened once its cooldown
// has passed.
func (s *friendService) SendRequest(ctx context.Context, requesterID, recipientID string) error {
	if requesterID == recipientID {
		return apperr.BadRequest("You can't send a friend request to yourself!")
	}

	ok, err := s.exists(ctx, recipientID)
	if err != nil {
		return apperr.Internal("Error while sending friend request!", err)
	}
	if !ok {
		return apperr.NotFound("User not found!")
	}

	existing, err := s.friends.FindBetween(ctx, requesterID, recipientID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internal("Error while sending friend request!", err)
	}

	if existing == nil {
		if err := s.friends.Create(ctx, requesterID, recipientID); err != nil {
			if errors.Is(err, repository.ErrDuplicateFriend) {
				return apperr.Conflict("Friend request already exists!")
			}
			return apperr.Internal("Error while sending friend request!", err)
		}
		return nil
	}

	switch existing.Status {
	case domain.FriendAccepted:
		return apperr.Conflict("You are already friends!")
	case domain.FriendPending:
		return apperr.Conflict("Friend request already exists!")
	case domain.FriendBlocked:
		return apperr.Forbidden("You can't send a friend request to this user!")
	case domain.FriendRejected, domain.FriendCanceled:
		if s.now().Before(existing.LastActionAt.Add(resendCooldown)) {
			return apperr.Conflict("Friend request was recently declined. Try again later!")
		}
		if err := s.friends.Reopen(ctx, existing.ID); err != nil {
			return apperr.Internal("Error while sending friend request!", err)
		}
		return nil
	default:
		return apperr.Internal("Error while sending friend request!", nil)
	}
}

// HandleRequest lets the recipient accept or reject a pending request
func (s *friendService) HandleRequest(ctx context.Context, recipientID, requesterID, action string) error {
	var to string
	switch action {
	case "accept":
		to = domain.FriendAccepted
	case "reject":
		to = domain.FriendRejected
	default:
		return apperr.BadRequest("Invalid friend request action!")
	}

	err := s.friends.UpdateStatus(ctx, requesterID, recipientID, domain.FriendPending, to)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Friend request not found!")
		}
		return apperr.Internal("Error while handling friend request!", err)
	}
	return nil
}

// RetrieveRequest lets the requester cancel their own pending request
func (s *friendService) RetrieveRequest(ctx context.Context, requesterID, recipientID string) error {
	err := s.friends.UpdateStatus(ctx, requesterID, recipientID, domain.FriendPending, domain.FriendCanceled)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Friend request not found!")
		}
		return apperr.Internal("Error while retrieving friend request!", err)
	}
	return nil
}

// Pending lists the caller's outgoing and incoming pending requests
func (s *friendService) Pending(ctx context.Context, userID string) (sent, received []domain.PendingRequest, err error) {
	sent, received, err = s.friends.PendingFor(ctx, userID)
	if err != nil {
		return nil, nil, apperr.Internal("Error while listing friend requests!", err)
	}
	return sent, received, nil
}

// Unfriend removes an accepted friendship in either direction
func (s *friendService) Unfriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return apperr.BadRequest("You can't unfriend yourself!")
	}

	err := s.friends.DeleteAccepted(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Friendship not found!")
		}
		return apperr.Internal("Error while unfriending user!", err)
	}
	return nil
}

// Friends lists the caller's accepted friends
func (s *friendService) Friends(ctx context.Context, userID string) ([]domain.Snapshot, error) {
	friends, err := s.friends.FriendsOf(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Error while listing friends!", err)
	}
	return friends, nil
}
