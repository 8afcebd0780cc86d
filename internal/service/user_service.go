package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/mijwel-dev/chatter-backend/internal/apperr"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
	"github.com/mijwel-dev/chatter-backend/internal/repository"
	"github.com/mijwel-dev/chatter-backend/internal/utils"
)

// ProfileResult is the outcome of a profile mutation. Access is set when the
// mutation changed fields embedded in the access token, so the handler can
// reissue it immediately.
type ProfileResult struct {
	Code    int
	Message string
	User    domain.Snapshot
	Access  string
}

type userService struct {
	users  repository.UserRepository
	tokens *utils.TokenManager
	cache  SnapshotCache

	bcryptCost int
}

// NewUserService creates the profile service
func NewUserService(users repository.UserRepository, tokens *utils.TokenManager, cache SnapshotCache, bcryptCost int) UserService {
	return &userService{
		users:      users,
		tokens:     tokens,
		cache:      cache,
		bcryptCost: bcryptCost,
	}
}

// ProfileSetup fills in the profile fields and flips the account to setup.
// The username is normalized before the write, and a taken username surfaces
// as a conflict rather than an internal error.
func (s *userService) ProfileSetup(ctx context.Context, user domain.Snapshot, req *dto.ProfileSetupRequest) (*ProfileResult, error) {
	username := utils.SanitizeUsername(req.Username)
	if len(username) < 3 {
		return nil, apperr.BadRequest("Username must be at least 3 characters long!")
	}
	if !utils.ValidGender(req.Gender) {
		return nil, apperr.BadRequest("Invalid gender value!")
	}

	updated, err := s.users.UpdateProfile(ctx, user.ID, repository.ProfileUpdate{
		Name:     req.Name,
		Username: username,
		Gender:   req.Gender,
		Bio:      req.Bio,
		Setup:    true,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, apperr.Conflict("Username already taken!")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("User not found!")
		default:
			return nil, apperr.Internal("Error while setting up profile!", err)
		}
	}

	snapshot := domain.NewSnapshot(updated)

	// The snapshot inside the current access token is stale now, so a fresh
	// token ships with the response
	access, err := s.tokens.GenerateAccessToken(snapshot)
	if err != nil {
		return nil, apperr.Internal("Error while setting up profile!", err)
	}

	s.cache.Set(ctx, snapshot)

	return &ProfileResult{
		Code:    http.StatusOK,
		Message: "Profile setup completed successfully!",
		User:    snapshot,
		Access:  access,
	}, nil
}

// ChangePassword verifies the current password before writing the new hash
func (s *userService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) (*ProfileResult, error) {
	if req.OldPassword == req.NewPassword {
		return nil, apperr.BadRequest("New password must differ from the old one!")
	}

	user, err := s.users.CredentialsByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found!")
		}
		return nil, apperr.Internal("Error while changing password!", err)
	}

	if !utils.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		return nil, apperr.Forbidden("Incorrect password!")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("Error while changing password!", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return nil, apperr.Internal("Error while changing password!", err)
	}

	snapshot := domain.NewSnapshot(user)
	access, err := s.tokens.GenerateAccessToken(snapshot)
	if err != nil {
		return nil, apperr.Internal("Error while changing password!", err)
	}

	return &ProfileResult{
		Code:    http.StatusOK,
		Message: "Password changed successfully!",
		User:    snapshot,
		Access:  access,
	}, nil
}

// Search finds users whose name or username contains the term, excluding the
// caller. An empty result is a 404 so clients can show "no any user found"
// without inspecting the list.
func (s *userService) Search(ctx context.Context, selfID, term string) ([]domain.Snapshot, error) {
	if term == "" {
		return nil, apperr.BadRequest("Search term required!")
	}

	users, err := s.users.Search(ctx, selfID, term)
	if err != nil {
		return nil, apperr.Internal("Error while searching users!", err)
	}
	if len(users) == 0 {
		return nil, apperr.NotFound("No any user found!")
	}

	snapshots := make([]domain.Snapshot, 0, len(users))
	for _, u := range users {
		snapshots = append(snapshots, domain.NewSnapshot(u))
	}
	return snapshots, nil
}
