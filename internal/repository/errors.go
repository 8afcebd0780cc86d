package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found, including when a
	// conditional update matched zero rows
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when the email is already taken
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateUsername is returned when the username is already taken
	ErrDuplicateUsername = errors.New("user with this username already exists")

	// ErrDuplicateFriend is returned when a friend record already exists for the pair
	ErrDuplicateFriend = errors.New("friend record for this pair already exists")
)
