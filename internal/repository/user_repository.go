package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/mijwel-dev/chatter-backend/pkg/database"
)

const (
	userColumns = `id, name, email, username, gender, image, bio, setup, verified, created_at, updated_at`

	userCredentialColumns = userColumns + `, password_hash, verification_code, verification_expiry, reset_code, reset_expiry`

	uniqueViolation = "23505"
)

// userRepository implements UserRepository on PostgreSQL
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Username,
		&user.Gender,
		&user.Image,
		&user.Bio,
		&user.Setup,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUserCredentials(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Username,
		&user.Gender,
		&user.Image,
		&user.Bio,
		&user.Setup,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.PasswordHash,
		&user.VerificationCode,
		&user.VerificationExpiry,
		&user.ResetCode,
		&user.ResetExpiry,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func duplicateErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_username_key":
			return ErrDuplicateUsername
		}
		return ErrDuplicateEmail
	}
	return nil
}

// Create inserts a new user. A blank username is replaced with a random
// placeholder so the sparse-unique constraint still holds.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Username == nil || *user.Username == "" {
		placeholder := uuid.New().String()
		user.Username = &placeholder
	}
	if user.Gender == "" {
		user.Gender = domain.GenderOther
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, username, password_hash, gender, setup, verified,
			verification_code, verification_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Gender,
		user.Setup,
		user.Verified,
		user.VerificationCode,
		user.VerificationExpiry,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Email, dup)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id without secret fields
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email without secret fields
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username without secret fields
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// Exists reports whether a user with the id exists
func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// CredentialsByLogin retrieves a user by email or username including the
// password hash; used only by the sign-in path
func (r *userRepository) CredentialsByLogin(ctx context.Context, email, username string) (*domain.User, error) {
	query := `SELECT ` + userCredentialColumns + ` FROM users WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND username = $2)`

	user, err := scanUserCredentials(r.db.DB.QueryRowContext(ctx, query, email, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user by login: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user credentials: %w", err)
	}

	return user, nil
}

// CredentialsByEmail retrieves a user by email including secret fields
func (r *userRepository) CredentialsByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userCredentialColumns + ` FROM users WHERE email = $1`

	user, err := scanUserCredentials(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user credentials: %w", err)
	}

	return user, nil
}

// CredentialsByID retrieves a user by id including secret fields
func (r *userRepository) CredentialsByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userCredentialColumns + ` FROM users WHERE id = $1`

	user, err := scanUserCredentials(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user credentials: %w", err)
	}

	return user, nil
}

// UpdateProfile applies the profile-setup fields and returns the updated row
func (r *userRepository) UpdateProfile(ctx context.Context, id string, details ProfileUpdate) (*domain.User, error) {
	query := `
		UPDATE users
		SET name = $2, username = $3, gender = $4, bio = $5, setup = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query,
		id,
		details.Name,
		details.Username,
		details.Gender,
		details.Bio,
		details.Setup,
		time.Now(),
	))
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return nil, fmt.Errorf("failed to update profile: %w", dup)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// UpdatePassword replaces the stored password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowsAffected(result, id)
}

// SetVerification stores a fresh verification code and its expiry
func (r *userRepository) SetVerification(ctx context.Context, id, code string, expiry time.Time) error {
	query := `UPDATE users SET verification_code = $2, verification_expiry = $3, updated_at = $4 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id, code, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}

	return requireRowsAffected(result, id)
}

// SetVerificationWithPassword refreshes code, expiry and password hash in one
// statement; used when an unverified account re-registers
func (r *userRepository) SetVerificationWithPassword(ctx context.Context, id, passwordHash, code string, expiry time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2, verification_code = $3, verification_expiry = $4, updated_at = $5
		WHERE id = $1 AND verified = FALSE
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, passwordHash, code, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to refresh verification: %w", err)
	}

	return requireRowsAffected(result, id)
}

// MarkVerified flips the verified flag and clears the verification code
func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET verified = TRUE, verification_code = NULL, verification_expiry = NULL, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	return requireRowsAffected(result, id)
}

// SetResetCode stores a password-reset code and its expiry
func (r *userRepository) SetResetCode(ctx context.Context, id, code string, expiry time.Time) error {
	query := `UPDATE users SET reset_code = $2, reset_expiry = $3, updated_at = $4 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id, code, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set reset code: %w", err)
	}

	return requireRowsAffected(result, id)
}

// ResetPassword replaces the password hash and clears the reset code
func (r *userRepository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_code = NULL, reset_expiry = NULL, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return requireRowsAffected(result, id)
}

// Search finds set-up users other than selfID whose name, username or email
// contains the term, case-insensitive
func (r *userRepository) Search(ctx context.Context, selfID, term string) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id <> $1
		  AND setup = TRUE
		  AND (name ILIKE $2 OR username ILIKE $2 OR email ILIKE $2)
		ORDER BY username
	`

	pattern := "%" + escapeLike(term) + "%"

	rows, err := r.db.DB.QueryContext(ctx, query, selfID, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func requireRowsAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters in a user-supplied search term
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
