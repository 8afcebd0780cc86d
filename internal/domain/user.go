package domain

import "time"

// Gender values accepted on profile setup
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// User represents an account in the system
type User struct {
	ID                 string     `json:"id" db:"id"`
	Name               *string    `json:"name" db:"name"`
	Email              string     `json:"email" db:"email"`
	Username           *string    `json:"username" db:"username"`
	PasswordHash       string     `json:"-" db:"password_hash"`
	Gender             string     `json:"gender" db:"gender"`
	Image              *string    `json:"image" db:"image"`
	Bio                *string    `json:"bio" db:"bio"`
	Setup              bool       `json:"setup" db:"setup"`
	Verified           bool       `json:"verified" db:"verified"`
	VerificationCode   *string    `json:"-" db:"verification_code"`
	VerificationExpiry *time.Time `json:"-" db:"verification_expiry"`
	ResetCode          *string    `json:"-" db:"reset_code"`
	ResetExpiry        *time.Time `json:"-" db:"reset_expiry"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Snapshot is the trimmed view of a user embedded in access tokens and
// attached to the request context. It never carries the password hash, so it
// is safe to return in any payload.
type Snapshot struct {
	ID       string  `json:"_id"`
	Name     *string `json:"name,omitempty"`
	Email    string  `json:"email"`
	Username *string `json:"username,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	Image    *string `json:"image,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Setup    bool    `json:"setup"`
}

// NewSnapshot builds the access-token snapshot from a user record
func NewSnapshot(u *User) Snapshot {
	return Snapshot{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Username: u.Username,
		Gender:   u.Gender,
		Image:    u.Image,
		Bio:      u.Bio,
		Setup:    u.Setup,
	}
}

// Masked returns the reduced payload served to accounts that have not yet
// verified their email or finished profile setup
func (s Snapshot) Masked() Snapshot {
	return Snapshot{
		ID:    s.ID,
		Email: s.Email,
		Setup: s.Setup,
	}
}

// Session represents one logged-in device: a single entry of the user's
// authentication list. Its id is the value of the session cookie, and its
// stored token is the single source of truth for the refresh flow: a
// presented refresh token that does not byte-match the stored one is invalid
// regardless of signature validity.
type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Device    *string   `json:"device" db:"device"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the session passed its absolute expiry
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
