package dto

// SignUpRequest represents a registration request
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// VerifyEmailRequest carries the emailed verification code
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// SignInRequest represents a login request; either email or username must be set
type SignInRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Username string `json:"username" binding:"omitempty,min=3"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest starts the password-reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes the password-reset flow
type ResetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6"`
	Password string `json:"password" binding:"required,min=8"`
}

// ProfileSetupRequest carries the profile fields; setup completes once name,
// username and gender are all present
type ProfileSetupRequest struct {
	Name     string  `json:"name" binding:"required"`
	Username string  `json:"username" binding:"required,min=3"`
	Gender   string  `json:"gender" binding:"required,oneof=Male Female Other"`
	Bio      *string `json:"bio"`
}

// ChangePasswordRequest represents a password change for a signed-in user
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// SendMessageRequest represents a direct message body
type SendMessageRequest struct {
	Type string  `json:"type" binding:"required,oneof=text file"`
	Text *string `json:"text" binding:"required_if=Type text"`
	File *string `json:"file" binding:"required_if=Type file"`
}

// EditMessageRequest carries the replacement text of a message edit
type EditMessageRequest struct {
	Text string `json:"text" binding:"required"`
}
