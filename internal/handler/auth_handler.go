package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
	"github.com/mijwel-dev/chatter-backend/internal/service"
)

// AuthHandler handles the authentication endpoints
type AuthHandler struct {
	auth    service.AuthService
	cookies *CookieWriter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth service.AuthService, cookies *CookieWriter) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		cookies: cookies,
	}
}

// SignUp handles user registration
// @Summary Register a new user
// @Description Register a new account and send the email verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignUpRequest true "Registration request"
// @Success 201 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Failure 409 {object} dto.Response
// @Router /auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, result.Code, result.Message, result.User)
}

// VerifyEmail handles the emailed verification code
// @Summary Verify email address
// @Description Verify the account with the emailed six-digit code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyEmailRequest true "Verification request"
// @Success 202 {object} dto.Response
// @Failure 403 {object} dto.Response
// @Failure 404 {object} dto.Response
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	result, err := h.auth.VerifyEmail(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, result.Code, result.Message, result.User)
}

// SignIn handles user login
// @Summary Sign in
// @Description Authenticate by email or username and issue the auth cookies
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignInRequest true "Login request"
// @Success 200 {object} dto.Response
// @Failure 403 {object} dto.Response
// @Failure 404 {object} dto.Response
// @Router /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	result, err := h.auth.SignIn(c.Request.Context(), &req, c.Request.UserAgent())
	if err != nil {
		respondErr(c, err)
		return
	}

	if result.Access != "" {
		h.cookies.SetAccess(c, result.Access)
	}
	// Accounts without a finished profile never get a refresh session
	if result.Refresh != "" {
		h.cookies.SetRefresh(c, result.Refresh, result.SessionID)
	}

	respond(c, result.Code, result.Message, result.User)
}

// Refresh handles the silent token refresh
// @Summary Refresh tokens
// @Description Issue a new access token, rotating the refresh token when it nears expiry
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Response
// @Failure 401 {object} dto.Response
// @Failure 403 {object} dto.Response
// @Router /auth/refresh [get]
func (h *AuthHandler) Refresh(c *gin.Context) {
	// Missing refresh cookie fails closed regardless of the session cookie
	refreshToken, err := c.Cookie(CookieRefresh)
	if err != nil || refreshToken == "" {
		respond(c, http.StatusUnauthorized, "Please, login to continue!", nil)
		return
	}
	sessionID, _ := c.Cookie(CookieSession)

	result, err := h.auth.RefreshSession(c.Request.Context(), refreshToken, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionExpired) {
			h.cookies.ClearAll(c)
			respond(c, http.StatusUnauthorized, "Please, login again to continue!", nil)
			return
		}
		respondErr(c, err)
		return
	}

	h.cookies.SetAccess(c, result.Tokens.Access)
	if result.Rotated {
		h.cookies.SetRefresh(c, result.Tokens.Refresh, result.SessionID)
	}

	respond(c, http.StatusOK, "Session refreshed successfully!", result.User)
}

// SignOut handles user logout
// @Summary Sign out
// @Description Revoke this device's session and clear the auth cookies
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Response
// @Router /auth/sign-out [delete]
func (h *AuthHandler) SignOut(c *gin.Context) {
	user := CurrentUser(c)
	refreshToken, _ := c.Cookie(CookieRefresh)
	sessionID, _ := c.Cookie(CookieSession)

	if err := h.auth.SignOut(c.Request.Context(), user, refreshToken, sessionID); err != nil {
		respondErr(c, err)
		return
	}

	// Cookies are cleared even when the session entry was already gone, so
	// repeated sign-outs stay safe
	h.cookies.ClearAll(c)
	respond(c, http.StatusOK, "Signed out successfully!", nil)
}

// PurgeSessions removes the caller's expired device sessions
// @Summary Purge expired sessions
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Response
// @Router /auth/purge-sessions [delete]
func (h *AuthHandler) PurgeSessions(c *gin.Context) {
	user := CurrentUser(c)

	removed, err := h.auth.PurgeSessions(c.Request.Context(), user.ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Expired sessions purged successfully!", gin.H{"removed": removed})
}

// ForgotPassword starts the password-reset flow
// @Summary Request a password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Reset request"
// @Success 200 {object} dto.Response
// @Failure 404 {object} dto.Response
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), &req); err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Password reset code sent to your email!", nil)
}

// ResetPassword completes the password-reset flow
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset completion request"
// @Success 200 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), &req); err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Password has been reset successfully!", nil)
}
