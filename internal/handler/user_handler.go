package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
	"github.com/mijwel-dev/chatter-backend/internal/service"
)

// UserHandler handles the profile endpoints
type UserHandler struct {
	users   service.UserService
	cookies *CookieWriter
}

// NewUserHandler creates a new user handler
func NewUserHandler(users service.UserService, cookies *CookieWriter) *UserHandler {
	return &UserHandler{
		users:   users,
		cookies: cookies,
	}
}

// ProfileSetup completes the caller's profile. The response carries a fresh
// access cookie because the snapshot inside the old one is stale.
func (h *UserHandler) ProfileSetup(c *gin.Context) {
	var req dto.ProfileSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	result, err := h.users.ProfileSetup(c.Request.Context(), CurrentUser(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.cookies.SetAccess(c, result.Access)
	respond(c, result.Code, result.Message, result.User)
}

// ChangePassword replaces the caller's password after checking the old one
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	result, err := h.users.ChangePassword(c.Request.Context(), CurrentUser(c).ID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.cookies.SetAccess(c, result.Access)
	respond(c, result.Code, result.Message, result.User)
}

// Information echoes the authenticated snapshot from the request context; no
// store read happens here
func (h *UserHandler) Information(c *gin.Context) {
	user := CurrentUser(c)
	if !user.Setup {
		respond(c, http.StatusOK, "Please, complete your profile!", user.Masked())
		return
	}
	respond(c, http.StatusOK, "User information fetched successfully!", user)
}

// Search finds users by name or username
func (h *UserHandler) Search(c *gin.Context) {
	term := c.Query("term")

	results, err := h.users.Search(c.Request.Context(), CurrentUser(c).ID, term)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Users found successfully!", results)
}
