package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mijwel-dev/chatter-backend/internal/service"
)

// FriendHandler handles the friend-request endpoints
type FriendHandler struct {
	friends service.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friends service.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

// SendRequest sends a friend request to the user named in the path
func (h *FriendHandler) SendRequest(c *gin.Context) {
	err := h.friends.SendRequest(c.Request.Context(), CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusCreated, "Friend request sent successfully!", nil)
}

// HandleRequest accepts or rejects a pending request addressed to the caller
func (h *FriendHandler) HandleRequest(c *gin.Context) {
	action := c.Query("action")

	err := h.friends.HandleRequest(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), action)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Friend request "+action+"ed successfully!", nil)
}

// RetrieveRequest cancels a pending request the caller sent
func (h *FriendHandler) RetrieveRequest(c *gin.Context) {
	err := h.friends.RetrieveRequest(c.Request.Context(), CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Friend request retrieved successfully!", nil)
}

// Pending lists the caller's outgoing and incoming pending requests
func (h *FriendHandler) Pending(c *gin.Context) {
	sent, received, err := h.friends.Pending(c.Request.Context(), CurrentUser(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Pending friend requests fetched successfully!", gin.H{
		"sent":     sent,
		"received": received,
	})
}

// Unfriend removes an accepted friendship
func (h *FriendHandler) Unfriend(c *gin.Context) {
	err := h.friends.Unfriend(c.Request.Context(), CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Unfriended successfully!", nil)
}

// Friends lists the caller's accepted friends
func (h *FriendHandler) Friends(c *gin.Context) {
	friends, err := h.friends.Friends(c.Request.Context(), CurrentUser(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Friends fetched successfully!", friends)
}
