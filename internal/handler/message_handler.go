package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
	"github.com/mijwel-dev/chatter-backend/internal/service"
)

// MessageHandler handles the direct-message endpoints
type MessageHandler struct {
	messages service.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Get lists the conversation with the user named in the path
func (h *MessageHandler) Get(c *gin.Context) {
	messages, err := h.messages.Get(c.Request.Context(), CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Messages fetched successfully!", messages)
}

// Send stores a message towards the user named in the path
func (h *MessageHandler) Send(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	message, err := h.messages.Send(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), &req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusCreated, "Message sent successfully!", message)
}

// Edit replaces the text of the message named in the path
func (h *MessageHandler) Edit(c *gin.Context) {
	var req dto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	message, err := h.messages.Edit(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), req.Text)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Message edited successfully!", message)
}

// Delete marks the message named in the path as deleted
func (h *MessageHandler) Delete(c *gin.Context) {
	message, err := h.messages.Delete(c.Request.Context(), CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Message deleted successfully!", message)
}

// DeleteOld removes the caller's messages older than a day
func (h *MessageHandler) DeleteOld(c *gin.Context) {
	removed, err := h.messages.DeleteOld(c.Request.Context(), CurrentUser(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respond(c, http.StatusOK, "Old messages deleted successfully!", gin.H{"removed": removed})
}
