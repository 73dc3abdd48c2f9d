package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/requestdata"
	"github.com/toddlr/toddlr-backend/internal/services"
)

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:         log.With("handler", "ChatHandler"),
		chatService: chatService,
	}
}

// GET /chat
func (h *ChatHandler) ListThreads(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	threads, err := h.chatService.ListThreads(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, threads, "")
}

// GET /chat/:threadId
// Full history with offer messages re-joined against live offer state.
func (h *ChatHandler) GetThread(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("threadId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid chat id"))
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	view, err := h.chatService.GetThreadView(c.Request.Context(), threadID, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, view, "")
}

// POST /chat/:threadId/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("threadId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid chat id"))
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.Invalid("Invalid request body"))
		return
	}
	senderID := requestdata.UserID(c.Request.Context())
	msg, err := h.chatService.SendMessage(c.Request.Context(), threadID, senderID, body.Content)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusCreated, msg, "Message sent")
}

// PUT /chat/:threadId/messages/:messageId
func (h *ChatHandler) UpdateMessage(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("threadId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid chat id"))
		return
	}
	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		RespondError(c, apperr.Invalid("Invalid message id"))
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Content == "" {
		RespondError(c, apperr.Invalid("Message content is required"))
		return
	}
	actingUserID := requestdata.UserID(c.Request.Context())
	if err := h.chatService.UpdateMessage(c.Request.Context(), threadID, messageID, actingUserID, body.Content); err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, gin.H{"message_id": messageID}, "Message updated")
}
