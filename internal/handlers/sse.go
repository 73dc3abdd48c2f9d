package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/realtime"
	"github.com/toddlr/toddlr-backend/internal/requestdata"
	"github.com/toddlr/toddlr-backend/internal/services"
)

type SSEHandler struct {
	log         *logger.Logger
	hub         *realtime.SSEHub
	chatService services.ChatService
}

func NewSSEHandler(log *logger.Logger, hub *realtime.SSEHub, chatService services.ChatService) *SSEHandler {
	return &SSEHandler{
		log:         log.With("handler", "SSEHandler"),
		hub:         hub,
		chatService: chatService,
	}
}

// GET /events?threads=<id>,<id>...
//
// Joining a thread channel replays its full history to this client exactly
// once, then the client receives only incremental events. A reconnect is a
// fresh subscribe and gets a fresh replay.
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	client := h.hub.NewSSEClient(userID)
	defer h.hub.CloseClient(client)

	for _, raw := range c.QueryArray("threads") {
		threadID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, apperr.Invalid("Invalid thread id"))
			return
		}
		// Verifies the thread exists and the caller participates before
		// the channel subscription lands.
		view, err := h.chatService.GetThreadView(c.Request.Context(), threadID, userID)
		if err != nil {
			RespondError(c, err)
			return
		}
		h.hub.AddChannel(client, threadID.String())
		h.hub.SendTo(client, realtime.SSEMessage{
			Channel: threadID.String(),
			Event:   realtime.SSEEventChatHistory,
			Data:    view,
		})
	}

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
