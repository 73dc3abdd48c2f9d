package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/toddlr/toddlr-backend/internal/realtime"
	"github.com/toddlr/toddlr-backend/internal/types"
)

// ChatNotifier pushes thread updates to subscribers. Everything here is
// fire-and-forget: a failed or dropped notification never fails the
// operation that produced it.
type ChatNotifier interface {
	NewMessage(threadID uuid.UUID, msg *types.ChatMessage)
	MessageUpdated(threadID, messageID uuid.UUID, body string)
	MessageResolved(threadID, messageID uuid.UUID)
	OfferUpdated(threadID uuid.UUID, offer *types.Offer)
}

type chatNotifier struct {
	emit SSEEmitter
}

func NewChatNotifier(emit SSEEmitter) ChatNotifier {
	return &chatNotifier{emit: emit}
}

func (n *chatNotifier) NewMessage(threadID uuid.UUID, msg *types.ChatMessage) {
	if n == nil || n.emit == nil || threadID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: threadID.String(),
		Event:   realtime.SSEEventNewMessage,
		Data:    map[string]any{"thread_id": threadID, "message": msg},
	})
}

func (n *chatNotifier) MessageUpdated(threadID, messageID uuid.UUID, body string) {
	if n == nil || n.emit == nil || threadID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: threadID.String(),
		Event:   realtime.SSEEventMessageUpdated,
		Data: map[string]any{
			"thread_id":  threadID,
			"message_id": messageID,
			"body":       body,
		},
	})
}

func (n *chatNotifier) MessageResolved(threadID, messageID uuid.UUID) {
	if n == nil || n.emit == nil || threadID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: threadID.String(),
		Event:   realtime.SSEEventMessageUpdated,
		Data: map[string]any{
			"thread_id":  threadID,
			"message_id": messageID,
			"resolved":   true,
		},
	})
}

func (n *chatNotifier) OfferUpdated(threadID uuid.UUID, offer *types.Offer) {
	if n == nil || n.emit == nil || threadID == uuid.Nil || offer == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: threadID.String(),
		Event:   realtime.SSEEventOfferUpdated,
		Data:    map[string]any{"thread_id": threadID, "offer": offer},
	})
}
