package app

import (
	"github.com/toddlr/toddlr-backend/internal/handlers"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/realtime"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Product *handlers.ProductHandler
	Bundle  *handlers.BundleHandler
	Chat    *handlers.ChatHandler
	SSE     *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, s Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:    handlers.NewAuthHandler(log, s.Auth),
		Product: handlers.NewProductHandler(log, s.Product, s.Negotiation),
		Bundle:  handlers.NewBundleHandler(log, s.Bundle, s.Negotiation),
		Chat:    handlers.NewChatHandler(log, s.Chat),
		SSE:     handlers.NewSSEHandler(log, hub, s.Chat),
	}
}
