package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/realtime"
	"github.com/toddlr/toddlr-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Product     services.ProductService
	Bundle      services.BundleService
	Chat        services.ChatService
	Negotiation services.NegotiationService
	Notifier    services.ChatNotifier
	Bus         services.SSEBus
}

// wireServices picks the fan-out path: with REDIS_ADDR set, transitions go
// through the shared bus so every instance's hub sees them; without it,
// events broadcast to the local hub only.
func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	var emitter services.SSEEmitter
	var bus services.SSEBus
	if cfg.RedisAddr != "" {
		var err error
		bus, err = services.NewRedisSSEBus(log)
		if err != nil {
			return Services{}, err
		}
		if err := bus.StartForwarder(ctx, func(m realtime.SSEMessage) {
			hub.Broadcast(m)
		}); err != nil {
			return Services{}, err
		}
		emitter = &services.BusEmitter{Bus: bus}
	} else {
		emitter = &services.HubEmitter{Hub: hub}
	}

	notifier := services.NewChatNotifier(emitter)
	authService := services.NewAuthService(db, log, r.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	productService := services.NewProductService(db, log, r.Product)
	bundleService := services.NewBundleService(db, log, r.Bundle, r.Product)
	chatService := services.NewChatService(db, log, r.ChatThread, r.ChatMessage, r.Offer, notifier)
	negotiationService := services.NewNegotiationService(db, log, r.Offer, r.Product, r.Bundle, chatService, notifier)

	return Services{
		Auth:        authService,
		Product:     productService,
		Bundle:      bundleService,
		Chat:        chatService,
		Negotiation: negotiationService,
		Notifier:    notifier,
		Bus:         bus,
	}, nil
}
