package app

import (
	"github.com/gin-gonic/gin"

	"github.com/toddlr/toddlr-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthHandler:    h.Auth,
		ProductHandler: h.Product,
		BundleHandler:  h.Bundle,
		ChatHandler:    h.Chat,
		SSEHandler:     h.SSE,
		AuthMiddleware: m.Auth,
	})
}
