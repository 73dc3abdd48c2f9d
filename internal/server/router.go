package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/toddlr/toddlr-backend/internal/handlers"
	"github.com/toddlr/toddlr-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	CORSOrigins    []string
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	BundleHandler  *handlers.BundleHandler
	ChatHandler    *handlers.ChatHandler
	SSEHandler     *handlers.SSEHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))

	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowOrigins = nil
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthcheck", handlers.Healthcheck)

	auth := r.Group("/auth")
	{
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
	}

	protected := r.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/user/me", cfg.AuthHandler.Me)

		product := protected.Group("/product")
		{
			product.POST("", cfg.ProductHandler.Create)
			product.GET("", cfg.ProductHandler.List)
			product.GET("/:productId", cfg.ProductHandler.Get)
			product.PUT("/status", cfg.ProductHandler.UpdateStatus)
			product.POST("/:productId/make-offer", cfg.ProductHandler.MakeOffer)
			product.PUT("/update-offer/:offerId", cfg.ProductHandler.UpdateOffer)
		}

		bundle := protected.Group("/bundle")
		{
			bundle.POST("", cfg.BundleHandler.Create)
			bundle.GET("", cfg.BundleHandler.List)
			bundle.GET("/:bundleId", cfg.BundleHandler.Get)
			bundle.POST("/:bundleId/make-offer", cfg.BundleHandler.MakeOffer)
			bundle.PUT("/update-offer/:offerId", cfg.BundleHandler.UpdateOffer)
		}

		chat := protected.Group("/chat")
		{
			chat.GET("", cfg.ChatHandler.ListThreads)
			chat.GET("/:threadId", cfg.ChatHandler.GetThread)
			chat.POST("/:threadId/messages", cfg.ChatHandler.SendMessage)
			chat.PUT("/:threadId/messages/:messageId", cfg.ChatHandler.UpdateMessage)
		}

		protected.GET("/events", cfg.SSEHandler.Stream)
	}

	return r
}
