// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/config"
	"github.com/fleveque/stock-assistant/internal/handler"
	"github.com/fleveque/stock-assistant/internal/middleware"
	"github.com/fleveque/stock-assistant/internal/service"
	"github.com/fleveque/stock-assistant/internal/storage"
)

// Deps are the collaborators the routes need. LLMCallRepo and ToolCallRepo
// are nil when the ledger is disabled; admin routes are then not registered.
type Deps struct {
	Chat          *service.ChatService
	Quotes        handler.QuoteFetcher
	LLMCallRepo   storage.LLMCallRepository
	ToolCallRepo  storage.ToolCallRepository
	LLMConfigured bool
}

// RegisterRoutes sets up all HTTP routes on the gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler(deps.LLMConfigured)
	chatHandler := handler.NewChatHandler(deps.Chat, logger)
	quoteHandler := handler.NewQuoteHandler(deps.Quotes, logger)

	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/sessions", chatHandler.CreateSession)
		authed.GET("/sessions/:id/messages", chatHandler.ListMessages)
		authed.POST("/sessions/:id/messages", chatHandler.SendMessage)
		authed.DELETE("/sessions/:id", chatHandler.DeleteSession)
		authed.GET("/quotes/:ticker", quoteHandler.GetQuote)
	}

	if deps.LLMCallRepo == nil || deps.ToolCallRepo == nil {
		return
	}
	adminHandler := handler.NewAdminHandler(deps.LLMCallRepo, deps.ToolCallRepo, logger)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
	}
}
