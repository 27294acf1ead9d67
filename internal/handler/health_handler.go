// Package handler contains the gin HTTP handlers.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	llmConfigured bool
}

// NewHealthHandler creates a HealthHandler. llmConfigured is reported so
// operators can spot a missing API key without sending a chat message.
func NewHealthHandler(llmConfigured bool) *HealthHandler {
	return &HealthHandler{llmConfigured: llmConfigured}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        "stock-assistant",
		"llm_configured": h.llmConfigured,
	})
}
