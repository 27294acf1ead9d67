package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/market"
)

// QuoteFetcher is satisfied by *market.Client.
type QuoteFetcher interface {
	Fetch(ctx context.Context, ticker string) market.Result
}

// QuoteHandler serves raw quote lookups, the same payload the model sees.
type QuoteHandler struct {
	quotes QuoteFetcher
	logger *zap.Logger
}

func NewQuoteHandler(quotes QuoteFetcher, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, logger: logger}
}

// GetQuote returns the quote payload, or 404 with {"error": ...}.
// Route: GET /api/v1/quotes/:ticker
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	ticker := c.Param("ticker")

	result := h.quotes.Fetch(c.Request.Context(), ticker)
	if !result.OK() {
		h.logger.Info("quote lookup failed",
			zap.String("ticker", ticker),
			zap.String("error", result.Error),
		)
		c.JSON(http.StatusNotFound, result.Payload())
		return
	}

	c.JSON(http.StatusOK, result.Payload())
}
