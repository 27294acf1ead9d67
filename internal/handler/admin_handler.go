package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/storage"
)

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	llmCallRepo  storage.LLMCallRepository
	toolCallRepo storage.ToolCallRepository
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(llmCallRepo storage.LLMCallRepository, toolCallRepo storage.ToolCallRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		llmCallRepo:  llmCallRepo,
		toolCallRepo: toolCallRepo,
		logger:       logger,
	}
}

// Stats returns completion call counts and the most requested tickers.
// With ?ticker= it also reports how often that one ticker was looked up.
// Route: GET /api/v1/admin/stats?top=10&ticker=AAPL
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	top, err := strconv.Atoi(c.DefaultQuery("top", "10"))
	if err != nil || top <= 0 || top > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "top must be between 1 and 100"})
		return
	}

	total, err := h.llmCallRepo.Count(ctx)
	if err != nil {
		h.logger.Error("counting llm calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	failed, err := h.llmCallRepo.CountBySuccess(ctx, false)
	if err != nil {
		h.logger.Error("counting failed llm calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	tickers, err := h.toolCallRepo.TopTickers(ctx, top)
	if err != nil {
		h.logger.Error("listing top tickers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := gin.H{
		"llm_calls": gin.H{
			"total":     total,
			"succeeded": total - failed,
			"failed":    failed,
		},
		"top_tickers": tickers,
	}

	if ticker := strings.TrimSpace(c.Query("ticker")); ticker != "" {
		count, err := h.toolCallRepo.CountByTicker(ctx, ticker)
		if err != nil {
			h.logger.Error("counting ticker lookups", zap.String("ticker", ticker), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		resp["ticker_calls"] = gin.H{
			"ticker": strings.ToUpper(ticker),
			"count":  count,
		}
	}

	c.JSON(http.StatusOK, resp)
}
