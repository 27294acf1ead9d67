// Package app wires configuration into the running components shared by the
// HTTP server and the CLI.
package app

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/assistant"
	"github.com/fleveque/stock-assistant/internal/config"
	"github.com/fleveque/stock-assistant/internal/llm"
	"github.com/fleveque/stock-assistant/internal/market"
	"github.com/fleveque/stock-assistant/internal/service"
	"github.com/fleveque/stock-assistant/internal/session"
	"github.com/fleveque/stock-assistant/internal/storage"
	"github.com/fleveque/stock-assistant/internal/tool"
)

// MissingKeyHelp is shown next to the missing-credential warning.
const MissingKeyHelp = "Get a Google API key at https://aistudio.google.com/app/apikey and set GOOGLE_API_KEY (or put it in a .env file)."

// App holds the assembled components.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Quotes    *market.Client
	Assistant *assistant.Assistant
	Chat      *service.ChatService

	// Nil when storage.database_path is empty.
	LLMCallRepo  storage.LLMCallRepository
	ToolCallRepo storage.ToolCallRepository

	db *sqlx.DB
}

// Option adjusts assistant construction, e.g. to attach a tool notifier.
type Option = assistant.Option

// NewLogger builds a development logger at debug level and a production
// logger otherwise.
func NewLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}
	return cfg.Build()
}

// New assembles every component. A missing LLM credential is logged, not
// returned: the assistant then answers each turn with an explanation.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if cfg.Storage.DatabasePath != "" {
		db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.db = db
		a.LLMCallRepo = storage.NewLLMCallRepository(db)
		a.ToolCallRepo = storage.NewToolCallRepository(db)
	}

	a.Quotes = market.NewClient(market.NewYahooProvider(cfg.Market.BaseURL, cfg.Market.UserAgent, cfg.Market.Timeout))

	registry := tool.NewRegistry()
	if err := registry.Register(tool.NewStockInfoTool(a.Quotes)); err != nil {
		a.Close()
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	client, err := llm.New(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		logger.Warn("LLM API key is not set; the assistant will only explain how to configure it",
			zap.String("provider", cfg.LLM.Provider),
		)
		client = nil
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("creating llm client: %w", err)
	default:
		logger.Info("LLM client configured",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.ModelName()),
		)
	}

	options := []assistant.Option{assistant.WithLogger(logger)}
	if a.LLMCallRepo != nil {
		options = append(options, assistant.WithLedger(a.LLMCallRepo, a.ToolCallRepo))
	}
	options = append(options, opts...)

	a.Assistant = assistant.New(client, registry, cfg.Assistant.Instruction, options...)
	a.Chat = service.NewChatService(session.NewStore(), a.Assistant, logger)
	return a, nil
}

// Close releases the database, if one was opened.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
