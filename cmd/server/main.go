// Command server runs the stock assistant HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/app"
	"github.com/fleveque/stock-assistant/internal/config"
	"github.com/fleveque/stock-assistant/internal/server"
)

func main() {
	// run keeps deferred cleanup out of os.Exit's way.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	cfg, err := config.Load(os.Getenv("ASSISTANT_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(cfg.Auth.APIKeys) == 0 {
		logger.Warn("no API keys configured; the chat API is open to anyone who can reach it")
	}

	srv := server.New(cfg, server.Deps{
		Chat:          a.Chat,
		Quotes:        a.Quotes,
		LLMCallRepo:   a.LLMCallRepo,
		ToolCallRepo:  a.ToolCallRepo,
		LLMConfigured: a.Assistant.Configured(),
	}, logger)

	pruneCtx, stopPruner := context.WithCancel(context.Background())
	defer stopPruner()
	go a.Chat.RunPruner(pruneCtx, cfg.Session.IdleTimeout, time.Minute)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// In-flight turns may be mid completion call; give them the LLM timeout.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout+5*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
