package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/stock-assistant/internal/model"
)

// LLMCallRepository persists completion rounds.
type LLMCallRepository interface {
	Create(ctx context.Context, call *model.LLMCall) error
	Count(ctx context.Context) (int64, error)
	CountBySuccess(ctx context.Context, success bool) (int64, error)
}

// sqliteLLMCallRepository is unexported; callers depend on the interface.
type sqliteLLMCallRepository struct {
	db *sqlx.DB
}

// NewLLMCallRepository creates a new SQLite-backed LLMCallRepository.
func NewLLMCallRepository(db *sqlx.DB) LLMCallRepository {
	return &sqliteLLMCallRepository{db: db}
}

func (r *sqliteLLMCallRepository) Create(ctx context.Context, call *model.LLMCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_calls (session_id, provider, model, round, success, error_message, duration_ms)
		VALUES (:session_id, :provider, :model, :round, :success, :error_message, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating llm call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteLLMCallRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls"); err != nil {
		return 0, fmt.Errorf("counting llm calls: %w", err)
	}
	return count, nil
}

func (r *sqliteLLMCallRepository) CountBySuccess(ctx context.Context, success bool) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls WHERE success = ?", success); err != nil {
		return 0, fmt.Errorf("counting llm calls by success: %w", err)
	}
	return count, nil
}

// ToolCallRepository persists tool executions.
type ToolCallRepository interface {
	Create(ctx context.Context, call *model.ToolCall) error
	CountByTicker(ctx context.Context, ticker string) (int64, error)
	TopTickers(ctx context.Context, limit int) ([]model.TickerCount, error)
}

type sqliteToolCallRepository struct {
	db *sqlx.DB
}

// NewToolCallRepository creates a new SQLite-backed ToolCallRepository.
func NewToolCallRepository(db *sqlx.DB) ToolCallRepository {
	return &sqliteToolCallRepository{db: db}
}

func (r *sqliteToolCallRepository) Create(ctx context.Context, call *model.ToolCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tool_calls (session_id, tool, ticker, success, duration_ms)
		VALUES (:session_id, :tool, :ticker, :success, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating tool call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

// CountByTicker matches case-insensitively; tickers are stored as the model sent them.
func (r *sqliteToolCallRepository) CountByTicker(ctx context.Context, ticker string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM tool_calls WHERE UPPER(ticker) = UPPER(?)", ticker)
	if err != nil {
		return 0, fmt.Errorf("counting tool calls for %s: %w", ticker, err)
	}
	return count, nil
}

func (r *sqliteToolCallRepository) TopTickers(ctx context.Context, limit int) ([]model.TickerCount, error) {
	var counts []model.TickerCount
	err := r.db.SelectContext(ctx, &counts, `
		SELECT UPPER(ticker) AS ticker, COUNT(*) AS count
		FROM tool_calls
		WHERE ticker != ''
		GROUP BY UPPER(ticker)
		ORDER BY count DESC, ticker ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing top tickers: %w", err)
	}
	return counts, nil
}
