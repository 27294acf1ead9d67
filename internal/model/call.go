// Package model defines the records written to the call ledger.
// Struct tags map fields to columns (`db:`) and API responses (`json:`).
package model

import "time"

// LLMCall tracks one completion round for cost monitoring.
// Round is 1 for the initial request and 2 for the follow-up after a tool result.
type LLMCall struct {
	ID           int64     `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	Provider     string    `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	Round        int       `db:"round" json:"round"`
	Success      bool      `db:"success" json:"success"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	DurationMs   *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ToolCall tracks one local tool execution.
// Success is false when the tool returned an error payload.
type ToolCall struct {
	ID         int64     `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	Tool       string    `db:"tool" json:"tool"`
	Ticker     string    `db:"ticker" json:"ticker"`
	Success    bool      `db:"success" json:"success"`
	DurationMs *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TickerCount is one row of the most-requested tickers report.
type TickerCount struct {
	Ticker string `db:"ticker" json:"ticker"`
	Count  int64  `db:"count" json:"count"`
}
