package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/config"
	"github.com/fleveque/stock-assistant/internal/market"
	"github.com/fleveque/stock-assistant/internal/model"
	"github.com/fleveque/stock-assistant/internal/service"
	"github.com/fleveque/stock-assistant/internal/session"
	"github.com/fleveque/stock-assistant/internal/storage"
)

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, prompt string) string {
	return "You asked: " + prompt
}

type stubQuotes struct{}

func (stubQuotes) Fetch(_ context.Context, ticker string) market.Result {
	if strings.EqualFold(ticker, "AAPL") {
		return market.Result{Quote: &market.Quote{Ticker: "AAPL", CurrentPrice: 190.5, Currency: "USD"}}
	}
	return market.Result{Error: "Could not find information for ticker: " + ticker + ". Please check the symbol."}
}

type testServer struct {
	srv      *Server
	toolRepo storage.ToolCallRepository
	llmRepo  storage.LLMCallRepository
}

func newTestServer(t *testing.T, apiKeys []string) *testServer {
	t.Helper()

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Auth:      config.AuthConfig{APIKeys: apiKeys, AdminKeys: []string{"admin-key"}},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		LLM:       config.LLMConfig{Timeout: time.Second},
		Market:    config.MarketConfig{Timeout: time.Second},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		Log:       config.LogConfig{Level: "info"},
	}

	ts := &testServer{
		llmRepo:  storage.NewLLMCallRepository(db),
		toolRepo: storage.NewToolCallRepository(db),
	}
	logger := zap.NewNop()
	ts.srv = New(cfg, Deps{
		Chat:          service.NewChatService(session.NewStore(), echoResponder{}, logger),
		Quotes:        stubQuotes{},
		LLMCallRepo:   ts.llmRepo,
		ToolCallRepo:  ts.toolRepo,
		LLMConfigured: true,
	}, logger)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["status"] != "ok" || body["llm_configured"] != true {
		t.Errorf("unexpected body %v", body)
	}
}

func TestChatFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/api/v1/sessions", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("creating session: expected 201, got %d", w.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)
	if created.ID == "" {
		t.Fatal("expected session id")
	}

	w = ts.do(t, http.MethodPost, "/api/v1/sessions/"+created.ID+"/messages", `{"content":"What is AAPL?"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sending: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var turn session.Turn
	decode(t, w, &turn)
	if turn.Role != session.RoleAssistant || turn.Content != "You asked: What is AAPL?" {
		t.Errorf("unexpected turn %+v", turn)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/sessions/"+created.ID+"/messages", "", nil)
	var history struct {
		Messages []session.Turn `json:"messages"`
	}
	decode(t, w, &history)
	if len(history.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(history.Messages))
	}

	w = ts.do(t, http.MethodDelete, "/api/v1/sessions/"+created.ID, "", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("deleting: expected 204, got %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/v1/sessions/"+created.ID+"/messages", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("after delete: expected 404, got %d", w.Code)
	}
}

func TestSendMessage_BadRequests(t *testing.T) {
	ts := newTestServer(t, nil)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, ts.do(t, http.MethodPost, "/api/v1/sessions", "", nil), &created)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"missing content", "/api/v1/sessions/" + created.ID + "/messages", `{}`, http.StatusBadRequest},
		{"blank content", "/api/v1/sessions/" + created.ID + "/messages", `{"content":"   "}`, http.StatusBadRequest},
		{"not json", "/api/v1/sessions/" + created.ID + "/messages", `hello`, http.StatusBadRequest},
		{"unknown session", "/api/v1/sessions/nope/messages", `{"content":"hi"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := ts.do(t, http.MethodPost, tt.path, tt.body, nil); w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetQuote(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/api/v1/quotes/aapl", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var quote map[string]any
	decode(t, w, &quote)
	if quote["ticker"] != "AAPL" || quote["currentPrice"] != 190.5 {
		t.Errorf("unexpected quote %v", quote)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/quotes/ZZZZ", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var errBody map[string]any
	decode(t, w, &errBody)
	if msg, _ := errBody["error"].(string); !strings.Contains(msg, "ZZZZ") {
		t.Errorf("expected error naming ZZZZ, got %v", errBody)
	}
}

func TestAPIKeyRequiredWhenConfigured(t *testing.T) {
	ts := newTestServer(t, []string{"user-key"})

	if w := ts.do(t, http.MethodPost, "/api/v1/sessions", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/v1/sessions", "", map[string]string{"X-API-Key": "user-key"}); w.Code != http.StatusCreated {
		t.Errorf("expected 201 with key, got %d", w.Code)
	}
}

func TestAdminStats(t *testing.T) {
	ts := newTestServer(t, nil)
	ctx := context.Background()

	for _, ticker := range []string{"AAPL", "AAPL", "MSFT"} {
		if err := ts.toolRepo.Create(ctx, &model.ToolCall{Tool: "get_stock_info", Ticker: ticker, Success: true}); err != nil {
			t.Fatalf("seeding tool calls: %v", err)
		}
	}
	for _, ok := range []bool{true, true, false} {
		if err := ts.llmRepo.Create(ctx, &model.LLMCall{Provider: "gemini", Model: "gemini-2.0-flash", Round: 1, Success: ok}); err != nil {
			t.Fatalf("seeding llm calls: %v", err)
		}
	}

	if w := ts.do(t, http.MethodGet, "/api/v1/admin/stats", "", map[string]string{"X-API-Key": "user"}); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin key, got %d", w.Code)
	}

	w := ts.do(t, http.MethodGet, "/api/v1/admin/stats?top=1", "", map[string]string{"X-API-Key": "admin-key"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var stats struct {
		LLMCalls struct {
			Total     int64 `json:"total"`
			Succeeded int64 `json:"succeeded"`
			Failed    int64 `json:"failed"`
		} `json:"llm_calls"`
		TopTickers []model.TickerCount `json:"top_tickers"`
	}
	decode(t, w, &stats)
	if stats.LLMCalls.Total != 3 || stats.LLMCalls.Succeeded != 2 || stats.LLMCalls.Failed != 1 {
		t.Errorf("unexpected llm call stats %+v", stats.LLMCalls)
	}
	if len(stats.TopTickers) != 1 || stats.TopTickers[0].Ticker != "AAPL" || stats.TopTickers[0].Count != 2 {
		t.Errorf("unexpected top tickers %+v", stats.TopTickers)
	}

	if w := ts.do(t, http.MethodGet, "/api/v1/admin/stats?top=0", "", map[string]string{"X-API-Key": "admin-key"}); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for top=0, got %d", w.Code)
	}
	var plain map[string]any
	decode(t, w, &plain)
	if _, ok := plain["ticker_calls"]; ok {
		t.Error("expected no ticker_calls without a ticker query")
	}

	w = ts.do(t, http.MethodGet, "/api/v1/admin/stats?ticker=aapl", "", map[string]string{"X-API-Key": "admin-key"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var perTicker struct {
		TickerCalls struct {
			Ticker string `json:"ticker"`
			Count  int64  `json:"count"`
		} `json:"ticker_calls"`
	}
	decode(t, w, &perTicker)
	if perTicker.TickerCalls.Ticker != "AAPL" || perTicker.TickerCalls.Count != 2 {
		t.Errorf("unexpected ticker calls %+v", perTicker.TickerCalls)
	}
}
