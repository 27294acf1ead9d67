package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.LLM.Provider != ProviderGemini {
		t.Errorf("expected provider gemini, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("expected model gemini-2.0-flash, got %s", cfg.LLM.Gemini.Model)
	}
	if cfg.LLM.APIKey() != "" {
		t.Errorf("expected no API key by default, got %q", cfg.LLM.APIKey())
	}
	if cfg.Market.Timeout != 30*time.Second {
		t.Errorf("expected market timeout 30s, got %s", cfg.Market.Timeout)
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("expected address 0.0.0.0:8080, got %s", cfg.Server.Address())
	}
	if cfg.Assistant.Instruction != DefaultInstruction {
		t.Error("expected default instruction")
	}
	if cfg.Session.IdleTimeout != time.Hour {
		t.Errorf("expected session idle timeout 1h, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.LLM.Anthropic.BaseURL != "" {
		t.Errorf("expected no anthropic base url by default, got %q", cfg.LLM.Anthropic.BaseURL)
	}
}

func TestLoad_GoogleAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.LLM.Gemini.APIKey != "google-key" {
		t.Errorf("expected gemini key from GOOGLE_API_KEY, got %q", cfg.LLM.Gemini.APIKey)
	}
	if cfg.LLM.APIKey() != "google-key" {
		t.Errorf("expected selected provider key google-key, got %q", cfg.LLM.APIKey())
	}
}

func TestLoad_PrefixedEnvOverride(t *testing.T) {
	t.Setenv("ASSISTANT_SERVER_PORT", "9090")
	t.Setenv("ASSISTANT_LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("expected provider openai, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey() != "sk-test" {
		t.Errorf("expected openai key, got %q", cfg.LLM.APIKey())
	}
	if cfg.LLM.ModelName() != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %s", cfg.LLM.ModelName())
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
llm:
  provider: anthropic
  anthropic:
    model: claude-test
market:
  base_url: http://localhost:9999
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.LLM.ModelName() != "claude-test" {
		t.Errorf("expected model claude-test, got %s", cfg.LLM.ModelName())
	}
	if cfg.Market.BaseURL != "http://localhost:9999" {
		t.Errorf("expected market base url override, got %s", cfg.Market.BaseURL)
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	t.Setenv("ASSISTANT_LLM_PROVIDER", "cohere")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_MalformedDefaultFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("llm: [provider: anthropic\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Chdir(dir)

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for a config.yaml that does not parse")
	}
}

func TestLoad_NoDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.LLM.Provider != ProviderGemini {
		t.Errorf("expected default provider, got %s", cfg.LLM.Provider)
	}
}

func TestAssistantConfig_Title(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Stock_Market_Assistant", "Stock Market Assistant"},
		{"stock_market_assistant", "Stock Market Assistant"},
		{"élan_bot", "Élan Bot"},
		{"  spaced__out  ", "Spaced Out"},
		{"", ""},
	}

	for _, tt := range tests {
		a := AssistantConfig{Name: tt.name}
		if got := a.Title(); got != tt.want {
			t.Errorf("Title(%q): expected %q, got %q", tt.name, tt.want, got)
		}
	}
}
