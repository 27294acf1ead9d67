// Package config handles application configuration using Viper.
// Values come from defaults, an optional YAML file and environment variables, in rising priority.
// Go convention: configuration is loaded into structs, not accessed as raw key-value pairs.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Supported completion backends for LLMConfig.Provider.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultInstruction is the behavioral instruction sent ahead of every user question.
const DefaultInstruction = `You are a helpful stock market assistant.
You have access to a tool called ` + "`get_stock_info`" + ` that can fetch real-time stock data.
Use this tool when the user asks for current stock prices or information about a specific stock ticker.
When using the tool, provide the ticker symbol (e.g., 'AAPL', 'GOOGL').
If you don't know something, just say so.
Be concise and answer directly based on the information provided by the tool or your knowledge.
`

// Config is the root configuration struct. Nested structs organize related settings.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Session   SessionConfig   `mapstructure:"session"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Market    MarketConfig    `mapstructure:"market"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig points at the SQLite call ledger. An empty path disables it.
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// SessionConfig bounds the in-memory transcripts. Sessions with no activity for
// IdleTimeout are dropped; zero keeps them until they are deleted.
type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LLMConfig struct {
	// Provider selects the completion backend: "gemini", "anthropic" or "openai".
	Provider  string          `mapstructure:"provider"`
	Timeout   time.Duration   `mapstructure:"timeout"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// AssistantConfig holds the agent persona shown in the UI and sent to the model.
type AssistantConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Instruction string `mapstructure:"instruction"`
}

type MarketConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
// A missing credential is not an error here; callers decide how to degrade.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults apply when neither file nor env provides a value
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "./storage/stock-assistant.db")
	v.SetDefault("session.idle_timeout", time.Hour)
	v.SetDefault("auth.api_keys", []string{})
	v.SetDefault("auth.admin_keys", []string{})
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.anthropic.max_tokens", 1024)
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("assistant.name", "Stock_Market_Assistant")
	v.SetDefault("assistant.description", "A helpful stock market assistant that can fetch real-time stock prices.")
	v.SetDefault("assistant.instruction", DefaultInstruction)
	v.SetDefault("market.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.timeout", 30*time.Second)
	v.SetDefault("market.user_agent", "Mozilla/5.0 (compatible; stock-assistant/1.0)")
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("log.level", "info")

	// Read from YAML config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// A missing default config file is fine; an explicit path must exist.
	// A file that exists but does not parse is always an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	// ASSISTANT_ prefix + nested keys: ASSISTANT_SERVER_PORT=9090 → server.port=9090
	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The vendors' conventional variable names work too, so an existing
	// GOOGLE_API_KEY in .env is picked up without renaming it.
	bindings := map[string][]string{
		"llm.gemini.api_key":    {"ASSISTANT_LLM_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"llm.anthropic.api_key": {"ASSISTANT_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
		"llm.openai.api_key":    {"ASSISTANT_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderAnthropic, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// APIKey returns the credential of the selected provider, or "" when none is set.
func (l LLMConfig) APIKey() string {
	switch l.Provider {
	case ProviderAnthropic:
		return l.Anthropic.APIKey
	case ProviderOpenAI:
		return l.OpenAI.APIKey
	default:
		return l.Gemini.APIKey
	}
}

// ModelName returns the model configured for the selected provider.
func (l LLMConfig) ModelName() string {
	switch l.Provider {
	case ProviderAnthropic:
		return l.Anthropic.Model
	case ProviderOpenAI:
		return l.OpenAI.Model
	default:
		return l.Gemini.Model
	}
}

// Title turns the agent name into the heading shown to users:
// "Stock_Market_Assistant" → "Stock Market Assistant".
func (a AssistantConfig) Title() string {
	words := strings.Fields(strings.ReplaceAll(a.Name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
