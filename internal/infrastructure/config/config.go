// Package config loads helpbot configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/holidays"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/llm"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/usecases"
)

// DefaultPath is read when --config is not given.
const DefaultPath = "config.yaml"

const (
	EmbeddingOllama = "ollama"
	EmbeddingGenAI  = "genai"

	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all helpbot configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       llm.Config      `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Context   ContextConfig   `yaml:"context"`
	Holidays  HolidaysConfig  `yaml:"holidays"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Session   SessionConfig   `yaml:"session"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Dimensions int32  `yaml:"dimensions"`
}

type StoreConfig struct {
	Backend  string `yaml:"backend"`
	DataPath string `yaml:"data_path"`
}

type RetrievalConfig struct {
	Category string `yaml:"category"`
	TopN     int    `yaml:"top_n"`
}

type ContextConfig struct {
	HistoryTurns  int `yaml:"history_turns"`
	TurnCharLimit int `yaml:"turn_char_limit"`
}

type HolidaysConfig struct {
	FromYear int `yaml:"from_year"`
	ToYear   int `yaml:"to_year"`
}

type IngestConfig struct {
	ArticlesPath  string   `yaml:"articles_path"`
	ChunkSize     int      `yaml:"chunk_size"`
	ChunkOverlap  int      `yaml:"chunk_overlap"`
	BatchSize     int      `yaml:"batch_size"`
	Concurrency   int      `yaml:"concurrency"`
	Categories    []string `yaml:"categories"`
	WatchDebounce string   `yaml:"watch_debounce"`
}

type SessionConfig struct {
	Window          string `yaml:"window"`
	CleanupInterval string `yaml:"cleanup_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			CORSOrigin: "*",
		},
		LLM: llm.DefaultConfig(),
		Embedding: EmbeddingConfig{
			Provider: EmbeddingOllama,
			BaseURL:  "http://localhost:11434",
			Model:    "all-minilm",
		},
		Store: StoreConfig{
			Backend:  StoreSQLite,
			DataPath: "./data",
		},
		Retrieval: RetrievalConfig{
			Category: usecases.DefaultCategory,
			TopN:     usecases.DefaultTopN,
		},
		Context: ContextConfig{
			HistoryTurns:  usecases.DefaultHistoryTurns,
			TurnCharLimit: usecases.DefaultTurnCharLimit,
		},
		Holidays: HolidaysConfig{
			FromYear: holidays.DefaultFromYear,
			ToYear:   holidays.DefaultToYear,
		},
		Ingest: IngestConfig{
			ArticlesPath:  "data/scraped_content.json",
			ChunkSize:     usecases.DefaultChunkSize,
			ChunkOverlap:  usecases.DefaultChunkOverlap,
			BatchSize:     usecases.DefaultBatchSize,
			Concurrency:   2,
			Categories:    []string{usecases.DefaultCategory},
			WatchDebounce: "500ms",
		},
		Session: SessionConfig{
			Window:          "30m",
			CleanupInterval: "5m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err) && !required:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.fillTaskDefaults()
	cfg.applyEnvOverrides()
	cfg.resolveProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillTaskDefaults restores per-task values a partial YAML block left zero.
func (c *Config) fillTaskDefaults() {
	defaults := llm.DefaultConfig().Tasks
	if c.LLM.Tasks == nil {
		c.LLM.Tasks = defaults
		return
	}
	for task, def := range defaults {
		tc, ok := c.LLM.Tasks[task]
		if !ok {
			c.LLM.Tasks[task] = def
			continue
		}
		if tc.MaxTokens == 0 {
			tc.MaxTokens = def.MaxTokens
		}
		if tc.TimeoutMs == 0 {
			tc.TimeoutMs = def.TimeoutMs
		}
		c.LLM.Tasks[task] = tc
	}
}

// resolveProviderDefaults swaps in the endpoint and model of a provider that
// was selected without naming them.
func (c *Config) resolveProviderDefaults() {
	if c.Embedding.Provider == EmbeddingGenAI {
		def := DefaultConfig().Embedding
		if c.Embedding.BaseURL == def.BaseURL {
			c.Embedding.BaseURL = ""
		}
		if c.Embedding.Model == def.Model {
			c.Embedding.Model = ""
		}
	}

	if c.LLM.Provider != llm.ProviderOllama {
		return
	}
	groq, ollama := llm.DefaultConfig(), llm.DefaultOllamaConfig()
	if c.LLM.BaseURL == "" || c.LLM.BaseURL == groq.BaseURL {
		c.LLM.BaseURL = ollama.BaseURL
	}
	if c.LLM.Model == "" || c.LLM.Model == groq.Model {
		c.LLM.Model = ollama.Model
	}
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Embedding.APIKey = key
	}

	setString(&c.Server.Addr, "HELPBOT_ADDR")
	setString(&c.LLM.Provider, "HELPBOT_LLM_PROVIDER")
	setString(&c.LLM.BaseURL, "HELPBOT_LLM_BASE_URL")
	setString(&c.LLM.Model, "HELPBOT_LLM_MODEL")
	setString(&c.LLM.APIKey, "HELPBOT_LLM_API_KEY")
	setInt(&c.LLM.MaxRetries, "HELPBOT_LLM_MAX_RETRIES")
	setInt(&c.LLM.TimeoutMs, "HELPBOT_LLM_TIMEOUT_MS")
	setString(&c.Embedding.Provider, "HELPBOT_EMBEDDING_PROVIDER")
	setString(&c.Embedding.BaseURL, "HELPBOT_EMBEDDING_BASE_URL")
	setString(&c.Embedding.Model, "HELPBOT_EMBEDDING_MODEL")
	setString(&c.Store.Backend, "HELPBOT_STORE_BACKEND")
	setString(&c.Store.DataPath, "HELPBOT_DATA_PATH")
	setString(&c.Ingest.ArticlesPath, "HELPBOT_ARTICLES")
	setInt(&c.Retrieval.TopN, "HELPBOT_TOP_N")
	setString(&c.Logging.Level, "HELPBOT_LOG_LEVEL")
	setString(&c.Logging.Format, "HELPBOT_LOG_FORMAT")
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		*dst = n
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q must be %q or %q", c.LLM.Provider, llm.ProviderOpenAI, llm.ProviderOllama))
	}

	switch c.Embedding.Provider {
	case EmbeddingOllama, EmbeddingGenAI:
	default:
		errs = append(errs, fmt.Errorf("embedding.provider %q must be %q or %q", c.Embedding.Provider, EmbeddingOllama, EmbeddingGenAI))
	}

	if c.Store.Backend != StoreSQLite && c.Store.Backend != StoreMemory {
		errs = append(errs, fmt.Errorf("store.backend %q must be %q or %q", c.Store.Backend, StoreSQLite, StoreMemory))
	}
	if c.Retrieval.TopN <= 0 {
		errs = append(errs, errors.New("retrieval.top_n must be positive"))
	}
	if strings.TrimSpace(c.Retrieval.Category) == "" {
		errs = append(errs, errors.New("retrieval.category is required"))
	}
	if c.Holidays.FromYear > c.Holidays.ToYear {
		errs = append(errs, fmt.Errorf("holidays.from_year %d is after to_year %d", c.Holidays.FromYear, c.Holidays.ToYear))
	}
	for name, v := range map[string]string{
		"session.window":           c.Session.Window,
		"session.cleanup_interval": c.Session.CleanupInterval,
		"ingest.watch_debounce":    c.Ingest.WatchDebounce,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s %q is not a positive duration", name, v))
		}
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Credentials checks the API keys the selected providers need. Commands
// that never call a model (optout) skip it.
func (c *Config) Credentials() error {
	var errs []error
	if c.LLM.Provider == llm.ProviderOpenAI && c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key is required for the openai provider (set GROQ_API_KEY)"))
	}
	if c.Embedding.Provider == EmbeddingGenAI && c.Embedding.APIKey == "" {
		errs = append(errs, errors.New("embedding.api_key is required for the genai provider (set GEMINI_API_KEY)"))
	}
	return errors.Join(errs...)
}

// SessionWindow returns the idle expiry as a duration.
func (c *Config) SessionWindow() time.Duration {
	return parseDuration(c.Session.Window, 30*time.Minute)
}

// CleanupInterval returns how often expired sessions are swept.
func (c *Config) CleanupInterval() time.Duration {
	return parseDuration(c.Session.CleanupInterval, 5*time.Minute)
}

// WatchDebounce returns the file watcher's quiet period.
func (c *Config) WatchDebounce() time.Duration {
	return parseDuration(c.Ingest.WatchDebounce, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
