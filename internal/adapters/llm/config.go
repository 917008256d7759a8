// Package llm provides completion adapters for OpenAI-compatible hosts
// (Groq by default) and for a local Ollama server.
package llm

import (
	"time"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// TaskConfig holds per-task sampling parameters.
type TaskConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms"` // overrides global if > 0
}

// Config holds all configuration for the completion subsystem.
type Config struct {
	Provider   string                        `yaml:"provider"`
	BaseURL    string                        `yaml:"base_url"`
	APIKey     string                        `yaml:"api_key"`
	Model      string                        `yaml:"model"`
	TimeoutMs  int                           `yaml:"timeout_ms"`
	MaxRetries int                           `yaml:"max_retries"`
	Tasks      map[ports.TaskType]TaskConfig `yaml:"tasks"`
}

// DefaultConfig targets Groq's OpenAI-compatible endpoint.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderOpenAI,
		BaseURL:    "https://api.groq.com/openai/v1",
		Model:      "llama-3.1-8b-instant",
		TimeoutMs:  60000,
		MaxRetries: 1,
		Tasks: map[ports.TaskType]TaskConfig{
			ports.TaskAnswer:   {Temperature: 0.3, MaxTokens: 512, TimeoutMs: 60000},
			ports.TaskFollowup: {Temperature: 0.3, MaxTokens: 32, TimeoutMs: 10000},
		},
	}
}

// DefaultOllamaConfig targets a local Ollama server.
func DefaultOllamaConfig() Config {
	cfg := DefaultConfig()
	cfg.Provider = ProviderOllama
	cfg.BaseURL = "http://localhost:11434"
	cfg.Model = "llama3.2"
	cfg.TimeoutMs = 300000
	return cfg
}

// TaskTimeout returns the effective timeout for a given task type.
func (c Config) TaskTimeout(task ports.TaskType) time.Duration {
	ms := c.TimeoutMs
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		ms = tc.TimeoutMs
	}
	if ms <= 0 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}

// params resolves sampling parameters, request overrides winning over task defaults.
func (c Config) params(req ports.CompletionRequest) (temperature float64, maxTokens int) {
	tc := c.Tasks[req.Task]
	temperature, maxTokens = tc.Temperature, tc.MaxTokens
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	return temperature, maxTokens
}
