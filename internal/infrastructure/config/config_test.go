package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/llm"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GROQ_API_KEY", "GEMINI_API_KEY",
		"HELPBOT_ADDR", "HELPBOT_LLM_PROVIDER", "HELPBOT_LLM_BASE_URL", "HELPBOT_LLM_MODEL",
		"HELPBOT_LLM_API_KEY", "HELPBOT_LLM_MAX_RETRIES", "HELPBOT_LLM_TIMEOUT_MS",
		"HELPBOT_EMBEDDING_PROVIDER", "HELPBOT_EMBEDDING_BASE_URL", "HELPBOT_EMBEDDING_MODEL",
		"HELPBOT_STORE_BACKEND", "HELPBOT_DATA_PATH", "HELPBOT_ARTICLES", "HELPBOT_TOP_N",
		"HELPBOT_LOG_LEVEL", "HELPBOT_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)

	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, 0.3, cfg.LLM.Tasks[ports.TaskAnswer].Temperature)
	assert.Equal(t, 512, cfg.LLM.Tasks[ports.TaskAnswer].MaxTokens)
	assert.Equal(t, "Member", cfg.Retrieval.Category)
	assert.Equal(t, 3, cfg.Retrieval.TopN)
	assert.Equal(t, 6, cfg.Context.HistoryTurns)
	assert.Equal(t, 150, cfg.Context.TurnCharLimit)
	assert.Equal(t, 2024, cfg.Holidays.FromYear)
	assert.Equal(t, 2027, cfg.Holidays.ToYear)
	assert.Equal(t, 30*time.Minute, cfg.SessionWindow())
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  addr: ":9090"
llm:
  model: llama-3.3-70b-versatile
  tasks:
    answer:
      temperature: 0.1
retrieval:
  top_n: 5
holidays:
  to_year: 2030
logging:
  format: console
`)

	cfg, err := Load(path, true)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 0.1, cfg.LLM.Tasks[ports.TaskAnswer].Temperature)
	assert.Equal(t, 512, cfg.LLM.Tasks[ports.TaskAnswer].MaxTokens, "unset task fields keep defaults")
	assert.Equal(t, 32, cfg.LLM.Tasks[ports.TaskFollowup].MaxTokens)
	assert.Equal(t, 5, cfg.Retrieval.TopN)
	assert.Equal(t, 2030, cfg.Holidays.ToYear)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "retrieval:\n  top_n: 5\n")
	t.Setenv("GROQ_API_KEY", "gsk_env")
	t.Setenv("GEMINI_API_KEY", "gem_env")
	t.Setenv("HELPBOT_TOP_N", "7")
	t.Setenv("HELPBOT_ARTICLES", "/srv/articles.json")

	cfg, err := Load(path, true)

	require.NoError(t, err)
	assert.Equal(t, "gsk_env", cfg.LLM.APIKey)
	assert.Equal(t, "gem_env", cfg.Embedding.APIKey)
	assert.Equal(t, 7, cfg.Retrieval.TopN)
	assert.Equal(t, "/srv/articles.json", cfg.Ingest.ArticlesPath)
}

func TestLoad_OllamaProviderSwapsEndpoint(t *testing.T) {
	clearEnv(t)
	t.Setenv("HELPBOT_LLM_PROVIDER", "ollama")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.NoError(t, cfg.Credentials())
}

func TestLoad_GenAIDropsOllamaEmbeddingDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HELPBOT_EMBEDDING_PROVIDER", "genai")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)

	require.NoError(t, err)
	assert.Empty(t, cfg.Embedding.BaseURL)
	assert.Empty(t, cfg.Embedding.Model)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server: [unclosed")

	_, err := Load(path, true)

	assert.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "anthropic"
	cfg.Store.Backend = "postgres"
	cfg.Retrieval.TopN = 0
	cfg.Holidays.FromYear = 2030
	cfg.Session.Window = "soon"

	err := cfg.Validate()

	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "llm.provider")
	assert.Contains(t, msg, "store.backend")
	assert.Contains(t, msg, "retrieval.top_n")
	assert.Contains(t, msg, "holidays.from_year")
	assert.Contains(t, msg, "session.window")
}

func TestCredentials(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorContains(t, cfg.Credentials(), "GROQ_API_KEY")

	cfg.LLM.APIKey = "gsk"
	assert.NoError(t, cfg.Credentials())

	cfg.Embedding.Provider = EmbeddingGenAI
	assert.ErrorContains(t, cfg.Credentials(), "GEMINI_API_KEY")
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.CleanupInterval = "1m"
	cfg.Ingest.WatchDebounce = "bogus"

	assert.Equal(t, time.Minute, cfg.CleanupInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
}
