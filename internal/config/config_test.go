package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"localore/internal/domain/entity"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "APP_VERSION", "LOG_LEVEL", "GEMINI_API_KEY", "TRIVIA_REGION",
		"MODELS_FILE", "REDIS_ADDR", "QDRANT_HOST", "QDRANT_PORT",
		"ADMIN_PASSWORD", "RATE_LIMIT", "RATE_WINDOW_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8787" {
		t.Errorf("Port = %q, want 8787", cfg.Port)
	}
	if cfg.Region != "Hokkaido, Japan" {
		t.Errorf("Region = %q", cfg.Region)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.RateLimit != 10 || cfg.RateWindow != time.Minute {
		t.Errorf("rate defaults = %d per %v", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.GeminiAPIKey != "" || cfg.AdminPassword != "" || cfg.QdrantHost != "" {
		t.Error("secrets and optional hosts must default to empty")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TRIVIA_REGION", "Okinawa, Japan")
	t.Setenv("RATE_LIMIT", "3")
	t.Setenv("RATE_WINDOW_SECONDS", "10")
	t.Setenv("QDRANT_PORT", "7000")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Region != "Okinawa, Japan" {
		t.Errorf("Region = %q", cfg.Region)
	}
	if cfg.RateLimit != 3 || cfg.RateWindow != 10*time.Second {
		t.Errorf("rate = %d per %v", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.QdrantPort != 7000 {
		t.Errorf("QdrantPort = %d", cfg.QdrantPort)
	}
}

func TestLoadIgnoresUnparsableInts(t *testing.T) {
	t.Setenv("RATE_LIMIT", "lots")

	cfg := Load()
	if cfg.RateLimit != 10 {
		t.Errorf("unparsable RATE_LIMIT should fall back to default, got %d", cfg.RateLimit)
	}
}

func writeModelsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing models file: %v", err)
	}
	return path
}

func TestLoadModelsDefaultChain(t *testing.T) {
	models, err := LoadModels("")
	if err != nil {
		t.Fatalf("LoadModels returned error: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("default chain should have 3 models, got %d", len(models))
	}
	if models[0].Name != "gemini-2.5-flash" {
		t.Errorf("first default model = %q", models[0].Name)
	}
	if models[0].ThinkingBudget == nil || *models[0].ThinkingBudget != 0 {
		t.Error("default chain should disable reasoning on the first model")
	}
	if models[2].ThinkingBudget != nil {
		t.Error("models without reasoning control must leave the budget nil")
	}
}

func TestLoadModelsFromFile(t *testing.T) {
	path := writeModelsFile(t, `
models:
  - name: gemini-2.5-pro
    max_output_tokens: 512
    thinking_budget: 128
  - name: gemini-2.0-flash
`)

	models, err := LoadModels(path)
	if err != nil {
		t.Fatalf("LoadModels returned error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models", len(models))
	}

	first := models[0]
	if first.Name != "gemini-2.5-pro" || first.MaxOutputTokens != 512 {
		t.Errorf("unexpected first model: %+v", first)
	}
	if first.ThinkingBudget == nil || *first.ThinkingBudget != 128 {
		t.Errorf("thinking budget not carried: %+v", first.ThinkingBudget)
	}

	second := models[1]
	if second.MaxOutputTokens != entity.DefaultMaxOutputTokens {
		t.Errorf("missing token budget should default, got %d", second.MaxOutputTokens)
	}
	if second.ThinkingBudget != nil {
		t.Error("absent thinking_budget must stay nil")
	}
}

func TestLoadModelsExplicitZeroBudget(t *testing.T) {
	path := writeModelsFile(t, `
models:
  - name: gemini-2.5-flash
    thinking_budget: 0
`)

	models, err := LoadModels(path)
	if err != nil {
		t.Fatalf("LoadModels returned error: %v", err)
	}
	if models[0].ThinkingBudget == nil || *models[0].ThinkingBudget != 0 {
		t.Error("explicit zero budget must survive as a zero pointer")
	}
}

func TestLoadModelsRejectsBadFiles(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty list", "models: []\n"},
		{"nameless entry", "models:\n  - max_output_tokens: 256\n"},
		{"not yaml", "{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadModels(writeModelsFile(t, tc.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadModelsMissingFile(t *testing.T) {
	if _, err := LoadModels(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should be an error")
	}
}
