// Package config reads service configuration from the environment and the
// optional models file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"localore/internal/domain/entity"
)

// Config holds all configuration for the API service.
type Config struct {
	// Server
	Port     string
	Version  string
	LogLevel string

	// Generation
	GeminiAPIKey string
	Region       string
	ModelsFile   string

	// Stores
	RedisAddr        string
	RedisPassword    string
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	// Admin
	AdminPassword string

	// Admission
	RateLimit  int
	RateWindow time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8787"),
		Version:          getEnv("APP_VERSION", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		Region:           getEnv("TRIVIA_REGION", "Hokkaido, Japan"),
		ModelsFile:       os.Getenv("MODELS_FILE"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		QdrantHost:       os.Getenv("QDRANT_HOST"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "localore_trivia"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		RateLimit:        getEnvInt("RATE_LIMIT", 10),
		RateWindow:       time.Duration(getEnvInt("RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

type modelsFile struct {
	Models []modelEntry `yaml:"models"`
}

type modelEntry struct {
	Name            string `yaml:"name"`
	MaxOutputTokens int32  `yaml:"max_output_tokens"`
	ThinkingBudget  *int32 `yaml:"thinking_budget"`
}

// LoadModels reads the model chain from a YAML file. An empty path selects
// the built-in default chain.
func LoadModels(path string) ([]entity.ModelConfig, error) {
	if path == "" {
		return entity.DefaultModelConfigs(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file modelsFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("models file %s defines no models", path)
	}

	models := make([]entity.ModelConfig, 0, len(file.Models))
	for i, m := range file.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("models file %s: entry %d has no name", path, i)
		}
		tokens := m.MaxOutputTokens
		if tokens <= 0 {
			tokens = entity.DefaultMaxOutputTokens
		}
		models = append(models, entity.ModelConfig{
			Name:            m.Name,
			MaxOutputTokens: tokens,
			ThinkingBudget:  m.ThinkingBudget,
		})
	}
	return models, nil
}
