// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	ChartDir    string
	LLM         LLMConfig
	Engine      EngineConfig
}

// LLMConfig holds the language-model connection settings.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// EngineConfig controls the query-resolution engine.
type EngineConfig struct {
	MaxCandidates  int // candidates requested from the planner per question
	MemoryTurns    int // turns retained per session before eviction
	MaxQuestionLen int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/factory.db"),
		ChartDir:    getEnv("CHART_DIR", "./data/charts"),
		LLM: LLMConfig{
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Engine: EngineConfig{
			MaxCandidates:  getEnvInt("ENGINE_MAX_CANDIDATES", 3),
			MemoryTurns:    getEnvInt("ENGINE_MEMORY_TURNS", 20),
			MaxQuestionLen: getEnvInt("ENGINE_MAX_QUESTION_LENGTH", 500),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ChartDir == "" {
		return fmt.Errorf("CHART_DIR cannot be empty")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY cannot be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("OPENAI_MODEL cannot be empty")
	}
	if c.Engine.MaxCandidates <= 0 {
		return fmt.Errorf("ENGINE_MAX_CANDIDATES must be > 0")
	}
	if c.Engine.MemoryTurns <= 0 {
		return fmt.Errorf("ENGINE_MEMORY_TURNS must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
