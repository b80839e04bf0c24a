package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ramonehamilton/deck-analyst/internal/config"
	"github.com/ramonehamilton/deck-analyst/internal/llm"
	"github.com/ramonehamilton/deck-analyst/internal/version"
)

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"analyze"},
		{"context"},
		{"cards", "prune"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
	} {
		cmd, _, err := rootCmd.Find(path)
		assert.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestAnalysisConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Generation.APIStyle = "input"
	cfg.Generation.Timeout = "90s"

	got := analysisConfig(cfg)
	assert.Equal(t, llm.StyleInput, got.Style)
	assert.Equal(t, 90*time.Second, got.Timeout)
	assert.Equal(t, "gpt-4o-mini", got.FallbackModel)
	assert.Equal(t, 4096, got.Tokens.Cap)
	assert.Equal(t, 12000, got.MaxDeckChars)
}

func TestRootVersion(t *testing.T) {
	assert.Equal(t, version.Version, rootCmd.Version)
}

func TestNewPrunerDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.PruneInterval = "0s"
	assert.Nil(t, newPruner(&app{cfg: cfg}))

	cfg.Storage.PruneInterval = "6h"
	assert.NotNil(t, newPruner(&app{cfg: cfg}))
}

func TestAnalysisConfig_ProviderModels(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Generation.Provider = "ollama"
	got := analysisConfig(cfg)
	assert.Empty(t, got.Model, "ollama should use the model its client was configured with")
	assert.Empty(t, got.FallbackModel)

	cfg.Generation.Provider = "gemini"
	got = analysisConfig(cfg)
	assert.Equal(t, llm.DefaultGeminiModel, got.Model)

	cfg.Generation.Provider = "openai"
	cfg.Generation.Model = "gpt-4.1"
	got = analysisConfig(cfg)
	assert.Equal(t, "gpt-4.1", got.Model)
	assert.Equal(t, "gpt-4o-mini", got.FallbackModel)
}
