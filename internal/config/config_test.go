package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	assert.Equal(t, 720*time.Hour, Duration(c.Storage.CardTTL))
	assert.Equal(t, 10000, c.Cards.MemorySize)
	assert.Equal(t, time.Hour, Duration(c.Inference.CacheTTL))
	assert.Equal(t, 100, c.Inference.MaxEntries)
	assert.Equal(t, 300*time.Second, Duration(c.Generation.Timeout))
	assert.Equal(t, 12000, c.Generation.MaxDeckChars)
	assert.Equal(t, 2, c.Generation.MaxRetries)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[generation]
provider = "ollama"
model = "qwen3:8b"
max_retries = 1

[inference]
cache_ttl = "30m"

[app]
debug_mode = true
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "ollama", c.Generation.Provider)
	assert.Equal(t, "qwen3:8b", c.Generation.Model)
	assert.Equal(t, "http://gpu-box:11434", c.Generation.BaseURL)
	assert.Equal(t, 1, c.Generation.MaxRetries)
	assert.Equal(t, 30*time.Minute, Duration(c.Inference.CacheTTL))
	assert.True(t, c.App.DebugMode)
	// Untouched sections keep their defaults.
	assert.Equal(t, 10000, c.Cards.MemorySize)
	assert.Equal(t, "chat", c.Generation.APIStyle)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[generation\nprovider="), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestApplyEnv_OpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	c := DefaultConfig()
	c.ApplyEnv()
	assert.Equal(t, "sk-test", c.Generation.APIKey)
}

func TestSave_OmitsAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	c := DefaultConfig()
	c.Generation.APIKey = "secret"
	c.Server.Port = 9090

	require.NoError(t, c.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Equal(t, "secret", c.Generation.APIKey)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, loaded.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad duration", func(c *Config) { c.Generation.Timeout = "soon" }},
		{"empty memory cache", func(c *Config) { c.Cards.MemorySize = 0 }},
		{"unknown provider", func(c *Config) { c.Generation.Provider = "carrier-pigeon" }},
		{"unknown api style", func(c *Config) { c.Generation.APIStyle = "responses" }},
		{"negative retries", func(c *Config) { c.Generation.MaxRetries = -1 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
