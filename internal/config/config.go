// Package config loads the deck-analyst TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Storage    StorageConfig    `toml:"storage"`
	Cards      CardsConfig      `toml:"cards"`
	Inference  InferenceConfig  `toml:"inference"`
	Generation GenerationConfig `toml:"generation"`
	Curation   CurationConfig   `toml:"curation"`
	Server     ServerConfig     `toml:"server"`
	App        AppConfig        `toml:"app"`
}

// StorageConfig contains persistent card cache settings.
type StorageConfig struct {
	DBPath        string `toml:"db_path"`        // SQLite file; empty uses ~/.deck-analyst/cards.db
	CardTTL       string `toml:"card_ttl"`       // Age at which a cached card is refetched (e.g., "720h")
	PruneInterval string `toml:"prune_interval"` // How often serve deletes expired cards; "0s" disables
}

// CardsConfig contains card resolver and card source settings.
type CardsConfig struct {
	BaseURL    string `toml:"base_url"`    // Card source API endpoint
	MemorySize int    `toml:"memory_size"` // In-process cache entries
	MemoryTTL  string `toml:"memory_ttl"`  // In-process cache TTL
	RateLimit  string `toml:"rate_limit"`  // Minimum spacing between requests
}

// InferenceConfig contains context cache settings.
type InferenceConfig struct {
	CacheTTL   string `toml:"cache_ttl"`
	MaxEntries int    `toml:"max_entries"`
}

// GenerationConfig contains generator settings.
type GenerationConfig struct {
	Provider      string     `toml:"provider"`       // openai, gemini or ollama
	Model         string     `toml:"model"`          // Empty uses the provider's default
	FallbackModel string     `toml:"fallback_model"` // Empty uses the provider's default
	APIStyle      string     `toml:"api_style"` // chat or input
	BaseURL       string     `toml:"base_url"`
	APIKey        string     `toml:"api_key,omitempty"`
	Timeout       string     `toml:"timeout"`
	MaxDeckChars  int        `toml:"max_deck_chars"`
	MaxRetries    int        `toml:"max_retries"`
	Tokens        TokenTiers `toml:"tokens"`
}

// TokenTiers are output token budgets by decklist size.
type TokenTiers struct {
	Small  int `toml:"small"`  // fewer than 60 cards
	Medium int `toml:"medium"` // 60 to 100 cards
	High   int `toml:"high"`   // more than 100 cards
	Cap    int `toml:"cap"`    // hard maximum
}

// CurationConfig points at an optional curated tables override.
type CurationConfig struct {
	TablesPath string `toml:"tables_path"`
	Watch      bool   `toml:"watch"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			CardTTL:       "720h",
			PruneInterval: "24h",
		},
		Cards: CardsConfig{
			BaseURL:    "https://api.scryfall.com",
			MemorySize: 10000,
			MemoryTTL:  "24h",
			RateLimit:  "100ms",
		},
		Inference: InferenceConfig{
			CacheTTL:   "1h",
			MaxEntries: 100,
		},
		Generation: GenerationConfig{
			Provider:     "openai",
			APIStyle:     "chat",
			Timeout:      "300s",
			MaxDeckChars: 12000,
			MaxRetries:   2,
			Tokens:       TokenTiers{Small: 1800, Medium: 2600, High: 3500, Cap: 4096},
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// Dir returns the configuration directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".deck-analyst")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return configDir, nil
}

// DefaultPath returns ~/.deck-analyst/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration at path (DefaultPath when empty) over the
// defaults and applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	config.ApplyEnv()
	return config, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv() {
	switch c.Generation.Provider {
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.Generation.APIKey = key
		}
	case "ollama":
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			c.Generation.BaseURL = host
		}
	default:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.Generation.APIKey = key
		}
	}
}

// Save writes the configuration to path. The API key is never written.
func (c *Config) Save(path string) error {
	out := *c
	out.Generation.APIKey = ""

	data, err := toml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	durations := map[string]string{
		"storage.card_ttl":       c.Storage.CardTTL,
		"storage.prune_interval": c.Storage.PruneInterval,
		"cards.memory_ttl":       c.Cards.MemoryTTL,
		"cards.rate_limit":       c.Cards.RateLimit,
		"inference.cache_ttl":    c.Inference.CacheTTL,
		"generation.timeout":     c.Generation.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	}

	if c.Cards.MemorySize < 1 {
		return fmt.Errorf("cards memory size must be positive: %d", c.Cards.MemorySize)
	}
	if c.Inference.MaxEntries < 1 {
		return fmt.Errorf("inference max entries must be positive: %d", c.Inference.MaxEntries)
	}

	switch c.Generation.Provider {
	case "openai", "gemini", "ollama":
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}
	switch c.Generation.APIStyle {
	case "chat", "input":
	default:
		return fmt.Errorf("unknown api style %q", c.Generation.APIStyle)
	}
	if c.Generation.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative: %d", c.Generation.MaxRetries)
	}
	if c.Generation.MaxDeckChars < 0 {
		return fmt.Errorf("max deck chars cannot be negative: %d", c.Generation.MaxDeckChars)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// DBPath returns the database path, defaulting into the config directory.
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cards.db"), nil
}

// Duration parses one of the duration settings. Call Validate first.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
