// Package config loads semcache's configuration from YAML with
// SEMCACHE_-prefixed environment variable overrides, and supports
// hot-reload via an fsnotify watcher plus an atomic pointer swap.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is semcache's complete process configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Provider ProviderConfig `yaml:"provider"`
	Logging  LoggingConfig  `yaml:"logging"`
	Admin    AdminConfig    `yaml:"admin"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// EngineConfig holds the cache engine's tunables: the similarity
// threshold and exactly one of the two eviction policy parameters.
type EngineConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	EvictionPolicy      string  `yaml:"eviction_policy"` // "entry_limit" | "byte_limit"
	EntryLimit          uint64  `yaml:"entry_limit"`
	ByteLimit           uint64  `yaml:"byte_limit"`
}

// EmbedderConfig configures the text-to-vector collaborator.
type EmbedderConfig struct {
	Kind      string        `yaml:"kind"` // "openai" | "hash"
	APIKey    string        `yaml:"api_key"`
	APIBase   string        `yaml:"api_base"`
	Model     string        `yaml:"model"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ProviderConfig configures the default upstream provider the proxy
// forwards to.
type ProviderConfig struct {
	Type       string `yaml:"type"` // "openai" | "anthropic" | "generic"
	UpstreamURL string `yaml:"upstream_url"`
	HostHeader string `yaml:"host_header"`
	PromptPath string `yaml:"prompt_path"`
}

// LoggingConfig configures the slog JSON handler.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
}

// AdminConfig configures the admin/dashboard endpoint.
type AdminConfig struct {
	Enabled        bool `yaml:"enabled"`
	HistoryCapacity int  `yaml:"history_capacity"`
}

// Default returns semcache's baseline configuration, overridden by
// whatever a config file or environment variables supply on top.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Engine: EngineConfig{
			SimilarityThreshold: 0.9,
			EvictionPolicy:      "entry_limit",
			EntryLimit:          10_000,
		},
		Embedder: EmbedderConfig{
			Kind:      "openai",
			APIBase:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			Timeout:   30 * time.Second,
		},
		Provider: ProviderConfig{
			Type: "openai",
		},
		Logging: LoggingConfig{Level: "info"},
		Admin: AdminConfig{
			Enabled:         true,
			HistoryCapacity: 500,
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file, then applies
// SEMCACHE_-prefixed environment variable overrides on top, mirroring the
// original's `config::Environment::with_prefix("SEMCACHE")` convention.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// envPrefix is the prefix every environment-variable override must
// carry, e.g. SEMCACHE_SERVER_PORT.
const envPrefix = "SEMCACHE_"

func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnvInt(envPrefix + "SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v, ok := lookupEnvFloat(envPrefix + "ENGINE_SIMILARITY_THRESHOLD"); ok {
		cfg.Engine.SimilarityThreshold = v
	}
	if v, ok := os.LookupEnv(envPrefix + "ENGINE_EVICTION_POLICY"); ok {
		cfg.Engine.EvictionPolicy = v
	}
	if v, ok := lookupEnvUint(envPrefix + "ENGINE_ENTRY_LIMIT"); ok {
		cfg.Engine.EntryLimit = v
	}
	if v, ok := lookupEnvUint(envPrefix + "ENGINE_BYTE_LIMIT"); ok {
		cfg.Engine.ByteLimit = v
	}
	if v, ok := os.LookupEnv(envPrefix + "EMBEDDER_API_KEY"); ok {
		cfg.Embedder.APIKey = v
	}
	if v, ok := os.LookupEnv(envPrefix + "PROVIDER_TYPE"); ok {
		cfg.Provider.Type = v
	}
	if v, ok := os.LookupEnv(envPrefix + "LOGGING_LEVEL"); ok {
		cfg.Logging.Level = v
	}
}

func lookupEnvInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return n, err == nil
}

func lookupEnvUint(key string) (uint64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	return n, err == nil
}

func lookupEnvFloat(key string) (float64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return n, err == nil
}

// Validate checks the configuration for internal consistency, matching
// spec invariant I5 (thresholds must be in [0,1]); the eviction policy
// must be a known kind whose own limit is non-zero (the other limit is
// not checked).
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Engine.SimilarityThreshold < 0 || c.Engine.SimilarityThreshold > 1 {
		return fmt.Errorf("engine.similarity_threshold must be in [0,1], got %v", c.Engine.SimilarityThreshold)
	}
	switch c.Engine.EvictionPolicy {
	case "entry_limit":
		if c.Engine.EntryLimit == 0 {
			return fmt.Errorf("engine.entry_limit must be > 0 when eviction_policy is entry_limit")
		}
	case "byte_limit":
		if c.Engine.ByteLimit == 0 {
			return fmt.Errorf("engine.byte_limit must be > 0 when eviction_policy is byte_limit")
		}
	default:
		return fmt.Errorf("engine.eviction_policy must be entry_limit or byte_limit, got %q", c.Engine.EvictionPolicy)
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("embedder.dimension must be > 0")
	}
	return nil
}
