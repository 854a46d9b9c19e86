// Package config provides configuration loading and structs for the docrag server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Engine     EngineConfig     `yaml:"engine"`
	Search     SearchConfig     `yaml:"search"`
	Answer     AnswerConfig     `yaml:"answer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AuthToken guards /rag and /bot. Usually supplied through X_AUTH_TOKEN.
	AuthToken    string `yaml:"auth_token"`
	AuthDisabled bool   `yaml:"auth_disabled"`
	// RateLimitRPS is the per-client request rate; 0 disables limiting.
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds paths for the vector index, metadata and uploads.
type StorageConfig struct {
	IndexPath       string `yaml:"index_path"`
	MetadataBackend string `yaml:"metadata_backend"`
	MetadataPath    string `yaml:"metadata_path"`
	DatabasePath    string `yaml:"database_path"`
	UploadDir       string `yaml:"upload_dir"`
}

// MetadataLocation returns the file used by the selected metadata backend.
func (s StorageConfig) MetadataLocation() string {
	if s.MetadataBackend == "sqlite" {
		return s.DatabasePath
	}
	return s.MetadataPath
}

// EmbeddingConfig holds embedding API settings.
type EmbeddingConfig struct {
	// Provider is azure, openai, or mock for a deterministic offline embedder.
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	// Model is the model name, or the deployment name on Azure.
	Model             string        `yaml:"model"`
	Dimensions        int           `yaml:"dimensions"`
	RequestDimensions bool          `yaml:"request_dimensions"`
	APIVersion        string        `yaml:"api_version"`
	Timeout           time.Duration `yaml:"timeout"`
}

// CompletionConfig holds chat completion settings.
type CompletionConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	APIVersion  string        `yaml:"api_version"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ChunkingConfig holds word window settings.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EngineConfig holds retrieval engine settings.
type EngineConfig struct {
	// CacheEmbeddings reuses stored vectors when rebuilding after a delete.
	CacheEmbeddings bool `yaml:"cache_embeddings"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	DefaultTopK    int `yaml:"default_top_k"`
	MaxTopK        int `yaml:"max_top_k"`
	QueryCacheSize int `yaml:"query_cache_size"`
}

// AnswerConfig holds RAG answer tool settings.
type AnswerConfig struct {
	TopK int `yaml:"top_k"`
}

// Load reads and parses the config file at path, overlays environment
// variables, expands paths, applies defaults and validates the result.
// An empty path, or a path that does not exist, yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
			configDir = filepath.Dir(path)
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)

	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	cfg.Storage.MetadataPath = expandPath(cfg.Storage.MetadataPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path. Secrets are not written.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.Server.AuthToken = ""
	out.Embedding.APIKey = ""
	out.Completion.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work together.
func Validate(cfg *Config) error {
	if cfg.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap < 0 || cfg.Chunking.Overlap >= cfg.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, %d), got %d", cfg.Chunking.Size, cfg.Chunking.Overlap)
	}
	switch cfg.Storage.MetadataBackend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("storage.metadata_backend must be json or sqlite, got %q", cfg.Storage.MetadataBackend)
	}
	switch cfg.Embedding.Provider {
	case "azure", "openai", "mock":
	default:
		return fmt.Errorf("embedding.provider must be azure, openai or mock, got %q", cfg.Embedding.Provider)
	}
	switch cfg.Completion.Provider {
	case "azure", "openai":
	default:
		return fmt.Errorf("completion.provider must be azure or openai, got %q", cfg.Completion.Provider)
	}
	if cfg.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Search.MaxTopK < cfg.Search.DefaultTopK {
		return fmt.Errorf("search.max_top_k (%d) is below search.default_top_k (%d)", cfg.Search.MaxTopK, cfg.Search.DefaultTopK)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}

// expandPath converts a path to absolute. Relative paths are resolved against
// configDir; a leading "~/" refers to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if abs, err := filepath.Abs(filepath.Join(configDir, path)); err == nil {
		return abs
	}
	return path
}
