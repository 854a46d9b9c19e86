package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RateLimitBurst == 0 && cfg.Server.RateLimitRPS > 0 {
		cfg.Server.RateLimitBurst = int(cfg.Server.RateLimitRPS * 2)
		if cfg.Server.RateLimitBurst < 1 {
			cfg.Server.RateLimitBurst = 1
		}
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 60 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Minute
	}

	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "embeddings/index.vec"
	}
	if cfg.Storage.MetadataBackend == "" {
		cfg.Storage.MetadataBackend = "json"
	}
	if cfg.Storage.MetadataPath == "" {
		cfg.Storage.MetadataPath = "embeddings/metadata.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "embeddings/metadata.db"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "documents"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "azure"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-large"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 3072
	}
	if cfg.Embedding.APIVersion == "" {
		cfg.Embedding.APIVersion = "2024-02-15-preview"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}

	if cfg.Completion.Provider == "" {
		cfg.Completion.Provider = "azure"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "gpt-4o"
	}
	if cfg.Completion.APIVersion == "" {
		cfg.Completion.APIVersion = "2024-02-15-preview"
	}
	if cfg.Completion.Temperature == 0 {
		cfg.Completion.Temperature = 0.3
	}
	if cfg.Completion.MaxTokens == 0 {
		cfg.Completion.MaxTokens = 300
	}
	if cfg.Completion.Timeout == 0 {
		cfg.Completion.Timeout = 60 * time.Second
	}

	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 500
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 50
	}

	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 3
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
	if cfg.Search.QueryCacheSize == 0 {
		cfg.Search.QueryCacheSize = 256
	}

	if cfg.Answer.TopK == 0 {
		cfg.Answer.TopK = 1
	}
}
