package config

import (
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

func firstEnv(lookup LookupFunc, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// ApplyEnv overlays secrets and endpoints from the environment. Embedding
// settings fall back to the *2 variables and then to the shared Azure ones,
// matching deployments that use a separate resource for embeddings.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	set := func(dst *string, keys ...string) {
		if v, ok := firstEnv(lookup, keys...); ok {
			*dst = v
		}
	}

	set(&cfg.Server.AuthToken, "X_AUTH_TOKEN")
	if v, ok := firstEnv(lookup, "PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	set(&cfg.Completion.APIKey, "AZURE_OPENAI_API_KEY")
	set(&cfg.Completion.Endpoint, "AZURE_OPENAI_ENDPOINT")
	set(&cfg.Completion.Model, "AZURE_OPENAI_DEPLOYMENT")
	set(&cfg.Completion.APIVersion, "AZURE_OPENAI_API_VERSION")

	set(&cfg.Embedding.APIKey, "EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY2", "AZURE_OPENAI_API_KEY")
	set(&cfg.Embedding.Endpoint, "EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT2", "AZURE_OPENAI_ENDPOINT")
	set(&cfg.Embedding.Model, "EMBEDDING_MODEL", "AZURE_EMBEDDING_DEPLOYMENT2", "AZURE_EMBEDDING_DEPLOYMENT")
	set(&cfg.Embedding.APIVersion, "EMBEDDING_API_VERSION", "AZURE_OPENAI_API_VERSION2", "AZURE_OPENAI_API_VERSION")

	if v, ok := firstEnv(lookup, "OPENAI_API_KEY"); ok {
		if cfg.Completion.Provider == "openai" && cfg.Completion.APIKey == "" {
			cfg.Completion.APIKey = v
		}
		if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
	}
}
