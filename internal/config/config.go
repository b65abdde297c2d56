package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the Forkcast recommendation service.
type Config struct {
	Port        int
	Version     string
	CORSOrigins string
	LogFile     string

	LLM        LLMConfig
	Embeddings EmbeddingsConfig
	Store      StoreConfig
	Catalog    CatalogConfig
	Limits     LimitsConfig
	Telemetry  TelemetryConfig
}

type LLMConfig struct {
	// APIKey is optional. When empty the service starts in heuristic-only
	// mode: no LLM calls, keyword analysis and static query plans.
	APIKey    string
	Provider  string // gemini | openai
	ModelName string
	TimeoutMs int
}

type EmbeddingsConfig struct {
	Provider   string // local | openai
	ServiceURL string // local microservice base URL
	APIKey     string // hosted providers only
	ModelName  string
}

type StoreConfig struct {
	// URL scheme picks the driver: http(s):// Qdrant, postgres:// pgvector,
	// memory:// embedded. Required; startup fails without it.
	URL string
}

type CatalogConfig struct {
	// ClassifiedRecipesPath points at the ingestion pipeline's output:
	// a JSON map of recipe_id to classification metadata. Required.
	ClassifiedRecipesPath string
}

type LimitsConfig struct {
	MaxParallelSearches int
	MaxInflightRequests int
	RequestTimeoutMs    int
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        envInt("FORKCAST_PORT", 8080),
		Version:     envStr("FORKCAST_VERSION", "0.4.0"),
		CORSOrigins: envStr("FORKCAST_CORS_ORIGINS", "*"),
		LogFile:     envStr("FORKCAST_LOG_FILE", ""),
		LLM: LLMConfig{
			APIKey:    envStr("LLM_API_KEY", ""),
			Provider:  envStr("LLM_PROVIDER", "gemini"),
			ModelName: envStr("LLM_MODEL_NAME", "gemini-2.5-flash"),
			TimeoutMs: envInt("LLM_TIMEOUT_MS", 30000),
		},
		Embeddings: EmbeddingsConfig{
			Provider:   envStr("EMBEDDING_PROVIDER", "local"),
			ServiceURL: envStr("EMBEDDING_SERVICE_URL", "http://localhost:8081"),
			APIKey:     envStr("EMBEDDING_API_KEY", ""),
			ModelName:  envStr("EMBEDDING_MODEL_NAME", "all-mpnet-base-v2"),
		},
		Store: StoreConfig{
			URL: envStr("VECTOR_STORE_URL", ""),
		},
		Catalog: CatalogConfig{
			ClassifiedRecipesPath: envStr("CLASSIFIED_RECIPES_PATH", ""),
		},
		Limits: LimitsConfig{
			MaxParallelSearches: envInt("MAX_PARALLEL_SEARCHES", 16),
			MaxInflightRequests: envInt("MAX_INFLIGHT_REQUESTS", 64),
			RequestTimeoutMs:    envInt("REQUEST_TIMEOUT_MS", 30000),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "forkcast"),
		},
	}
}

// HeuristicOnly reports whether the service runs without an LLM.
func (c *Config) HeuristicOnly() bool {
	return c.LLM.APIKey == ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
