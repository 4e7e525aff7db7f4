package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Retrieval pipeline
	RetrievalTopK int
	RerankTopK    int
	MaxTopK       int
	MMREnabled    bool
	MMRLambda     float64

	// Outbound call policy
	MaxRetries     int
	RetryBaseDelay time.Duration
	RequestTimeout time.Duration

	// Gemini (LLM + embeddings)
	GeminiAPIKey          string
	GeminiModel           string
	GeminiTier            string
	GoogleEmbeddingsModel string
	VectorDimensions      int
	LLMTemperature        float64
	LLMMaxTokens          int

	// Jina reranker
	JinaAPIKey      string
	JinaRerankURL   string
	JinaRerankModel string

	// Vector store
	VectorStoreDriver string // "mongo" or "memory"
	MongoURI          string
	DBName            string
	ChunksCollection  string
	VectorIndexName   string

	// Redis embedding cache
	RedisURL          string
	RedisPassword     string
	RedisDB           int
	EmbeddingCacheTTL time.Duration
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 120),

		RetrievalTopK: getEnvInt("RETRIEVAL_TOP_K", 20),
		RerankTopK:    getEnvInt("RERANK_TOP_K", 5),
		MaxTopK:       getEnvInt("MAX_TOP_K", 20),
		MMREnabled:    getEnvBool("MMR_ENABLED", false),
		MMRLambda:     getEnvFloat64("MMR_LAMBDA", 0.5),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelay: time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		VectorDimensions:      getEnvInt("VECTOR_DIM", 768),
		LLMTemperature:        getEnvFloat64("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:          getEnvInt("LLM_MAX_TOKENS", 1024),

		JinaAPIKey:      getEnv("JINA_API_KEY", ""),
		JinaRerankURL:   getEnv("JINA_RERANK_URL", "https://api.jina.ai/v1/rerank"),
		JinaRerankModel: getEnv("JINA_RERANK_MODEL", "jina-reranker-v2-base-multilingual"),

		VectorStoreDriver: getEnv("VECTOR_STORE_DRIVER", "mongo"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017/mini_rag"),
		DBName:            getEnv("DB_NAME", "mini_rag"),
		ChunksCollection:  getEnv("CHUNKS_COLLECTION", "rag_chunks"),
		VectorIndexName:   getEnv("VECTOR_INDEX_NAME", "rag_chunks_vector"),

		RedisURL:          getEnv("REDIS_URL", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		EmbeddingCacheTTL: time.Duration(getEnvInt("EMBEDDING_CACHE_TTL_SEC", 86400)) * time.Second,
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.JinaAPIKey == "" {
		return nil, fmt.Errorf("JINA_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	if cfg.VectorStoreDriver != "mongo" && cfg.VectorStoreDriver != "memory" {
		return nil, fmt.Errorf("unknown VECTOR_STORE_DRIVER: %s", cfg.VectorStoreDriver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
