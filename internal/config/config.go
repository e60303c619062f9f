// Package config loads the application configuration from a TOML file
// with environment variable overrides for secrets and deployment targets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root configuration.
type Config struct {
	Ingest    Ingest    `toml:"ingest"`
	Retrieval Retrieval `toml:"retrieval"`
	Embedding Embedding `toml:"embedding"`
	LLM       LLM       `toml:"llm"`
	Qdrant    Qdrant    `toml:"qdrant"`
	Storage   Storage   `toml:"storage"`
	Cache     Cache     `toml:"cache"`
	Server    Server    `toml:"server"`
}

// Ingest configures document partitioning.
type Ingest struct {
	// PartitionURL is the Unstructured partition API endpoint.
	PartitionURL string `toml:"partition_url"`

	// PartitionAPIKey authenticates against the hosted partition API.
	PartitionAPIKey string `toml:"partition_api_key"`

	// Strategy is the default partitioning strategy (auto, fast, hi_res).
	Strategy string `toml:"strategy"`
}

// Retrieval configures the two-stage retrieval policy.
type Retrieval struct {
	// MaxVectorResults is k for the similarity search stage.
	MaxVectorResults int `toml:"max_vector_results"`

	// MaxTableResults caps the scoped table lookup.
	MaxTableResults int `toml:"max_table_results"`

	// ScoreThreshold drops vector hits below this similarity.
	ScoreThreshold float64 `toml:"score_threshold"`

	// OnNoMatch is the table policy when no document is identified:
	// "unfiltered" or "none".
	OnNoMatch string `toml:"on_no_match"`

	// Temperature for answer generation.
	Temperature float64 `toml:"temperature"`
}

// Embedding configures the embedding provider.
type Embedding struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`

	// RequestsPerSecond rate-limits embedding calls; 0 disables.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLM configures the answer-generation provider.
type LLM struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// Qdrant configures the vector index.
type Qdrant struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
}

// Storage configures the table store.
type Storage struct {
	// DataDir is the directory for the SQLite database.
	// Empty means ~/.tableqa/data.
	DataDir string `toml:"data_dir"`
}

// Cache configures the query cache.
type Cache struct {
	// Backend is "memory" or "redis".
	Backend string `toml:"backend"`

	// TTLSeconds is the entry lifetime (default 3600).
	TTLSeconds int `toml:"ttl_seconds"`

	// MaxEntries bounds the memory backend.
	MaxEntries int `toml:"max_entries"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Server configures the HTTP API.
type Server struct {
	// Addr is the listen address (default :8080).
	Addr string `toml:"addr"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Ingest: Ingest{
			PartitionURL: "http://localhost:8000",
			Strategy:     "auto",
		},
		Retrieval: Retrieval{
			MaxVectorResults: 3,
			MaxTableResults:  5,
			ScoreThreshold:   0.0,
			OnNoMatch:        "unfiltered",
			Temperature:      0.0,
		},
		Embedding: Embedding{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		LLM: LLM{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Qdrant: Qdrant{
			URL:        "http://localhost:6333",
			Collection: "document_chunks",
		},
		Cache: Cache{
			Backend:    "memory",
			TTLSeconds: 3600,
			MaxEntries: 1000,
			RedisAddr:  "localhost:6379",
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load reads the configuration at path, falling back to
// ~/.tableqa/config.toml when path is empty, then applies environment
// overrides. A missing file is not an error: defaults plus environment
// are a complete configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".tableqa", "config.toml")
		}
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// CacheTTL returns the cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// applyEnv overrides file values with environment variables. Secrets are
// expected to arrive this way rather than living in the config file.
func (c *Config) applyEnv() {
	setString(&c.Ingest.PartitionURL, "TABLEQA_PARTITION_URL")
	setString(&c.Ingest.PartitionAPIKey, "UNSTRUCTURED_API_KEY")
	setString(&c.Embedding.APIKey, "OPENAI_API_KEY")
	setString(&c.Embedding.BaseURL, "TABLEQA_EMBEDDING_URL")
	setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.BaseURL, "TABLEQA_LLM_URL")
	setString(&c.Qdrant.URL, "QDRANT_URL")
	setString(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&c.Cache.Backend, "TABLEQA_CACHE_BACKEND")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.Cache.RedisDB, "REDIS_DB")
	setString(&c.Server.Addr, "TABLEQA_SERVER_ADDR")
	setString(&c.Storage.DataDir, "TABLEQA_DATA_DIR")
}

func setString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func setInt(target *int, key string) {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			*target = n
		}
	}
}
