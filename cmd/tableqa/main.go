// Command tableqa is the entry point: it loads configuration, assembles
// the driven adapters and core services, and hands them to the CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	memorycache "github.com/sift-labs/tableqa/internal/adapters/driven/cache/memory"
	rediscache "github.com/sift-labs/tableqa/internal/adapters/driven/cache/redis"
	"github.com/sift-labs/tableqa/internal/adapters/driven/embedding"
	ollamaembed "github.com/sift-labs/tableqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/sift-labs/tableqa/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/sift-labs/tableqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/sift-labs/tableqa/internal/adapters/driven/llm/openai"
	"github.com/sift-labs/tableqa/internal/adapters/driven/partitioner/unstructured"
	"github.com/sift-labs/tableqa/internal/adapters/driven/tablestore/sqlite"
	"github.com/sift-labs/tableqa/internal/adapters/driven/vector/qdrant"
	"github.com/sift-labs/tableqa/internal/adapters/driving/cli"
	"github.com/sift-labs/tableqa/internal/adapters/driving/httpapi"
	"github.com/sift-labs/tableqa/internal/config"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
	"github.com/sift-labs/tableqa/internal/core/services"
	"github.com/sift-labs/tableqa/internal/logger"
)

func main() {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TABLEQA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	app, err := buildApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	cli.SetServices(app.ingest, app.query)
	cli.SetServeFunc(func(addr string) error {
		if addr == "" {
			addr = cfg.Server.Addr
		}
		return httpapi.NewServer(app.ingest, app.query, app.pingers()).Start(addr)
	})

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the assembled services plus the adapters that need closing.
type app struct {
	ingest *services.IngestService
	query  *services.QueryService

	partitioner driven.Partitioner
	embedder    driven.EmbeddingService
	llm         driven.LLMService
	vectors     driven.VectorIndex
	tables      driven.TableStore
	cache       driven.CacheBackend
}

// pingers exposes each backend's reachability probe to the health route.
func (a *app) pingers() httpapi.Pingers {
	return httpapi.Pingers{
		"partitioner": a.partitioner.Ping,
		"embedding":   a.embedder.Ping,
		"llm":         a.llm.Ping,
		"vectors":     a.vectors.Ping,
		"tables":      a.tables.Ping,
		"cache":       a.cache.Ping,
	}
}

func buildApp(cfg config.Config) (*app, error) {
	partitioner := unstructured.NewPartitioner(unstructured.Config{
		BaseURL: cfg.Ingest.PartitionURL,
		APIKey:  cfg.Ingest.PartitionAPIKey,
	})

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("building embedding service: %w", err)
	}

	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("building LLM service: %w", err)
	}

	vectors := qdrant.NewIndex(qdrant.Config{
		BaseURL:    cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	})

	tables, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening table store: %w", err)
	}

	cacheBackend := buildCache(cfg.Cache)
	queryCache := services.NewQueryCache(cacheBackend, cfg.CacheTTL())

	retrieval := services.RetrievalConfig{
		MaxVectorResults: cfg.Retrieval.MaxVectorResults,
		MaxTableResults:  cfg.Retrieval.MaxTableResults,
		ScoreThreshold:   cfg.Retrieval.ScoreThreshold,
		OnNoMatch:        services.NoMatchPolicy(cfg.Retrieval.OnNoMatch),
		Temperature:      cfg.Retrieval.Temperature,
	}

	return &app{
		ingest:      services.NewIngestService(partitioner, embedder, vectors, tables, nil),
		query:       services.NewQueryService(embedder, vectors, tables, llm, queryCache, retrieval),
		partitioner: partitioner,
		embedder:    embedder,
		llm:         llm,
		vectors:     vectors,
		tables:      tables,
		cache:       cacheBackend,
	}, nil
}

func buildEmbedder(cfg config.Embedding) (driven.EmbeddingService, error) {
	var inner driven.EmbeddingService

	switch cfg.Provider {
	case "openai", "":
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		inner = svc
	case "ollama":
		inner = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	return embedding.NewLimited(inner, cfg.RequestsPerSecond, 1), nil
}

func buildLLM(cfg config.LLM) (driven.LLMService, error) {
	switch cfg.Provider {
	case "openai", "":
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// buildCache returns the configured cache backend, falling back to the
// in-memory backend when Redis is configured but unreachable.
func buildCache(cfg config.Cache) driven.CacheBackend {
	if cfg.Backend != "redis" {
		return memorycache.NewCache(cfg.MaxEntries)
	}

	cache := rediscache.NewCache(rediscache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		logger.Warn("redis unreachable at %s, using in-memory cache: %v", cfg.RedisAddr, err)
		_ = cache.Close()
		return memorycache.NewCache(cfg.MaxEntries)
	}
	return cache
}

func (a *app) close() {
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.vectors != nil {
		_ = a.vectors.Close()
	}
	if a.tables != nil {
		_ = a.tables.Close()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
}
