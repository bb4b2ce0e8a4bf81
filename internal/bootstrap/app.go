package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/debarghya18/local-RAG/internal/ai"
	"github.com/debarghya18/local-RAG/internal/app"
	"github.com/debarghya18/local-RAG/internal/cache"
	"github.com/debarghya18/local-RAG/internal/config"
	"github.com/debarghya18/local-RAG/internal/model"
	mysqlClient "github.com/debarghya18/local-RAG/internal/platform/mysql"
	rabbitmqClient "github.com/debarghya18/local-RAG/internal/platform/rabbitmq"
	redisClient "github.com/debarghya18/local-RAG/internal/platform/redis"
	"github.com/debarghya18/local-RAG/internal/rag"
	"github.com/debarghya18/local-RAG/internal/repository"
	"github.com/debarghya18/local-RAG/internal/worker"
)

type App struct {
	Config       *config.Config
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	RAG          *app.RAGService
	IngestWorker *worker.IngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.DocumentEmbedding{},
		&model.RAGSession{},
		&model.SessionDocument{},
		&model.RAGQuery{},
		&model.RAGConfiguration{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	llmClient := ai.NewClient(ai.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Timeout: time.Duration(cfg.LLM.RequestTimeoutSec) * time.Second,
	})

	providers := rag.NewProviderCache(
		time.Duration(cfg.LLM.ProviderTTLSec)*time.Second,
		buildProvider(cfg, llmClient),
	)
	// Resolve the default identity eagerly so the variant decision happens at
	// startup, not on the first request.
	if p, err := providers.Get(ctx, cfg.LLM.EmbeddingModel); err == nil {
		status := p.Status()
		log.Printf("embedding provider ready: variant=%s model=%s dimension=%d", status.Variant, status.ModelID, status.Dimension)
	}

	var generator rag.Generator
	if cfg.LLM.EnableGeneration && cfg.LLM.APIKey != "" {
		generator = &llmGenerator{client: llmClient, modelID: cfg.LLM.Model}
	}

	historyCache := cache.NewQueryHistoryCache(redisCli, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)

	ragService := app.NewRAGService(app.RAGServiceDeps{
		Documents: repository.NewDocumentRepository(mysqlDB),
		Chunks:    repository.NewChunkRepository(mysqlDB),
		Vectors:   repository.NewEmbeddingRepository(mysqlDB),
		Sessions:  repository.NewRAGSessionRepository(mysqlDB),
		Queries:   repository.NewRAGQueryRepository(mysqlDB),
		Configs:   repository.NewRAGConfigRepository(mysqlDB),
		History:   historyCache,
		Publisher: rabbitmqClient.NewIngestPublisher(mqConn, cfg.RabbitMQ.IngestQueue),
		Providers: providers,
		Composer:  rag.NewComposer(generator),
		Defaults: model.RAGConfiguration{
			ModelName:           cfg.LLM.EmbeddingModel,
			ChunkSize:           cfg.RAG.ChunkSize,
			ChunkOverlap:        cfg.RAG.ChunkOverlap,
			MaxTokens:           cfg.RAG.MaxTokens,
			Temperature:         cfg.RAG.Temperature,
			TopK:                cfg.RAG.TopK,
			SimilarityThreshold: cfg.RAG.SimilarityThreshold,
		},
		EmbedBatchSize: cfg.RAG.EmbedBatchSize,
	})

	ingestWorker := worker.NewIngestWorker(mqConn, ragService, cfg.RabbitMQ.IngestQueue)
	if err := ingestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	return &App{
		Config:       cfg,
		MySQL:        mysqlDB,
		Redis:        redisCli,
		MQConn:       mqConn,
		RAG:          ragService,
		IngestWorker: ingestWorker,
		StartedAt:    time.Now(),
	}, nil
}

// buildProvider selects the embedding variant for a model identity. With no
// API key configured the deterministic term-frequency embedder is used; a
// failed backend probe also degrades to it rather than failing the build.
func buildProvider(cfg *config.Config, client *ai.Client) rag.BuildProviderFunc {
	return func(ctx context.Context, modelID string) (rag.VectorProvider, error) {
		if cfg.LLM.APIKey == "" {
			return rag.NewFallbackProvider(), nil
		}
		provider, err := rag.NewModelProvider(ctx, client, modelID)
		if err != nil {
			log.Printf("embedding model %s unreachable, using fallback: %v", modelID, err)
			return rag.NewFallbackProvider(), nil
		}
		return provider, nil
	}
}

// llmGenerator adapts the chat-completion client to the composer's generator
// contract.
type llmGenerator struct {
	client  *ai.Client
	modelID string
}

func (g *llmGenerator) Generate(ctx context.Context, query, contextBlock string, opts rag.GenerateOptions) (string, error) {
	messages := []ai.ChatMessage{
		{
			Role:    "system",
			Content: "You are a helpful assistant. Answer the user's question based only on the following context. If the context does not contain enough information, say so. Do not make up facts.",
		},
		{
			Role:    "user",
			Content: "Context:\n" + contextBlock + "\n\nQuestion: " + query + "\n\nAnswer:",
		},
	}
	answer, err := g.client.Complete(ctx, g.modelID, messages, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
