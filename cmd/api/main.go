package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rag-chat/internal/config"
	"rag-chat/internal/db"
	apihttp "rag-chat/internal/http"
	"rag-chat/internal/llm"
	"rag-chat/internal/repository"
	"rag-chat/internal/search"
	"rag-chat/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	cfg.WarnMissing(logger)

	// Storage: Postgres si hay DATABASE_URL, memoria si no.
	var (
		userRepo         repository.UserRepository
		conversationRepo repository.ConversationRepository
		messageRepo      repository.MessageRepository
		documentRepo     repository.DocumentRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()

		userRepo = repository.NewPgUserRepository(pool)
		conversationRepo = repository.NewPgConversationRepository(pool)
		messageRepo = repository.NewPgMessageRepository(pool)
		documentRepo = repository.NewPgDocumentRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		store := repository.NewMemoryStore()
		userRepo = store
		conversationRepo = store
		messageRepo = store.Messages()
	}

	user, err := userRepo.EnsureDefault(ctx)
	if err != nil {
		logger.Fatal("ensure default user", zap.Error(err))
	}
	logger.Info("default user ready", zap.Int64("user_id", user.ID))

	llmClient := llm.NewAzureClient(
		cfg.OpenAIEndpoint,
		cfg.OpenAIAPIKey,
		cfg.OpenAIDeploymentName,
		cfg.OpenAIEmbeddingDeployment,
		cfg.OpenAIAPIVersion,
		logger,
	)

	searcher := newSearchProvider(cfg, documentRepo, llmClient, logger)

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, search cache disabled", zap.Error(err))
		} else {
			searcher = search.NewCachedProvider(searcher, redisClient, 5*time.Minute, logger)
		}
		cancel()
	}

	chatSvc := service.NewChatService(conversationRepo, messageRepo, searcher, llmClient, logger)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	router := apihttp.NewRouter(logger, chatHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("environment", cfg.Environment),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if cfg.Environment == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// newSearchProvider elige el provider: Azure Search si está configurado,
// pgvector local si hay base de datos, deshabilitado en el resto de casos.
func newSearchProvider(cfg *config.Config, docs repository.DocumentRepository, embedder llm.Embedder, logger *zap.Logger) search.Provider {
	azure := search.NewAzureClient(cfg.SearchEndpoint, cfg.SearchAPIKey, cfg.SearchIndexName, logger)
	if azure.Configured() {
		return azure
	}
	if docs != nil {
		logger.Info("azure search not configured, using local pgvector search")
		return search.NewPgVectorProvider(docs, embedder, logger)
	}
	logger.Warn("no search provider configured, chat will run without retrieved context")
	return search.Disabled{}
}
