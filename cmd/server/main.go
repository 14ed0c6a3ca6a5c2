package main

import (
	"context"
	"flag"
	"log"

	"lawconsult-backend/config"
	"lawconsult-backend/handlers"
	"lawconsult-backend/llm"
	"lawconsult-backend/repository"
	"lawconsult-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	// Load .env from the working directory or the project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := initPostgres(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Postgres", zap.Error(err))
	}
	defer db.Close()

	geminiClient, err := llm.NewClient(context.Background(), llm.Config{
		APIKey:          cfg.Gemini.APIKey,
		GenerationModel: cfg.Gemini.GenerationModel,
		EmbeddingModel:  cfg.Gemini.EmbeddingModel,
		EmbeddingDims:   cfg.Gemini.EmbeddingDims,
	})
	if err != nil {
		logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}
	defer geminiClient.Close()

	// Repositories
	documentRepo := repository.NewDocumentRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)

	// Pipeline services
	classifier := service.NewClassifier(geminiClient, logger)
	retriever := service.NewRetriever(documentRepo, logger)
	consultService := service.NewConsultService(
		service.WithClassifier(classifier),
		service.WithRetriever(retriever),
		service.WithEmbedder(geminiClient),
		service.WithGenerator(geminiClient),
		service.WithLogger(logger),
	)

	// Handlers
	consultHandler := handlers.NewConsultHandler(consultService, consultationRepo, logger)
	historyHandler := handlers.NewHistoryHandler(consultationRepo, logger)

	// Setup Gin router
	r := gin.Default()
	r.Use(handlers.CORS([]string{"*"}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/consult", consultHandler.Consult)
		api.GET("/history", historyHandler.List)
		api.DELETE("/history/:id", handlers.AdminAuth(cfg.Admin.KeyHash), historyHandler.Delete)
	}

	logger.Info("Server starting", zap.String("address", cfg.Address()))
	if err := r.Run(cfg.Address()); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func initPostgres(connString string, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		logger.Warn("Failed to create pgvector extension, it may already exist or require superuser privileges",
			zap.Error(err))
	}

	logger.Info("Postgres connection established with pgvector support")
	return pool, nil
}
