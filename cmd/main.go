package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mini-rag-backend/internal/ai"
	"mini-rag-backend/internal/config"
	"mini-rag-backend/internal/logger"
	"mini-rag-backend/internal/telemetry"
	"mini-rag-backend/internal/tokenizer"
	"mini-rag-backend/internal/vectorstore"
	"mini-rag-backend/internal/vectorstore/memory"
	"mini-rag-backend/internal/vectorstore/mongodb"
	"mini-rag-backend/middleware"
	"mini-rag-backend/routes"
	"mini-rag-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Initialize tracing
	shutdownTracer, err := telemetry.InitTracer("mini-rag-backend")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	ctx := context.Background()

	// Vector store: Atlas vector search in production, in-memory for
	// local runs without a cluster
	var store vectorstore.Store
	if cfg.VectorStoreDriver == "mongo" {
		mongoClient, err := config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()

		collection := mongoClient.Database(cfg.DBName).Collection(cfg.ChunksCollection)
		store, err = mongodb.NewStore(collection, cfg.VectorIndexName, cfg.VectorDimensions)
		if err != nil {
			log.Fatal("Failed to initialize vector store:", err)
		}
	} else {
		store, err = memory.NewStore(cfg.VectorDimensions)
		if err != nil {
			log.Fatal("Failed to initialize vector store:", err)
		}
		logger.Warn("Using in-memory vector store, index is lost on restart")
	}

	// Embedding cache is optional; a missing Redis only costs API calls
	var cache *redis.Client
	if redisClient, err := config.NewRedisClient(cfg); err != nil {
		logger.Warn("Running without embedding cache", "error", err)
	} else {
		cache = redisClient
		defer cache.Close()
	}

	embedder, err := ai.NewEmbeddingClient(ctx, cfg, cache)
	if err != nil {
		log.Fatal("Failed to initialize embedding client:", err)
	}
	defer embedder.Close()

	llm, err := ai.NewLLMClient(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize LLM client:", err)
	}
	defer llm.Close()

	rerankClient, err := ai.NewRerankClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize rerank client:", err)
	}

	chunker := services.NewTextChunker(cfg.ChunkSize, cfg.ChunkOverlap, tokenizer.NewEstimator())
	retrieval := services.NewRetrievalService(embedder, store, cfg.MMREnabled, cfg.MMRLambda)
	reranker := services.NewRerankerService(rerankClient)
	answerer := services.NewAnswerService(llm)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Health check endpoints
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "mini-rag-backend", "status": "ok"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupIngestRoutes(router, cfg, chunker, embedder, store, metrics)
	routes.SetupQueryRoutes(router, cfg, retrieval, reranker, answerer, metrics)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout * 2,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "vector_store", cfg.VectorStoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
