package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"askdocs/internal/db"
	"askdocs/internal/handlers"
	"askdocs/internal/repositories"
	"askdocs/internal/routes"
	"askdocs/internal/services"
	"askdocs/internal/workers"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func NewServer() *http.Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	docRepo, jobRepo := initializeRedisRepositories(logger)
	vectorRepo := initializeVectorRepository(logger)

	// Core service layer
	embedder := services.NewOllamaEmbeddingClient(os.Getenv("EMBEDDING_BASE_URL"), os.Getenv("EMBEDDING_MODEL"))
	llm := services.NewLLMService(os.Getenv("LLM_BASE_URL"), os.Getenv("LLM_MODEL"))

	splitter, err := services.NewSplitter(getChunkingConfig())
	if err != nil {
		logger.Fatalf("❌ Invalid chunking configuration: %v", err)
	}

	indexName := os.Getenv("INDEX_NAME")
	if indexName == "" {
		indexName = "askdocs"
	}

	index := services.NewIndexService(embedder, vectorRepo, indexName, logger)
	answerer := services.NewAnswerService(index, llm, logger)
	router := services.NewRouterService(llm, logger)
	writer := services.NewWriterService(llm, logger)
	dispatcher := services.NewDispatcherService(router, answerer, writer, services.DefaultToolCatalog(), logger)

	fetcher := services.NewDocumentFetcher(logger)
	keywords := services.NewKeywordExtractor()
	ingest := services.NewIngestService(fetcher, splitter, keywords, index, docRepo, logger)

	// Background workers for async job processing
	pool := workers.NewWorkerPool()
	pool.AddWorker(workers.NewIngestWorker(workers.DefaultWorkerConfig("ingest-worker-1"), jobRepo, docRepo, ingest, logger))
	if err := pool.StartAll(context.Background()); err != nil {
		logger.Printf("⚠️  Failed to start workers: %v", err)
	} else {
		logger.Println("✅ Background workers started for async job processing")
	}

	h := &routes.Handlers{
		Health: handlers.HealthCheckHandler,
		Home:   handlers.HomeHandler,

		SearchHandler:   handlers.NewSearchHandler(index, logger),
		ChatHandler:     handlers.NewChatHandler(answerer, dispatcher, logger),
		DocumentHandler: handlers.NewDocumentHandler(ingest, docRepo, jobRepo, pool, logger),
	}

	muxRouter := mux.NewRouter()
	routes.RegisterRoutes(muxRouter, h)

	// Add Swagger endpoints
	muxRouter.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // The url pointing to API definition
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &http.Server{
		Addr:    ":" + port,
		Handler: corsMiddleware(muxRouter),
	}
}

// initializeRedisRepositories connects to Redis and builds the document
// registry and job queue. Redis is required; without it neither the
// registry nor async ingestion can work.
func initializeRedisRepositories(logger *log.Logger) (repositories.DocumentRepository, repositories.JobRepository) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisConfig := getRedisConfig()
	logger.Printf("Connecting to Redis: %s:%d (DB: %d)", redisConfig.Host, redisConfig.Port, redisConfig.DB)

	redisClient, err := db.NewRedisClient(redisConfig)
	if err != nil {
		logger.Fatalf("❌ Failed to create Redis client: %v", err)
	}

	if err := redisClient.Ping(ctx); err != nil {
		logger.Printf("❌ Redis connection failed: %v", err)
		logger.Println("   Hint: Ensure Redis is running (docker run -d -p 6379:6379 redis:7-alpine)")
		logger.Fatalln("   Cannot continue without the document registry")
	}
	logger.Println("✅ Redis connected successfully")

	return repositories.NewRedisDocumentRepository(redisClient.GetClient()),
		repositories.NewRedisJobRepository(redisClient.GetClient())
}

// initializeVectorRepository selects the vector store backend. ChromaDB is
// preferred; when it is unreachable, or VECTOR_BACKEND=memory is set, the
// in-process store is used instead.
func initializeVectorRepository(logger *log.Logger) repositories.VectorRepository {
	if os.Getenv("VECTOR_BACKEND") == "memory" {
		logger.Println("Using in-memory vector store (VECTOR_BACKEND=memory)")
		return repositories.NewMemoryVectorRepository()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chromaConfig := getChromaConfig()
	logger.Printf("Connecting to ChromaDB: %s:%d", chromaConfig.Host, chromaConfig.Port)

	chromaClient := db.NewChromaClient(chromaConfig)
	if err := chromaClient.Heartbeat(ctx); err != nil {
		logger.Printf("⚠️  ChromaDB connection failed: %v", err)
		logger.Println("   Hint: Ensure ChromaDB is running (docker run -d -p 8000:8000 chromadb/chroma)")
		logger.Println("   Falling back to the in-memory vector store; the index will not survive restarts")
		return repositories.NewMemoryVectorRepository()
	}
	logger.Println("✅ ChromaDB connected successfully")

	return repositories.NewChromaVectorRepository(chromaClient)
}

// getRedisConfig reads Redis configuration from environment variables
func getRedisConfig() db.RedisConfig {
	config := db.DefaultRedisConfig()

	if host := os.Getenv("REDIS_HOST"); host != "" {
		config.Host = host
	}

	if portStr := os.Getenv("REDIS_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			config.Port = port
		}
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Password = password
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if dbNum, err := strconv.Atoi(dbStr); err == nil {
			config.DB = dbNum
		}
	}

	if poolSizeStr := os.Getenv("REDIS_POOL_SIZE"); poolSizeStr != "" {
		if poolSize, err := strconv.Atoi(poolSizeStr); err == nil {
			config.PoolSize = poolSize
		}
	}

	return config
}

// getChromaConfig reads ChromaDB configuration from environment variables
func getChromaConfig() db.ChromaConfig {
	config := db.DefaultChromaConfig()

	if host := os.Getenv("CHROMA_HOST"); host != "" {
		config.Host = host
	}

	if portStr := os.Getenv("CHROMA_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			config.Port = port
		}
	}

	if tenant := os.Getenv("CHROMA_TENANT"); tenant != "" {
		config.Tenant = tenant
	}

	if database := os.Getenv("CHROMA_DATABASE"); database != "" {
		config.Database = database
	}

	return config
}

// getChunkingConfig reads splitter configuration from environment variables
func getChunkingConfig() (int, int) {
	chunkSize := services.DefaultChunkSize
	chunkOverlap := services.DefaultChunkOverlap

	if sizeStr := os.Getenv("CHUNK_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil {
			chunkSize = size
		}
	}
	if overlapStr := os.Getenv("CHUNK_OVERLAP"); overlapStr != "" {
		if overlap, err := strconv.Atoi(overlapStr); err == nil {
			chunkOverlap = overlap
		}
	}

	return chunkSize, chunkOverlap
}
