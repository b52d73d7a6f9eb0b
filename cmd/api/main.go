package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"go-courier/cmd/api/router/v1"
	"go-courier/db"
	cacheAdapter "go-courier/internal/infrastructure/cache/adapter"
	cacheport "go-courier/internal/infrastructure/cache/port"
	"go-courier/internal/infrastructure/database"
	"go-courier/internal/infrastructure/identity"
	queueAdapter "go-courier/internal/infrastructure/queue/adapter"
	qport "go-courier/internal/infrastructure/queue/port"
	"go-courier/internal/infrastructure/realtime"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	if err := database.Migrate(os.Getenv("DB_URL"), db.MigrationsFS, "migrations"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	verifier, err := identity.NewVerifierFromEnv()
	if err != nil {
		log.Fatalf("failed to configure identity verifier: %v", err)
	}

	// The cache is a read-side optimization; run without it when Redis is
	// unavailable.
	var cache cacheport.Cache
	if redisCache, err := cacheAdapter.NewRedisAdapter(); err != nil {
		log.Printf("Warning: cache disabled: %v", err)
	} else {
		cache = redisCache
		defer redisCache.Close()
	}

	// The queue client serves the identity webhook; without it the webhook
	// route is not registered and users must be provisioned out of band.
	var queueClient qport.Client
	if asynqClient, err := queueAdapter.NewAsynqClientFromEnv(); err != nil {
		log.Printf("Warning: task queue disabled: %v", err)
	} else {
		queueClient = asynqClient
		defer asynqClient.Close()
	}

	registry := realtime.NewRegistry()
	defer registry.Close()

	r := gin.Default()

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, pool, cache, queueClient, registry, verifier)

	// Start HTTP server (blocks until shutdown)
	if err := r.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
