package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go-courier/internal/infrastructure/database"
	queueAdapter "go-courier/internal/infrastructure/queue/adapter"
	"go-courier/internal/pkg/chat/application/task"
	repoAdapter "go-courier/internal/pkg/chat/persistence/repository/adapter"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	srv, err := queueAdapter.NewAsynqServer()
	if err != nil {
		log.Fatalf("failed to start task server: %v", err)
	}

	task.RegisterSyncUserTask(srv, repoAdapter.NewPgUserRepository(pool))

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("worker started")
	if err := srv.Run(runCtx); err != nil {
		log.Fatalf("worker exited: %v", err)
	}
}
