package v1

import (
	cacheport "go-courier/internal/infrastructure/cache/port"
	"go-courier/internal/infrastructure/identity"
	qport "go-courier/internal/infrastructure/queue/port"
	"go-courier/internal/infrastructure/realtime"
	httpHandler "go-courier/internal/pkg/chat/presentation/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, cache cacheport.Cache, client qport.Client, registry *realtime.Registry, verifier *identity.Verifier) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterChatRoutes(v1, pool, cache, registry, verifier)
	httpHandler.RegisterUserRoutes(v1, pool, cache, client, verifier)
}
