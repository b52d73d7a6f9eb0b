package http

import (
	"os"

	cacheport "go-courier/internal/infrastructure/cache/port"
	"go-courier/internal/infrastructure/identity"
	qport "go-courier/internal/infrastructure/queue/port"
	"go-courier/internal/pkg/chat/presentation/controller"
	"go-courier/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterUserRoutes registers user discovery and identity-provider webhook
// endpoints. The webhook is authenticated by HMAC signature instead of a
// bearer credential, so it sits outside the identity middleware.
func RegisterUserRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, cache cacheport.Cache, client qport.Client, verifier *identity.Verifier) {
	searchCtl := controller.NewSearchUsersController(pool, cache)

	// GET /api/v1/users/search?email= -> find users to start a conversation with
	g.GET("/users/search", middleware.RequireIdentity(verifier), searchCtl.Handle())

	if client != nil {
		webhookCtl := controller.NewIdentityWebhookController(client, os.Getenv("WEBHOOK_SECRET"))

		// POST /api/v1/webhooks/identity -> identity provider user events
		g.POST("/webhooks/identity", webhookCtl.Handle())
	}
}
