package http

import (
	cacheport "go-courier/internal/infrastructure/cache/port"
	"go-courier/internal/infrastructure/identity"
	"go-courier/internal/infrastructure/realtime"
	"go-courier/internal/pkg/chat/presentation/controller"
	"go-courier/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterChatRoutes registers conversation and realtime endpoints under the
// given router group. It constructs per-endpoint controllers and binds them
// directly to routes. Every route requires a verified caller identity; the
// socket endpoint verifies the credential itself before upgrading.
func RegisterChatRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, cache cacheport.Cache, registry *realtime.Registry, verifier *identity.Verifier) {
	listCtl := controller.NewListChatsController(pool)
	createCtl := controller.NewCreateChatController(pool)
	getMsgCtl := controller.NewGetMessageController(pool)
	socketCtl := controller.NewChatSocketController(pool, cache, registry, verifier)

	authed := g.Group("", middleware.RequireIdentity(verifier))

	// GET /api/v1/chats -> list the caller's conversations
	authed.GET("/chats", listCtl.Handle())

	// POST /api/v1/chats -> find or create a conversation with another user
	authed.POST("/chats", createCtl.Handle())

	// GET /api/v1/chats/:chatId/messages -> fetch conversation history
	authed.GET("/chats/:chatId/messages", getMsgCtl.Handle())

	// GET /api/v1/chat/ws -> websocket endpoint for realtime messaging
	g.GET("/chat/ws", socketCtl.Handle())
}
