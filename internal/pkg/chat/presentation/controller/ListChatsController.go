package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-courier/internal/pkg/chat/application/usecase"
	"go-courier/internal/pkg/chat/persistence/repository/adapter"
	"go-courier/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListChatsController returns the caller's conversations, most recent first
// (one controller per endpoint).
type ListChatsController struct {
	UC *usecase.ListChatsUseCase
}

func NewListChatsController(pool *pgxpool.Pool) *ListChatsController {
	repo := adapter.NewPgChatRepository(pool)
	return &ListChatsController{UC: usecase.NewListChatsUseCase(repo)}
}

func (h *ListChatsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID := middleware.CallerIdentity(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		chats, err := h.UC.Execute(ctx, callerID)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(chats))
		for _, s := range chats {
			item := gin.H{
				"chatId":    s.ChatID,
				"updatedAt": s.UpdatedAt,
				"otherUser": gin.H{
					"externalId": s.OtherUser.ExternalID,
					"username":   s.OtherUser.Username,
					"imageUrl":   s.OtherUser.ImageURL,
				},
			}
			if s.LastMessage != nil {
				item["lastMessage"] = gin.H{
					"id":        s.LastMessage.ID,
					"chatId":    s.LastMessage.ConversationID,
					"senderId":  s.LastMessage.SenderID,
					"text":      s.LastMessage.Text,
					"createdAt": s.LastMessage.CreatedAt,
				}
			}
			out = append(out, item)
		}

		c.JSON(http.StatusOK, out)
	}
}
