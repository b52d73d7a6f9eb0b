package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	chat "go-courier/internal/pkg/chat/application/domain"
	"go-courier/internal/pkg/chat/application/usecase"
	"go-courier/internal/pkg/chat/persistence/repository/adapter"
	"go-courier/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateChatController opens (or returns) the 1:1 conversation between the
// caller and another user. Calling it twice for the same pair yields the same
// conversation (one controller per endpoint).
type CreateChatController struct {
	UC *usecase.GetOrCreateChatUseCase
}

func NewCreateChatController(pool *pgxpool.Pool) *CreateChatController {
	chats := adapter.NewPgChatRepository(pool)
	users := adapter.NewPgUserRepository(pool)
	return &CreateChatController{UC: usecase.NewGetOrCreateChatUseCase(chats, users)}
}

type createChatRequest struct {
	OtherUserID string `json:"otherUserId" binding:"required"`
}

func (h *CreateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := usecase.GetOrCreateChatInput{
			CallerExternalID: middleware.CallerIdentity(c),
			OtherExternalID:  req.OtherUserID,
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, in)
		if err != nil {
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, chat.ErrUserNotFound):
				status = http.StatusNotFound
			case errors.Is(err, usecase.ErrPersistence):
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":        conv.ID,
			"createdAt": conv.CreatedAt,
			"updatedAt": conv.UpdatedAt,
		})
	}
}
