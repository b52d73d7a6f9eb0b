package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	cacheport "go-courier/internal/infrastructure/cache/port"
	"go-courier/internal/pkg/chat/application/usecase"
	"go-courier/internal/pkg/chat/persistence/repository/adapter"
	repoport "go-courier/internal/pkg/chat/persistence/repository/port"
	"go-courier/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchUsersController finds users by email substring so the caller can
// start a new conversation (one controller per endpoint).
type SearchUsersController struct {
	UC *usecase.SearchUsersUseCase
}

func NewSearchUsersController(pool *pgxpool.Pool, cache cacheport.Cache) *SearchUsersController {
	var users repoport.UserRepository = adapter.NewPgUserRepository(pool)
	if cache != nil {
		users = adapter.NewCachedUserRepository(users, cache)
	}
	return &SearchUsersController{UC: usecase.NewSearchUsersUseCase(users)}
}

func (h *SearchUsersController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
			return
		}

		in := usecase.SearchUsersInput{
			Email:            email,
			CallerExternalID: middleware.CallerIdentity(c),
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		users, err := h.UC.Execute(ctx, in)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(users))
		for _, u := range users {
			out = append(out, gin.H{
				"id":         u.ID,
				"externalId": u.ExternalID,
				"email":      u.Email,
				"username":   u.Username,
				"imageUrl":   u.ImageURL,
			})
		}

		c.JSON(http.StatusOK, out)
	}
}
