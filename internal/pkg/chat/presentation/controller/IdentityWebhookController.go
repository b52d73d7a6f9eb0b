package controller

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	qport "go-courier/internal/infrastructure/queue/port"
	"go-courier/internal/pkg/chat/application/task"

	"github.com/gin-gonic/gin"
)

// IdentityWebhookController receives identity-provider webhook events and
// enqueues user provisioning work. The endpoint is authenticated by an HMAC
// signature over the raw body rather than a bearer credential.
type IdentityWebhookController struct {
	Q      qport.Client
	secret []byte
}

func NewIdentityWebhookController(client qport.Client, secret string) *IdentityWebhookController {
	return &IdentityWebhookController{Q: client, secret: []byte(secret)}
}

type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID       string  `json:"id"`
		Email    string  `json:"email"`
		Username *string `json:"username"`
		ImageURL *string `json:"imageUrl"`
	} `json:"data"`
}

// Handle verifies the signature, then enqueues a sync task for user events.
// Unknown event types are acknowledged without action so the provider does
// not keep redelivering them.
func (h *IdentityWebhookController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if !h.validSignature(body, c.GetHeader("X-Webhook-Signature")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			return
		}

		var evt identityEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		switch evt.Type {
		case "user.created", "user.updated":
			if evt.Data.ID == "" || evt.Data.Email == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "id and email are required"})
				return
			}

			payload, err := json.Marshal(task.SyncUserTaskPayload{
				ExternalID: evt.Data.ID,
				Email:      evt.Data.Email,
				Username:   evt.Data.Username,
				ImageURL:   evt.Data.ImageURL,
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task payload"})
				return
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()

			opts := qport.EnqueueOption{Queue: "identity", MaxRetry: 10}
			if _, err := h.Q.Enqueue(ctx, qport.Task{Type: task.SyncUserTaskType, Payload: payload}, opts); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue user sync"})
				return
			}

			c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		default:
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		}
	}
}

func (h *IdentityWebhookController) validSignature(body []byte, signature string) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
