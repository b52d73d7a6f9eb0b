package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	qport "go-courier/internal/infrastructure/queue/port"
	chat "go-courier/internal/pkg/chat/application/domain"
	repository "go-courier/internal/pkg/chat/persistence/repository/port"
)

// SyncUserTaskType is the queue task name for provisioning a user record
// from an identity-provider webhook event.
const SyncUserTaskType = "chat:sync_user"

// SyncUserTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SyncUserTaskPayload struct {
	ExternalID string  `json:"externalId"`
	Email      string  `json:"email"`
	Username   *string `json:"username"`
	ImageURL   *string `json:"imageUrl"`
}

// RegisterSyncUserTask binds the task handler to the provided server. The
// handler upserts the user via the repository; the upsert is idempotent, so
// queue redelivery is harmless.
func RegisterSyncUserTask(srv qport.Server, users repository.UserRepository) {
	srv.Register(SyncUserTaskType, func(ctx context.Context, t qport.Task) error {
		var p SyncUserTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}
		if p.ExternalID == "" || p.Email == "" {
			return fmt.Errorf("sync user: externalId and email are required")
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return users.Upsert(ctx, chat.User{
			ExternalID: p.ExternalID,
			Email:      p.Email,
			Username:   p.Username,
			ImageURL:   p.ImageURL,
		})
	})
}
