package task_test

import (
	"context"
	"encoding/json"
	"testing"

	qport "go-courier/internal/infrastructure/queue/port"
	chat "go-courier/internal/pkg/chat/application/domain"
	"go-courier/internal/pkg/chat/application/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureServer struct {
	handlers map[string]qport.Handler
}

func (s *captureServer) Register(taskType string, h qport.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]qport.Handler)
	}
	s.handlers[taskType] = h
}

func (s *captureServer) Run(ctx context.Context) error  { return nil }
func (s *captureServer) Stop(ctx context.Context) error { return nil }

type upsertRecorder struct {
	upserts []chat.User
}

func (r *upsertRecorder) FindByExternalID(ctx context.Context, externalID string) (*chat.User, error) {
	return nil, nil
}

func (r *upsertRecorder) SearchByEmail(ctx context.Context, email, excludeExternalID string) ([]chat.User, error) {
	return nil, nil
}

func (r *upsertRecorder) Upsert(ctx context.Context, u chat.User) error {
	r.upserts = append(r.upserts, u)
	return nil
}

func TestSyncUserTaskUpsertsUser(t *testing.T) {
	srv := &captureServer{}
	users := &upsertRecorder{}
	task.RegisterSyncUserTask(srv, users)

	h, ok := srv.handlers[task.SyncUserTaskType]
	require.True(t, ok)

	username := "alice"
	payload, err := json.Marshal(task.SyncUserTaskPayload{
		ExternalID: "ext-alice",
		Email:      "alice@example.com",
		Username:   &username,
	})
	require.NoError(t, err)

	err = h(context.Background(), qport.Task{Type: task.SyncUserTaskType, Payload: payload})
	require.NoError(t, err)

	require.Len(t, users.upserts, 1)
	assert.Equal(t, "ext-alice", users.upserts[0].ExternalID)
	assert.Equal(t, "alice@example.com", users.upserts[0].Email)
	require.NotNil(t, users.upserts[0].Username)
	assert.Equal(t, "alice", *users.upserts[0].Username)
}

func TestSyncUserTaskRejectsBadPayloads(t *testing.T) {
	srv := &captureServer{}
	users := &upsertRecorder{}
	task.RegisterSyncUserTask(srv, users)
	h := srv.handlers[task.SyncUserTaskType]

	cases := map[string][]byte{
		"malformed json": []byte("{not json"),
		"missing email":  []byte(`{"externalId":"ext-a"}`),
		"missing id":     []byte(`{"email":"a@example.com"}`),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			err := h(context.Background(), qport.Task{Type: task.SyncUserTaskType, Payload: payload})
			assert.Error(t, err)
			assert.Empty(t, users.upserts)
		})
	}
}
