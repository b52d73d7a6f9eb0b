package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go-courier/internal/infrastructure/identity"
	"go-courier/internal/infrastructure/realtime"
	chat "go-courier/internal/pkg/chat/application/domain"
	"go-courier/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeChatRepo struct {
	conversations map[string]*chat.Conversation
	createErr     error
	created       []chat.Message
}

func (f *fakeChatRepo) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	return f.conversations[id], nil
}

func (f *fakeChatRepo) FindOrCreateConversation(ctx context.Context, userAID, userBID string) (chat.Conversation, error) {
	return chat.Conversation{}, errors.New("not implemented")
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, conversationID, senderID, text string) (chat.Message, error) {
	if f.createErr != nil {
		return chat.Message{}, f.createErr
	}
	msg := chat.Message{
		ID:             fmt.Sprintf("msg-%d", len(f.created)+1),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		CreatedAt:      time.Now(),
	}
	f.created = append(f.created, msg)
	return msg, nil
}

func (f *fakeChatRepo) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	return nil, nil
}

func (f *fakeChatRepo) ListConversations(ctx context.Context, externalUserID string) ([]chat.ConversationSummary, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users map[string]*chat.User
}

func (f *fakeUserRepo) FindByExternalID(ctx context.Context, externalID string) (*chat.User, error) {
	return f.users[externalID], nil
}

func (f *fakeUserRepo) SearchByEmail(ctx context.Context, email, excludeExternalID string) ([]chat.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Upsert(ctx context.Context, u chat.User) error { return nil }

type broadcastCall struct {
	roomID  string
	payload []byte
	exclude string
}

type fakeRegistry struct {
	joined     map[string]map[string]bool // roomID -> sessionID
	broadcasts []broadcastCall
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{joined: make(map[string]map[string]bool)}
}

func (f *fakeRegistry) Bind(conn *realtime.Connection) {}

func (f *fakeRegistry) Join(roomID string, conn *realtime.Connection) {
	if f.joined[roomID] == nil {
		f.joined[roomID] = make(map[string]bool)
	}
	f.joined[roomID][conn.ID] = true
}

func (f *fakeRegistry) InRoom(roomID string, conn *realtime.Connection) bool {
	return f.joined[roomID][conn.ID]
}

func (f *fakeRegistry) Broadcast(roomID string, payload []byte, excludeSessionID string) int {
	f.broadcasts = append(f.broadcasts, broadcastCall{roomID: roomID, payload: payload, exclude: excludeSessionID})
	return len(f.joined[roomID])
}

func (f *fakeRegistry) Unbind(conn *realtime.Connection) {}

// ctlFakeSocket captures the frames delivered to one connection.
type ctlFakeSocket struct {
	mu     sync.Mutex
	frames [][]byte
}

func (s *ctlFakeSocket) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data != nil {
		cp := make([]byte, len(data))
		copy(cp, data)
		s.frames = append(s.frames, cp)
	}
	return nil
}

func (s *ctlFakeSocket) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}
func (s *ctlFakeSocket) SetWriteDeadline(t time.Time) error { return nil }
func (s *ctlFakeSocket) Close() error                       { return nil }

func (s *ctlFakeSocket) lastFrame() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	var out map[string]any
	_ = json.Unmarshal(s.frames[len(s.frames)-1], &out)
	return out
}

func (s *ctlFakeSocket) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// ---- fixtures ----

func twoUserConversation() (*fakeChatRepo, *fakeUserRepo) {
	alice := chat.User{ID: "u-alice", ExternalID: "ext-alice", Email: "alice@example.com"}
	bob := chat.User{ID: "u-bob", ExternalID: "ext-bob", Email: "bob@example.com"}
	chats := &fakeChatRepo{
		conversations: map[string]*chat.Conversation{
			"conv-1": {ID: "conv-1", Participants: []chat.User{alice, bob}},
		},
	}
	users := &fakeUserRepo{users: map[string]*chat.User{
		"ext-alice": &alice,
		"ext-bob":   &bob,
	}}
	return chats, users
}

func newTestController(chats *fakeChatRepo, users *fakeUserRepo, registry *fakeRegistry) *ChatSocketController {
	return &ChatSocketController{
		registry:        registry,
		verifier:        identity.NewVerifier("secret"),
		joinUC:          usecase.NewJoinConversationUseCase(chats),
		sendUC:          usecase.NewSendMessageUseCase(chats, users),
		inflightTimeout: time.Second,
	}
}

func startConnection(userID string) (*realtime.Connection, *ctlFakeSocket) {
	ws := &ctlFakeSocket{}
	conn := realtime.NewConnection(userID, ws)
	conn.Start()
	return conn, ws
}

func waitForFrame(t *testing.T, ws *ctlFakeSocket) map[string]any {
	t.Helper()
	require.Eventually(t, func() bool {
		return ws.frameCount() > 0
	}, time.Second, 10*time.Millisecond)
	return ws.lastFrame()
}

// ---- tests ----

func TestHandshakeRejectedWithoutCredential(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)

	r := gin.New()
	r.GET("/ws", ctl.Handle())

	cases := map[string]struct {
		header string
		want   string
	}{
		"missing": {header: "", want: "missing credential"},
		"invalid": {header: "Bearer not-a-token", want: "invalid or expired credential"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
			assert.Empty(t, registry.joined)
		})
	}
}

func TestJoinUnknownConversation(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-alice")

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "joinRoom", ChatID: "nope"})

	frame := waitForFrame(t, ws)
	assert.Equal(t, "error", frame["event"])
	assert.Equal(t, "conversation not found", frame["message"])
	assert.Empty(t, registry.joined)
}

func TestJoinAsNonParticipant(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-mallory")

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "joinRoom", ChatID: "conv-1"})

	frame := waitForFrame(t, ws)
	assert.Equal(t, "error", frame["event"])
	assert.Equal(t, "unauthorized: not a conversation participant", frame["message"])
	assert.Empty(t, registry.joined)
}

func TestJoinAsParticipant(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-alice")

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "joinRoom", ChatID: "conv-1"})

	frame := waitForFrame(t, ws)
	assert.Equal(t, "joined", frame["event"])
	assert.Equal(t, "conv-1", frame["chatId"])
	assert.True(t, registry.InRoom("conv-1", conn))
}

func TestSendMessagePersistsAndFansOut(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, _ := startConnection("ext-alice")
	registry.Join("conv-1", conn)

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "sendMessage", ChatID: "conv-1", Text: "  hello bob  "})

	require.Len(t, chats.created, 1)
	assert.Equal(t, "hello bob", chats.created[0].Text)
	assert.Equal(t, "u-alice", chats.created[0].SenderID)

	require.Len(t, registry.broadcasts, 1)
	call := registry.broadcasts[0]
	assert.Equal(t, "conv-1", call.roomID)
	assert.Empty(t, call.exclude) // sender's own connections receive it too

	var frame messageFrame
	require.NoError(t, json.Unmarshal(call.payload, &frame))
	assert.Equal(t, "message", frame.Event)
	assert.Equal(t, "conv-1", frame.Data.ChatID)
	assert.Equal(t, "hello bob", frame.Data.Text)
	assert.Equal(t, "ext-alice", frame.Data.Sender.ExternalID)
}

func TestSendMessageEmptyText(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-alice")

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "sendMessage", ChatID: "conv-1", Text: "   "})

	frame := waitForFrame(t, ws)
	assert.Equal(t, "error", frame["event"])
	assert.Equal(t, "message text is required", frame["message"])
	assert.Empty(t, chats.created)
	assert.Empty(t, registry.broadcasts)
}

func TestSendMessageAsNonParticipant(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-mallory")

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "sendMessage", ChatID: "conv-1", Text: "hi"})

	frame := waitForFrame(t, ws)
	assert.Equal(t, "error", frame["event"])
	assert.Equal(t, "unauthorized: not a conversation participant", frame["message"])
	assert.Empty(t, chats.created)
	assert.Empty(t, registry.broadcasts)
}

func TestSendMessagePersistenceFailure(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	chats.createErr = errors.New("pq: connection refused")
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-alice")

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "sendMessage", ChatID: "conv-1", Text: "hi"})

	// The failure is reported to the sender only; nothing reaches the room.
	frame := waitForFrame(t, ws)
	assert.Equal(t, "error", frame["event"])
	assert.Equal(t, "failed to send message", frame["message"])
	assert.Empty(t, registry.broadcasts)
}

func TestTypingRelayedToOthersOnly(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-alice")
	registry.Join("conv-1", conn)

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "typing", ChatID: "conv-1"})

	require.Len(t, registry.broadcasts, 1)
	call := registry.broadcasts[0]
	assert.Equal(t, conn.ID, call.exclude)

	var frame presenceFrame
	require.NoError(t, json.Unmarshal(call.payload, &frame))
	assert.Equal(t, "typing", frame.Event)
	assert.Equal(t, "ext-alice", frame.Data.UserID)
	assert.Equal(t, 0, ws.frameCount())
}

func TestTypingBeforeJoinIsDropped(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-alice")

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "typing", ChatID: "conv-1"})

	assert.Empty(t, registry.broadcasts)
	assert.Equal(t, 0, ws.frameCount())
}

func TestUnsupportedEvent(t *testing.T) {
	registry := newFakeRegistry()
	chats, users := twoUserConversation()
	ctl := newTestController(chats, users, registry)
	conn, ws := startConnection("ext-alice")

	ctl.handleEvent(context.Background(), conn, inboundFrame{Event: "selfDestruct"})

	frame := waitForFrame(t, ws)
	assert.Equal(t, "error", frame["event"])
	assert.Equal(t, "unsupported event", frame["message"])
}
