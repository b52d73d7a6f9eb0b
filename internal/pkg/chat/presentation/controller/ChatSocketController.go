package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	cacheport "go-courier/internal/infrastructure/cache/port"
	"go-courier/internal/infrastructure/identity"
	"go-courier/internal/infrastructure/realtime"
	chat "go-courier/internal/pkg/chat/application/domain"
	"go-courier/internal/pkg/chat/application/usecase"
	repoAdapter "go-courier/internal/pkg/chat/persistence/repository/adapter"
	repoport "go-courier/internal/pkg/chat/persistence/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

// roomRegistry is the slice of the connection registry the engine needs;
// tests substitute a fake to exercise the state machine without a transport.
type roomRegistry interface {
	Bind(conn *realtime.Connection)
	Join(roomID string, conn *realtime.Connection)
	InRoom(roomID string, conn *realtime.Connection) bool
	Broadcast(roomID string, payload []byte, excludeSessionID string) int
	Unbind(conn *realtime.Connection)
}

// credentialResolver resolves a bearer credential to a user identifier.
type credentialResolver interface {
	Resolve(credential string) (string, error)
}

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic: handshake authentication, room joins, the send pipeline, and the
// typing relay. Every per-event failure is answered with a scoped error frame
// to the originating connection only; the connection stays alive.
type ChatSocketController struct {
	registry        roomRegistry
	verifier        credentialResolver
	joinUC          *usecase.JoinConversationUseCase
	sendUC          *usecase.SendMessageUseCase
	inflightTimeout time.Duration
}

func NewChatSocketController(pool *pgxpool.Pool, cache cacheport.Cache, registry *realtime.Registry, verifier *identity.Verifier) *ChatSocketController {
	chats := repoAdapter.NewPgChatRepository(pool)
	var users repoport.UserRepository = repoAdapter.NewPgUserRepository(pool)
	if cache != nil {
		users = repoAdapter.NewCachedUserRepository(users, cache)
	}
	return &ChatSocketController{
		registry:        registry,
		verifier:        verifier,
		joinUC:          usecase.NewJoinConversationUseCase(chats),
		sendUC:          usecase.NewSendMessageUseCase(chats, users),
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when needed.
		return true
	},
}

// inboundFrame is the tagged union of client events.
type inboundFrame struct {
	Event  string `json:"event"`
	ChatID string `json:"chatId,omitempty"`
	Text   string `json:"text,omitempty"`
}

type errorFrame struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

type ackFrame struct {
	Event  string `json:"event"`
	ChatID string `json:"chatId,omitempty"`
}

type messageFrame struct {
	Event string         `json:"event"`
	Data  messagePayload `json:"data"`
}

type messagePayload struct {
	ID        string        `json:"id"`
	ChatID    string        `json:"chatId"`
	SenderID  string        `json:"senderId"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"createdAt"`
	Sender    senderPayload `json:"sender"`
}

type senderPayload struct {
	ExternalID string  `json:"externalId"`
	Username   *string `json:"username"`
	ImageURL   *string `json:"imageUrl"`
}

type presenceFrame struct {
	Event string          `json:"event"`
	Data  presencePayload `json:"data"`
}

type presencePayload struct {
	UserID string `json:"userId"`
}

const defaultReadTimeout = 60 * time.Second

// Handle authenticates the handshake, upgrades to websocket, and processes
// frames until the client disconnects. An absent or invalid credential
// refuses the connection with 401 before the upgrade; nothing is registered.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ctl.verifier.Resolve(bearerCredential(c))
		if err != nil {
			status := http.StatusUnauthorized
			msg := "invalid or expired credential"
			if errors.Is(err, identity.ErrMissingCredential) {
				msg = "missing credential"
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.registry.Bind(conn)
		log.Printf("socket connected: session=%s user=%s", conn.ID, userID)
		defer func() {
			ctl.registry.Unbind(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			log.Printf("socket disconnected: session=%s user=%s", conn.ID, userID)
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		if payload, err := json.Marshal(ackFrame{Event: "connected"}); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "invalid payload")
				continue
			}
			ctl.handleEvent(c.Request.Context(), conn, frame)
		}
	}
}

// handleEvent is the single dispatch point for client events once the
// connection is authenticated.
func (ctl *ChatSocketController) handleEvent(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	switch frame.Event {
	case "joinRoom":
		ctl.handleJoin(ctx, conn, frame)
	case "sendMessage":
		ctl.handleMessage(ctx, conn, frame)
	case "typing", "stopTyping":
		ctl.handleTyping(conn, frame)
	default:
		ctl.replyError(conn, "unsupported event")
	}
}

func (ctl *ChatSocketController) handleJoin(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.ChatID == "" {
		ctl.replyError(conn, "chatId is required")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	err := ctl.joinUC.Execute(ctx, usecase.JoinConversationInput{
		ConversationID: frame.ChatID,
		ExternalUserID: conn.UserID,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	ctl.registry.Join(frame.ChatID, conn)

	if payload, err := json.Marshal(ackFrame{Event: "joined", ChatID: frame.ChatID}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleMessage(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.ChatID == "" {
		ctl.replyError(conn, "chatId is required")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	msg, err := ctl.sendUC.Execute(ctx, usecase.SendMessageInput{
		ConversationID:   frame.ChatID,
		SenderExternalID: conn.UserID,
		Text:             frame.Text,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	payload, err := json.Marshal(messageFrame{Event: "message", Data: toPayload(*msg)})
	if err != nil {
		ctl.replyError(conn, "failed to encode message")
		return
	}

	// Everyone currently in the room receives the message, the sender's own
	// connections included.
	ctl.registry.Broadcast(frame.ChatID, payload, "")
}

// handleTyping relays typing/stopTyping to the other members of the room.
// A signal for a room this connection has not joined is dropped silently.
func (ctl *ChatSocketController) handleTyping(conn *realtime.Connection, frame inboundFrame) {
	if frame.ChatID == "" {
		ctl.replyError(conn, "chatId is required")
		return
	}
	if !ctl.registry.InRoom(frame.ChatID, conn) {
		return
	}

	payload, err := json.Marshal(presenceFrame{Event: frame.Event, Data: presencePayload{UserID: conn.UserID}})
	if err != nil {
		return
	}
	ctl.registry.Broadcast(frame.ChatID, payload, conn.ID)
}

func (ctl *ChatSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, chat.ErrNotParticipant):
		ctl.replyError(conn, "unauthorized: not a conversation participant")
	case errors.Is(err, chat.ErrConversationNotFound):
		ctl.replyError(conn, "conversation not found")
	case errors.Is(err, chat.ErrUserNotFound):
		ctl.replyError(conn, "user not found")
	case errors.Is(err, chat.ErrEmptyMessage):
		ctl.replyError(conn, "message text is required")
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "failed to send message")
	default:
		ctl.replyError(conn, err.Error())
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, message string) {
	if payload, err := json.Marshal(errorFrame{Event: "error", Message: message}); err == nil {
		_ = conn.Send(payload)
	}
}

// bearerCredential extracts the handshake credential: an Authorization bearer
// header, or a token query parameter for browser websocket clients that
// cannot set headers.
func bearerCredential(c *gin.Context) string {
	if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
	}
	return strings.TrimSpace(c.Query("token"))
}

func toPayload(msg chat.Message) messagePayload {
	p := messagePayload{
		ID:        msg.ID,
		ChatID:    msg.ConversationID,
		SenderID:  msg.SenderID,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
	if msg.Sender != nil {
		p.Sender = senderPayload{
			ExternalID: msg.Sender.ExternalID,
			Username:   msg.Sender.Username,
			ImageURL:   msg.Sender.ImageURL,
		}
	}
	return p
}
