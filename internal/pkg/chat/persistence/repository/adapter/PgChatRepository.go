package adapter

import (
	"context"
	"errors"
	"time"

	chat "go-courier/internal/pkg/chat/application/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if _, err := uuid.Parse(id); err != nil {
		// a malformed id cannot reference any conversation
		return nil, nil
	}
	var conv chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, created_at, updated_at
		FROM chat.conversation
		WHERE id = $1::uuid
	`, id).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT u.id::text, u.external_id, u.email, u.username, u.image_url, u.created_at
		FROM chat.participant p
		JOIN chat.app_user u ON u.id = p.user_id
		WHERE p.conversation_id = $1::uuid
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u chat.User
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Username, &u.ImageURL, &u.CreatedAt); err != nil {
			return nil, err
		}
		conv.Participants = append(conv.Participants, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return &conv, nil
}

// FindOrCreateConversation relies on the UNIQUE (user_min, user_max) constraint:
// a losing concurrent insert falls through to the select of the winner's row.
func (r *PgChatRepository) FindOrCreateConversation(ctx context.Context, userAID string, userBID string) (chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return chat.Conversation{}, errors.New("PgChatRepository: nil pool")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return chat.Conversation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	var conv chat.Conversation
	err = tx.QueryRow(ctx, `
		INSERT INTO chat.conversation (created_at, updated_at, user_min, user_max)
		VALUES ($3, $3, LEAST($1::uuid, $2::uuid), GREATEST($1::uuid, $2::uuid))
		ON CONFLICT (user_min, user_max) DO NOTHING
		RETURNING id::text, created_at, updated_at
	`, userAID, userBID, now).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)

	switch {
	case err == nil:
		// Freshly created: register both participants.
		_, err = tx.Exec(ctx, `
			INSERT INTO chat.participant (conversation_id, user_id)
			VALUES ($1::uuid, $2::uuid), ($1::uuid, $3::uuid)
			ON CONFLICT (conversation_id, user_id) DO NOTHING
		`, conv.ID, userAID, userBID)
		if err != nil {
			return chat.Conversation{}, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		// Pair already exists; return the existing conversation.
		err = tx.QueryRow(ctx, `
			SELECT id::text, created_at, updated_at
			FROM chat.conversation
			WHERE user_min = LEAST($1::uuid, $2::uuid)
			  AND user_max = GREATEST($1::uuid, $2::uuid)
		`, userAID, userBID).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
		if err != nil {
			return chat.Conversation{}, err
		}
	default:
		return chat.Conversation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return chat.Conversation{}, err
	}
	return conv, nil
}

// CreateMessage inserts the message and advances the conversation watermark in
// one transaction; a message must never exist without the bumped timestamp.
func (r *PgChatRepository) CreateMessage(ctx context.Context, conversationID string, senderID string, text string) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errors.New("PgChatRepository: nil pool")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return chat.Message{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var msg chat.Message
	err = tx.QueryRow(ctx, `
		INSERT INTO chat.message (conversation_id, sender_id, text, created_at)
		VALUES ($1::uuid, $2::uuid, $3, now())
		RETURNING id::text, conversation_id::text, sender_id::text, text, created_at
	`, conversationID, senderID, text).Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text, &msg.CreatedAt)
	if err != nil {
		return chat.Message{}, err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE chat.conversation
		SET updated_at = $2
		WHERE id = $1::uuid
	`, conversationID, msg.CreatedAt)
	if err != nil {
		return chat.Message{}, err
	}
	if ct.RowsAffected() == 0 {
		return chat.Message{}, pgx.ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

func (r *PgChatRepository) ListMessages(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT m.id::text, m.conversation_id::text, m.sender_id::text, m.text, m.created_at,
		       u.id::text, u.external_id, u.email, u.username, u.image_url, u.created_at
		FROM chat.message m
		JOIN chat.app_user u ON u.id = m.sender_id
		WHERE m.conversation_id = $1::uuid
		ORDER BY m.created_at ASC, m.seq ASC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			msg    chat.Message
			sender chat.User
		)
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text, &msg.CreatedAt,
			&sender.ID, &sender.ExternalID, &sender.Email, &sender.Username, &sender.ImageURL, &sender.CreatedAt,
		); err != nil {
			return nil, err
		}
		msg.Sender = &sender
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) ListConversations(ctx context.Context, externalUserID string) ([]chat.ConversationSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.updated_at,
		       ou.id::text, ou.external_id, ou.email, ou.username, ou.image_url, ou.created_at,
		       lm.id::text, lm.sender_id::text, lm.text, lm.created_at
		FROM chat.conversation c
		JOIN chat.participant me ON me.conversation_id = c.id
		JOIN chat.app_user meu ON meu.id = me.user_id AND meu.external_id = $1
		JOIN chat.participant op ON op.conversation_id = c.id AND op.user_id <> me.user_id
		JOIN chat.app_user ou ON ou.id = op.user_id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, text, created_at
			FROM chat.message
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, seq DESC
			LIMIT 1
		) lm ON true
		ORDER BY c.updated_at DESC
	`, externalUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.ConversationSummary
	for rows.Next() {
		var (
			s         chat.ConversationSummary
			msgID     *string
			senderID  *string
			text      *string
			createdAt *time.Time
		)
		if err := rows.Scan(
			&s.ChatID, &s.UpdatedAt,
			&s.OtherUser.ID, &s.OtherUser.ExternalID, &s.OtherUser.Email, &s.OtherUser.Username, &s.OtherUser.ImageURL, &s.OtherUser.CreatedAt,
			&msgID, &senderID, &text, &createdAt,
		); err != nil {
			return nil, err
		}
		if msgID != nil {
			s.LastMessage = &chat.Message{
				ID:             *msgID,
				ConversationID: s.ChatID,
				SenderID:       *senderID,
				Text:           *text,
				CreatedAt:      *createdAt,
			}
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
