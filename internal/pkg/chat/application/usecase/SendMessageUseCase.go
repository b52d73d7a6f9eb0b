package usecase

import (
	"context"
	"fmt"

	chat "go-courier/internal/pkg/chat/application/domain"
	repository "go-courier/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to persist a new message.
type SendMessageInput struct {
	ConversationID   string
	SenderExternalID string
	Text             string
}

// SendMessageUseCase runs the send pipeline: validate the text, re-check the
// sender's participation (per send, never cached), resolve the sender's user
// record, and persist the message together with the conversation's
// last-activity bump as one transaction.
type SendMessageUseCase struct {
	Chats repository.ChatRepository
	Users repository.UserRepository
}

func NewSendMessageUseCase(chats repository.ChatRepository, users repository.UserRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Chats: chats, Users: users}
}

// Execute persists a message and returns it with the sender profile attached,
// ready for fan-out.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.SenderExternalID == "" {
		return nil, fmt.Errorf("conversation_id and sender_id are required")
	}

	text, err := chat.NormalizeText(in.Text)
	if err != nil {
		return nil, err
	}

	conv, err := uc.Chats.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if conv == nil {
		return nil, chat.ErrConversationNotFound
	}
	if !conv.HasParticipant(in.SenderExternalID) {
		return nil, chat.ErrNotParticipant
	}

	sender, err := uc.Users.FindByExternalID(ctx, in.SenderExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if sender == nil {
		return nil, chat.ErrUserNotFound
	}

	msg, err := uc.Chats.CreateMessage(ctx, in.ConversationID, sender.ID, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.Sender = sender
	return &msg, nil
}
