package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gameport/arena/models"
	"github.com/gameport/arena/store"
)

// ChatService owns the append-only message lists at chats/{chatID}. A chat
// belongs to exactly two participants; either side derives the same id.
type ChatService interface {
	ChatIDFor(user1ID, user2ID string) (string, error)
	Send(ctx context.Context, chatID, senderID, text string) (models.ChatMessage, error)
	History(ctx context.Context, chatID string) ([]models.ChatMessage, error)
	Subscribe(ctx context.Context, chatID string, handler func([]models.ChatMessage)) (func(), error)
}

type chatService struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewChatService(st *store.Store, logger *slog.Logger) ChatService {
	return &chatService{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

func chatPath(chatID string) string {
	return "chats/" + chatID
}

// ChatIDFor derives the canonical chat id for an unordered participant
// pair: the two ids sorted and joined with an underscore.
func (s *chatService) ChatIDFor(user1ID, user2ID string) (string, error) {
	if user1ID == "" || user2ID == "" {
		return "", ErrChatParticipantsRequired
	}
	ids := []string{user1ID, user2ID}
	sort.Strings(ids)
	return strings.Join(ids, "_"), nil
}

// Send appends one message to the chat's stored list. The store holds the
// whole list as a single value, so the append is a read-modify-write of the
// full list under the path's write lock. Message content is not validated
// here; callers reject blank text before invoking Send.
func (s *chatService) Send(ctx context.Context, chatID, senderID, text string) (models.ChatMessage, error) {
	message := models.ChatMessage{
		ID:        "msg_" + uuid.NewString(),
		SenderID:  senderID,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}

	ref := s.store.Ref(chatPath(chatID))
	err := ref.Update(ctx, func(snap store.Snapshot) (any, error) {
		messages := []models.ChatMessage{}
		if snap.Exists {
			if err := snap.Decode(&messages); err != nil {
				return nil, fmt.Errorf("failed to decode chat %s: %w", chatID, err)
			}
		}
		return append(messages, message), nil
	})
	if err != nil {
		return models.ChatMessage{}, err
	}
	return message, nil
}

// History returns the current message list; a chat with no messages yet is
// an empty list, not an error.
func (s *chatService) History(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	snap, err := s.store.Ref(chatPath(chatID)).Read(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return []models.ChatMessage{}, nil
	}

	var messages []models.ChatMessage
	if err := snap.Decode(&messages); err != nil {
		return nil, fmt.Errorf("failed to decode chat %s: %w", chatID, err)
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

// Subscribe replays the whole message list immediately and again on every
// change; deltas are never computed.
func (s *chatService) Subscribe(ctx context.Context, chatID string, handler func([]models.ChatMessage)) (func(), error) {
	ref := s.store.Ref(chatPath(chatID))
	return ref.OnChange(ctx, func(snap store.Snapshot) {
		messages := []models.ChatMessage{}
		if snap.Exists {
			if err := snap.Decode(&messages); err != nil {
				s.logger.Error("undecodable chat snapshot",
					slog.String("chat_id", chatID), slog.Any("error", err))
				return
			}
		}
		handler(messages)
	})
}
