package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"rag-chat/internal/domain"
)

// MemoryStore implementa los repositorios de conversaciones, mensajes y
// usuarios en memoria. Pensado para desarrollo sin DATABASE_URL y para tests;
// en producción se usa Postgres.
type MemoryStore struct {
	mu sync.Mutex

	users         map[int64]domain.User
	conversations map[int64]domain.Conversation
	messages      map[int64]domain.Message

	nextUserID         int64
	nextConversationID int64
	nextMessageID      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:              make(map[int64]domain.User),
		conversations:      make(map[int64]domain.Conversation),
		messages:           make(map[int64]domain.Message),
		nextUserID:         1,
		nextConversationID: 1,
		nextMessageID:      1,
	}
}

func (s *MemoryStore) EnsureDefault(_ context.Context) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == DefaultUsername {
			return u, nil
		}
	}

	user := domain.User{
		ID:        s.nextUserID,
		Username:  DefaultUsername,
		CreatedAt: time.Now().UTC(),
	}
	s.nextUserID++
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) Create(_ context.Context, title string, userID int64) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        s.nextConversationID,
		Title:     title,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextConversationID++
	s.conversations[conv.ID] = conv
	return conv, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return domain.Conversation{}, pgx.ErrNoRows
	}
	return conv, nil
}

func (s *MemoryStore) ListByUserID(_ context.Context, userID int64) ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conversations []domain.Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			conversations = append(conversations, conv)
		}
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	return conversations, nil
}

func (s *MemoryStore) Touch(_ context.Context, id int64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return pgx.ErrNoRows
	}
	conv.UpdatedAt = updatedAt
	s.conversations[id] = conv
	return nil
}

// Messages devuelve una vista de los repositorios de mensajes respaldada por
// el mismo store.
func (s *MemoryStore) Messages() MessageRepository {
	return (*memoryMessageRepo)(s)
}

type memoryMessageRepo MemoryStore

func (s *memoryMessageRepo) Create(_ context.Context, conversationID int64, content string, isUser bool) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := domain.Message{
		ID:             s.nextMessageID,
		ConversationID: conversationID,
		Content:        content,
		IsUser:         isUser,
		Timestamp:      time.Now().UTC(),
	}
	s.nextMessageID++
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *memoryMessageRepo) ListByConversationID(_ context.Context, conversationID int64) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []domain.Message
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			messages = append(messages, msg)
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	return messages, nil
}

var (
	_ UserRepository         = (*MemoryStore)(nil)
	_ ConversationRepository = (*MemoryStore)(nil)
	_ MessageRepository      = (*memoryMessageRepo)(nil)
)
