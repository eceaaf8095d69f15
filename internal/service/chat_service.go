package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"rag-chat/internal/domain"
	"rag-chat/internal/llm"
	"rag-chat/internal/repository"
	"rag-chat/internal/search"
)

var (
	ErrChatServiceNotConfigured = errors.New("chat service not configured")
	ErrConversationNotFound     = errors.New("conversation not found")
	ErrCompletionFailed         = errors.New("failed to process message")
)

const (
	defaultConversationTitle = "New Conversation"
	titleMaxWords            = 6
	historyWindowSize        = 10
)

// ChatRequest es un turno entrante del usuario. ConversationID nil indica
// que debe crearse una conversación nueva.
type ChatRequest struct {
	Message        string
	ConversationID *int64
}

// ChatResult es el intercambio completado que se devuelve al caller.
type ChatResult struct {
	Message        string    `json:"message"`
	ConversationID int64     `json:"conversation_id"`
	MessageID      int64     `json:"message_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChatService orquesta un turno de chat: resuelve la conversación, persiste
// el mensaje del usuario, arma contexto e historial, pide la respuesta al
// LLM y persiste el resultado.
type ChatService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	searcher      search.Provider
	completions   llm.CompletionClient
	logger        *zap.Logger
}

func NewChatService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	searcher search.Provider,
	completions llm.CompletionClient,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		searcher:      searcher,
		completions:   completions,
		logger:        logger,
	}
}

// ProcessMessage ejecuta el flujo completo de un turno. El mensaje del
// usuario queda persistido antes de cualquier llamada externa; si la
// generación falla después, el turno del usuario sobrevive.
//
// Una ConversationID que no existe devuelve ErrConversationNotFound: no se
// auto-crean conversaciones con id arbitrario.
func (s *ChatService) ProcessMessage(ctx context.Context, req ChatRequest, userID int64) (ChatResult, error) {
	if s == nil || s.conversations == nil || s.messages == nil || s.searcher == nil || s.completions == nil {
		return ChatResult{}, ErrChatServiceNotConfigured
	}

	var conversationID int64
	if req.ConversationID == nil {
		conv, err := s.conversations.Create(ctx, GenerateConversationTitle(req.Message), userID)
		if err != nil {
			return ChatResult{}, fmt.Errorf("create conversation: %w", err)
		}
		conversationID = conv.ID
	} else {
		conv, err := s.conversations.GetByID(ctx, *req.ConversationID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ChatResult{}, ErrConversationNotFound
			}
			return ChatResult{}, fmt.Errorf("get conversation: %w", err)
		}
		conversationID = conv.ID
	}

	userMessage, err := s.messages.Create(ctx, conversationID, req.Message, true)
	if err != nil {
		return ChatResult{}, fmt.Errorf("persist user message: %w", err)
	}

	history, err := s.conversationHistory(ctx, conversationID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("get history: %w", err)
	}

	// Best-effort: un outcome degradado colapsa a contexto vacío.
	outcome := s.searcher.Search(ctx, req.Message)
	if outcome.Degraded() {
		s.logger.Warn("knowledge base search degraded", zap.String("reason", outcome.DegradedReason))
	}
	var contextText string
	if len(outcome.Snippets) > 0 {
		contextText = strings.Join(outcome.Snippets, "\n\n")
	}

	completion, err := s.completions.Complete(ctx, llm.CompletionRequest{
		Message: req.Message,
		History: history,
		Context: contextText,
	})
	if err != nil {
		s.logger.Error("completion failed", zap.Int64("conversation_id", conversationID), zap.Error(err))
		return ChatResult{}, ErrCompletionFailed
	}

	botMessage, err := s.messages.Create(ctx, conversationID, completion.Response, false)
	if err != nil {
		return ChatResult{}, fmt.Errorf("persist bot message: %w", err)
	}

	if err := s.conversations.Touch(ctx, conversationID, time.Now().UTC()); err != nil {
		return ChatResult{}, fmt.Errorf("touch conversation: %w", err)
	}

	s.logger.Info("processed message",
		zap.Int64("conversation_id", conversationID),
		zap.Int64("user_id", userID),
		zap.Int64("user_message_id", userMessage.ID),
		zap.Int("message_length", len(req.Message)),
		zap.Int("response_length", len(completion.Response)),
		zap.Int("total_tokens", completion.Usage.TotalTokens),
	)

	return ChatResult{
		Message:        completion.Response,
		ConversationID: conversationID,
		MessageID:      botMessage.ID,
		Timestamp:      botMessage.Timestamp,
	}, nil
}

// conversationHistory devuelve los últimos mensajes de la conversación como
// entradas role-tagged, del más antiguo al más reciente.
func (s *ChatService) conversationHistory(ctx context.Context, conversationID int64) ([]domain.ChatMessage, error) {
	messages, err := s.messages.ListByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if len(messages) > historyWindowSize {
		messages = messages[len(messages)-historyWindowSize:]
	}

	history := make([]domain.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := "assistant"
		if msg.IsUser {
			role = "user"
		}
		history = append(history, domain.ChatMessage{Role: role, Content: msg.Content})
	}
	return history, nil
}

// ListConversations devuelve las conversaciones del usuario, la actualizada
// más recientemente primero. Lectura pura.
func (s *ChatService) ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	if s == nil || s.conversations == nil {
		return nil, ErrChatServiceNotConfigured
	}
	return s.conversations.ListByUserID(ctx, userID)
}

// ListMessages devuelve los mensajes de una conversación en orden de
// creación. Lectura pura.
func (s *ChatService) ListMessages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	if s == nil || s.conversations == nil || s.messages == nil {
		return nil, ErrChatServiceNotConfigured
	}
	if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return s.messages.ListByConversationID(ctx, conversationID)
}

// GenerateConversationTitle deriva el título de una conversación nueva a
// partir del primer mensaje: las primeras seis palabras, con "..." si el
// mensaje original es más largo que el título generado.
func GenerateConversationTitle(message string) string {
	words := strings.Fields(message)
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	title := strings.Join(words, " ")

	if title == "" {
		return defaultConversationTitle
	}
	if len(message) > len(title) {
		title += "..."
	}
	return title
}
