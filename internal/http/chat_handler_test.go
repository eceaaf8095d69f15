package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rag-chat/internal/llm"
	"rag-chat/internal/repository"
	"rag-chat/internal/search"
	"rag-chat/internal/service"
)

func newTestRouter(completions llm.CompletionClient, searcher search.Provider) (*gin.Engine, *service.ChatService) {
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryStore()
	chatSvc := service.NewChatService(store, store.Messages(), searcher, completions, zap.NewNop())
	handler := NewChatHandler(zap.NewNop(), chatSvc)
	return NewRouter(zap.NewNop(), handler), chatSvc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w, decoded
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(&llm.MockCompletionClient{}, search.StaticOK())

	w, body := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected ok status, got %v", body["status"])
	}
	if body["timestamp"] == nil {
		t.Fatalf("expected timestamp")
	}
}

func TestChat_PrimerMensajeCreaConversacion(t *testing.T) {
	mock := &llm.MockCompletionClient{Result: llm.CompletionResult{Response: "The capital of France is Paris."}}
	router, _ := newTestRouter(mock, search.StaticOK())

	w, body := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"message": "What is the capital of France?",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("expected success, got %v", body)
	}

	data := body["data"].(map[string]any)
	if data["message"] != "The capital of France is Paris." {
		t.Fatalf("unexpected message: %v", data["message"])
	}
	conversationID := data["conversation_id"].(float64)
	if conversationID == 0 {
		t.Fatalf("expected assigned conversation id")
	}
	if data["message_id"] == nil || data["timestamp"] == nil {
		t.Fatalf("expected message id and timestamp, got %v", data)
	}

	// La conversación aparece en la lista con el título derivado del mensaje.
	w, body = doJSON(t, router, http.MethodGet, "/api/conversations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(items))
	}
	conv := items[0].(map[string]any)
	if conv["id"].(float64) != conversationID {
		t.Fatalf("expected conversation %v, got %v", conversationID, conv["id"])
	}
	if conv["title"] != "What is the capital of France?" {
		t.Fatalf("unexpected title: %v", conv["title"])
	}
}

func TestChat_ValidacionDelBody(t *testing.T) {
	router, _ := newTestRouter(&llm.MockCompletionClient{}, search.StaticOK())

	cases := []struct {
		name string
		body any
	}{
		{"sin message", map[string]any{}},
		{"message vacío", map[string]any{"message": ""}},
		{"conversation_id no numérico", map[string]any{"message": "hola", "conversation_id": "abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := doJSON(t, router, http.MethodPost, "/api/chat", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if body["success"] != false || body["error"] == "" {
				t.Fatalf("expected error envelope, got %v", body)
			}
		})
	}
}

func TestChat_ConversacionInexistente(t *testing.T) {
	router, _ := newTestRouter(&llm.MockCompletionClient{Result: llm.CompletionResult{Response: "ok"}}, search.StaticOK())

	w, body := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"message":         "hi",
		"conversation_id": 42,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body["error"] != "Conversation not found" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestChat_FalloDeCompletionPreservaElMensaje(t *testing.T) {
	mock := &llm.MockCompletionClient{Err: errors.New("status=500")}
	router, chatSvc := newTestRouter(mock, search.StaticOK())

	w, body := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"message": "hola",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if body["error"] != "Failed to process message" {
		t.Fatalf("unexpected error: %v", body["error"])
	}

	// El mensaje del usuario quedó persistido aunque falló la generación.
	conversations, err := chatSvc.ListConversations(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("expected conversation, got %d", len(conversations))
	}
	messages, err := chatSvc.ListMessages(context.Background(), conversations[0].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "hola" {
		t.Fatalf("expected persisted user message, got %+v", messages)
	}
}

func TestChat_BusquedaDegradadaNoBloquea(t *testing.T) {
	mock := &llm.MockCompletionClient{Result: llm.CompletionResult{Response: "sin contexto igual respondo"}}
	router, _ := newTestRouter(mock, search.StaticDegraded("search api error: status=503"))

	w, body := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"message": "hola",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 despite degraded search, got %d", w.Code)
	}
	if body["success"] != true {
		t.Fatalf("expected success, got %v", body)
	}
	if mock.LastReq.Context != "" {
		t.Fatalf("expected no context, got %q", mock.LastReq.Context)
	}
}

func TestListMessages_IdInvalido(t *testing.T) {
	router, _ := newTestRouter(&llm.MockCompletionClient{}, search.StaticOK())

	w, body := doJSON(t, router, http.MethodGet, "/api/conversations/abc/messages", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body["error"] != "Invalid conversation ID" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestListMessages_Conversacion(t *testing.T) {
	mock := &llm.MockCompletionClient{Result: llm.CompletionResult{Response: "respuesta"}}
	router, _ := newTestRouter(mock, search.StaticOK())

	_, body := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{"message": "hola"})
	conversationID := int64(body["data"].(map[string]any)["conversation_id"].(float64))

	w, body := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/conversations/%d/messages", conversationID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	items := body["data"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(items))
	}
	first := items[0].(map[string]any)
	second := items[1].(map[string]any)
	if first["is_user"] != true || second["is_user"] != false {
		t.Fatalf("expected user then assistant, got %v", items)
	}
	if first["content"] != "hola" || second["content"] != "respuesta" {
		t.Fatalf("unexpected contents: %v", items)
	}
}

func TestListMessages_ConversacionInexistente(t *testing.T) {
	router, _ := newTestRouter(&llm.MockCompletionClient{}, search.StaticOK())

	w, body := doJSON(t, router, http.MethodGet, "/api/conversations/99/messages", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body["error"] != "Conversation not found" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestListConversations_Vacio(t *testing.T) {
	router, _ := newTestRouter(&llm.MockCompletionClient{}, search.StaticOK())

	w, body := doJSON(t, router, http.MethodGet, "/api/conversations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	items, ok := body["data"].([]any)
	if !ok || len(items) != 0 {
		t.Fatalf("expected empty array, got %v", body["data"])
	}
}
