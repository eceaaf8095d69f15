// Cliente de terminal para el chat: mantiene el estado de la conversación
// actual y habla con la API HTTP igual que lo haría el frontend.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type chatData struct {
	Message        string    `json:"message"`
	ConversationID int64     `json:"conversation_id"`
	MessageID      int64     `json:"message_id"`
	Timestamp      time.Time `json:"timestamp"`
}

type conversationItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageItem struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

type apiClient struct {
	baseURL string
	client  *http.Client
}

func main() {
	baseURL := flag.String("server", "http://localhost:8000", "URL base del servidor de chat")
	flag.Parse()

	api := &apiClient{
		baseURL: strings.TrimRight(*baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}

	if err := api.health(); err != nil {
		log.Fatalf("el servidor no responde en %s: %v", api.baseURL, err)
	}

	reader := bufio.NewReader(os.Stdin)
	var conversationID *int64

	fmt.Println("===== Chat =====")
	fmt.Println("Comandos: /list, /open <id>, /new, /quit")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return

		case line == "/new":
			conversationID = nil
			fmt.Println("Conversación nueva: el próximo mensaje la crea.")

		case line == "/list":
			conversations, err := api.listConversations()
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			if len(conversations) == 0 {
				fmt.Println("No hay conversaciones todavía.")
				continue
			}
			for _, conv := range conversations {
				fmt.Printf("[%d] %s (%s)\n", conv.ID, conv.Title, conv.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}

		case strings.HasPrefix(line, "/open "):
			id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "/open ")), 10, 64)
			if err != nil {
				fmt.Println("Id inválido.")
				continue
			}
			messages, err := api.listMessages(id)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			conversationID = &id
			for _, msg := range messages {
				renderMessage(msg)
			}

		default:
			data, err := api.sendMessage(line, conversationID)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			conversationID = &data.ConversationID
			fmt.Printf("\nAsistente: %s\n\n", data.Message)
		}
	}
}

func renderMessage(msg messageItem) {
	who := "Asistente"
	if msg.IsUser {
		who = "Tú"
	}
	fmt.Printf("%s: %s\n", who, msg.Content)
}

func (a *apiClient) health() error {
	resp, err := a.client.Get(a.baseURL + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health status %d", resp.StatusCode)
	}
	return nil
}

func (a *apiClient) sendMessage(message string, conversationID *int64) (chatData, error) {
	payload := map[string]any{"message": message}
	if conversationID != nil {
		payload["conversation_id"] = *conversationID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return chatData{}, err
	}

	resp, err := a.client.Post(a.baseURL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return chatData{}, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool     `json:"success"`
		Data    chatData `json:"data"`
		Error   string   `json:"error"`
	}
	if err := decodeJSON(resp.Body, &envelope); err != nil {
		return chatData{}, err
	}
	if !envelope.Success {
		return chatData{}, fmt.Errorf("%s", envelope.Error)
	}
	return envelope.Data, nil
}

func (a *apiClient) listConversations() ([]conversationItem, error) {
	resp, err := a.client.Get(a.baseURL + "/api/conversations")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool               `json:"success"`
		Data    []conversationItem `json:"data"`
		Error   string             `json:"error"`
	}
	if err := decodeJSON(resp.Body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("%s", envelope.Error)
	}
	return envelope.Data, nil
}

func (a *apiClient) listMessages(conversationID int64) ([]messageItem, error) {
	url := fmt.Sprintf("%s/api/conversations/%d/messages", a.baseURL, conversationID)
	resp, err := a.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool          `json:"success"`
		Data    []messageItem `json:"data"`
		Error   string        `json:"error"`
	}
	if err := decodeJSON(resp.Body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("%s", envelope.Error)
	}
	return envelope.Data, nil
}

func decodeJSON(r io.Reader, v any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
