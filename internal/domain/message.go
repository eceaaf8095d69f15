package domain

import "time"

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Content        string    `json:"content"`
	IsUser         bool      `json:"is_user"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChatMessage es una entrada role-tagged del historial enviado al LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
