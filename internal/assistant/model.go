package assistant

import (
	"errors"
	"time"
)

// Chat turn roles stored in conversation memory.
const (
	TurnUser      = "user"
	TurnAssistant = "assistant"
)

// MemoryWindow is the number of turns kept per conversation.
const MemoryWindow = 6

const historyLimit = 50

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrNotEntitled  = errors.New("plan does not include the AI assistant")
	ErrGeneration   = errors.New("ai generation failed")
)

// Turn is one message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatHistory is a persisted question and answer pair.
type ChatHistory struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatRequest is the body of POST /ai_chat.
type ChatRequest struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ChatReply is returned to the caller.
type ChatReply struct {
	Reply string `json:"reply"`
}

// Caller identifies who is chatting.
type Caller struct {
	UserID string
	Role   string
	Guest  bool
}
