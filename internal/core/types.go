package core

import "time"

const (
	TuskName          = "TuskCtx"
	TuskUserAgent     = "TuskCtx/0.1"
	TuskRepositoryURL = "https://github.com/sandevgo/tuskctx"
	TaskVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatRequest struct {
	Prompt       string
	SystemPrompt string
}

type ChatResponse struct {
	Text     string
	Metadata map[string]string
}
