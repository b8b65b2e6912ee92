package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

// AgentMeta holds operational metadata for an agent execution.
type AgentMeta struct {
	AgentName string        `json:"agent"`
	Usage     TokenUsage    `json:"usage"`
	Latency   time.Duration `json:"latency_ns"`
	// Steps is a short trace of what the agent did (searches, model calls).
	Steps []string `json:"steps,omitempty"`
}
