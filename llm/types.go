// Package llm provides the chat completion client and the transcript types
// shared across the bot.
package llm

import "context"

// Transcript roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single transcript entry.
//
// For tool results, ToolCallID correlates the message to the invocation
// that produced it and Name carries the capability name. System messages
// may use Name as a marker tag (the personality prompt and the pending
// confirmation marker both do).
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a single invocation requested by the model. Name is
// free-form (models mis-spell and invent tool names) and Arguments may be
// any string, JSON or not; the agent normalizes both before execution.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition is the schema advertised to the model for one capability.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Completer is the model contract consumed by the agent. The returned
// message carries either plain Content or one or more ToolCalls.
type Completer interface {
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Message, error)
}

// CompleteFunc adapts a function to the Completer interface.
type CompleteFunc func(ctx context.Context, messages []Message, tools []ToolDefinition) (*Message, error)

func (f CompleteFunc) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Message, error) {
	return f(ctx, messages, tools)
}
