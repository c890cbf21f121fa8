package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Stop reasons reported by the model.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// Block is a union of text, tool_use and tool_result content.
type Block struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// MarshalJSON writes only the fields the block's type defines. Fields the
// API requires, such as a text block's text or a tool_use input, are always
// written even when empty.
func (b Block) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case BlockText:
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{b.Type, b.Text})
	case BlockToolUse:
		input := b.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return json.Marshal(struct {
			Type  string          `json:"type"`
			ID    string          `json:"id"`
			Name  string          `json:"name"`
			Input json.RawMessage `json:"input"`
		}{b.Type, b.ID, b.Name, input})
	case BlockToolResult:
		return json.Marshal(struct {
			Type      string `json:"type"`
			ToolUseID string `json:"tool_use_id"`
			Content   string `json:"content"`
			IsError   bool   `json:"is_error,omitempty"`
		}{b.Type, b.ToolUseID, b.Content, b.IsError})
	default:
		type plain Block
		return json.Marshal(plain(b))
	}
}

// TextBlock returns a text block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ToolResultBlock returns a tool_result block answering the tool_use with id.
func ToolResultBlock(id, content string, isError bool) Block {
	return Block{Type: BlockToolResult, ToolUseID: id, Content: content, IsError: isError}
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

// Tool describes a callable tool. InputSchema is a JSON Schema object.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Request is one completion call.
type Request struct {
	System   string
	Messages []Message
	Tools    []Tool
}

// Usage reports token counts.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Completion is the model's answer.
type Completion struct {
	ID         string  `json:"id"`
	Model      string  `json:"model"`
	Role       Role    `json:"role"`
	StopReason string  `json:"stop_reason"`
	Content    []Block `json:"content"`
	Usage      Usage   `json:"usage"`
}

// FirstText returns the first text block, if any.
func (c *Completion) FirstText() (string, bool) {
	if c == nil {
		return "", false
	}
	for _, b := range c.Content {
		if b.Type == BlockText {
			return b.Text, true
		}
	}
	return "", false
}

// ToolUses returns the tool_use blocks in order.
func (c *Completion) ToolUses() []Block {
	if c == nil {
		return nil
	}
	var uses []Block
	for _, b := range c.Content {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}

// WantsTools reports whether the model asked for at least one tool call.
// Some completions carry tool_use blocks with a max_tokens stop reason, so
// the blocks are checked as well as the stop reason.
func (c *Completion) WantsTools() bool {
	return len(c.ToolUses()) > 0
}

// Client produces completions.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// APIError is a non-2xx answer from the completion API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("llm API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm API error (%d, %s): %s", e.StatusCode, e.Type, e.Message)
}
