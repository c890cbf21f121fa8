package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/teemow/voicecal/internal/tools"
)

const (
	chatCompletionObject = "chat.completion"
	finishReasonStop     = "stop"
)

// ChatCompletion is the reply to a chat request, in the chat-completion
// shape voice platforms read.
type ChatCompletion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolResults is the reply to a tool-call batch.
type ToolResults struct {
	Results []tools.Result `json:"results"`
}

// Ack is the empty reply to webhook events that need no answer.
type Ack struct{}

func newChatCompletion(model, reply string, now time.Time) *ChatCompletion {
	return &ChatCompletion{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  chatCompletionObject,
		Created: now.Unix(),
		Model:   model,
		Choices: []Choice{{
			Index:        0,
			Message:      ChatMessage{Role: "assistant", Content: reply},
			FinishReason: finishReasonStop,
		}},
	}
}

func newToolResults(results []tools.Result) *ToolResults {
	if results == nil {
		results = []tools.Result{}
	}
	return &ToolResults{Results: results}
}

// Content returns the reply text of the first choice.
func (c *ChatCompletion) Content() string {
	if c == nil || len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Message.Content
}
