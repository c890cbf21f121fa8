package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teemow/voicecal/internal/llm"
	"github.com/teemow/voicecal/internal/tools"
)

// Kind identifies the shape of an inbound request.
type Kind string

const (
	KindChat      Kind = "chat"
	KindToolCalls Kind = "tool-calls"
	KindPing      Kind = "ping"
)

const (
	roleSystem = "system"

	messageTypeToolCalls = "tool-calls"
)

// Turn is one canonical conversation turn.
type Turn struct {
	Role    llm.Role
	Content string
}

// Request is the canonical form of an inbound webhook body.
type Request struct {
	Kind Kind

	// KindChat
	System string
	Turns  []Turn

	// KindToolCalls
	ToolCalls []tools.Invocation

	// KindPing and KindToolCalls
	EventType string
}

// Canonicalize parses an inbound body into a Request.
//
// Chat requests are {"messages":[...]} or a bare array of turns. System
// turns are removed from the history wherever they appear and joined into
// System. Roles other than assistant fold to user and turns without text
// are dropped.
//
// Tool-call requests are {"message":{"type":"tool-calls", ...}}. Tool
// arguments are kept raw; a malformed argument string only fails its own
// invocation when it is dispatched.
//
// Any other {"message":{"type":...}} body is a ping.
func Canonicalize(raw []byte) (*Request, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}

	if raw[0] == '[' {
		var msgs []inboundTurn
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return chatRequest(msgs)
	}

	var body inboundBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch {
	case body.Messages != nil:
		var msgs []inboundTurn
		if err := json.Unmarshal(body.Messages, &msgs); err != nil {
			return nil, fmt.Errorf("%w: messages: %v", ErrInvalidPayload, err)
		}
		return chatRequest(msgs)
	case body.Message != nil:
		return eventRequest(body.Message)
	default:
		return nil, fmt.Errorf("%w: expected \"messages\" or \"message\"", ErrInvalidPayload)
	}
}

type inboundBody struct {
	Messages json.RawMessage `json:"messages"`
	Message  *inboundEvent   `json:"message"`
}

type inboundTurn struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type inboundPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inboundEvent struct {
	Type                 string            `json:"type"`
	ToolCallList         []inboundToolCall `json:"toolCallList"`
	ToolCalls            []inboundToolCall `json:"toolCalls"`
	ToolWithToolCallList []struct {
		ToolCall inboundToolCall `json:"toolCall"`
	} `json:"toolWithToolCallList"`
}

type inboundToolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments"`
	Parameters json.RawMessage `json:"parameters"`
}

func chatRequest(msgs []inboundTurn) (*Request, error) {
	req := &Request{Kind: KindChat}

	var system []string
	for i, m := range msgs {
		text, err := contentText(m.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: message %d: %v", ErrInvalidPayload, i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case roleSystem:
			system = append(system, text)
		case string(llm.RoleAssistant):
			req.Turns = append(req.Turns, Turn{Role: llm.RoleAssistant, Content: text})
		default:
			req.Turns = append(req.Turns, Turn{Role: llm.RoleUser, Content: text})
		}
	}

	if len(req.Turns) == 0 {
		return nil, ErrEmptyConversation
	}
	req.System = strings.Join(system, "\n\n")
	return req, nil
}

// contentText accepts a string, null, or an array of parts of which only
// text parts are kept.
func contentText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '[':
		var parts []inboundPart
		if err := json.Unmarshal(raw, &parts); err != nil {
			return "", err
		}
		var texts []string
		for _, p := range parts {
			if p.Type == llm.BlockText && strings.TrimSpace(p.Text) != "" {
				texts = append(texts, p.Text)
			}
		}
		return strings.Join(texts, "\n"), nil
	default:
		return "", fmt.Errorf("content must be a string or an array of parts")
	}
}

func eventRequest(ev *inboundEvent) (*Request, error) {
	if strings.TrimSpace(ev.Type) == "" {
		return nil, fmt.Errorf("%w: message has no type", ErrInvalidPayload)
	}
	if ev.Type != messageTypeToolCalls {
		return &Request{Kind: KindPing, EventType: ev.Type}, nil
	}

	calls := ev.ToolCallList
	if len(calls) == 0 {
		calls = ev.ToolCalls
	}
	if len(calls) == 0 {
		for _, w := range ev.ToolWithToolCallList {
			calls = append(calls, w.ToolCall)
		}
	}

	req := &Request{
		Kind:      KindToolCalls,
		EventType: ev.Type,
		ToolCalls: make([]tools.Invocation, 0, len(calls)),
	}
	for _, c := range calls {
		req.ToolCalls = append(req.ToolCalls, c.invocation())
	}
	return req, nil
}

func (c inboundToolCall) invocation() tools.Invocation {
	inv := tools.Invocation{
		ID:        c.ID,
		Name:      c.Function.Name,
		Arguments: c.Function.Arguments,
	}
	if inv.ID == "" {
		inv.ID = "call_" + uuid.NewString()
	}
	if inv.Name == "" {
		inv.Name = c.Name
	}
	if len(inv.Arguments) == 0 {
		inv.Arguments = c.Arguments
	}
	if len(inv.Arguments) == 0 {
		inv.Arguments = c.Parameters
	}
	return inv
}
