package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownTool is reported for invocations naming no known tool.
var ErrUnknownTool = errors.New("unknown tool")

// ErrInvalidArguments is reported for argument bags that do not parse to an object.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Invocation is one request to run a tool. Arguments is either a JSON object
// or a JSON string containing one; both decode to the same map.
type Invocation struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Result answers exactly one Invocation and carries its id unchanged.
type Result struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`

	// IsError marks results produced by a failed call rather than a
	// negative answer; it is forwarded to the model, not to webhooks.
	IsError bool `json:"-"`
}

// ParseArguments decodes an argument bag. Missing or null arguments decode
// to an empty map.
func ParseArguments(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
		inner := bytes.TrimSpace([]byte(encoded))
		if len(inner) == 0 {
			return map[string]any{}, nil
		}
		if inner[0] == '"' {
			return nil, fmt.Errorf("%w: arguments must be a JSON object", ErrInvalidArguments)
		}
		return ParseArguments(inner)
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: arguments must be a JSON object", ErrInvalidArguments)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
