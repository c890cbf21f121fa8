// Package llm defines the completion collaborator used by the conversation
// orchestrator and an Anthropic Messages API implementation of it.
//
// Requests carry a system prompt, the turn history and the tool schema.
// Completions carry content blocks: text, or tool_use blocks asking the
// caller to run a tool and send back a tool_result block with the same id.
package llm
