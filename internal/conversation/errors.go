package conversation

import "errors"

var (
	// ErrEmptyConversation is returned for chat requests with no usable turns.
	ErrEmptyConversation = errors.New("conversation has no messages")

	// ErrInvalidPayload is returned for bodies matching no known request shape.
	ErrInvalidPayload = errors.New("invalid request payload")

	// ErrModelFailure wraps errors from the language model.
	ErrModelFailure = errors.New("language model request failed")
)
