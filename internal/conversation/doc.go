// Package conversation turns inbound webhook bodies into replies.
//
// Canonicalize recognizes the three request shapes a voice platform sends:
// chat histories, batches of tool calls and other webhook events. The
// Orchestrator answers each one, calling the language model and the tool
// dispatcher as needed, and renders the reply envelope the caller expects.
//
// A chat turn runs through at most two model calls:
//
//	canonicalize -> complete -> reply
//	                         -> tool_use -> dispatch -> complete -> reply
package conversation
