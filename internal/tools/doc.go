// Package tools holds the scheduling tool schema and the dispatcher that
// routes tool invocations to the availability and booking engines.
//
// The same definitions are handed to the language model, listed over MCP and
// used to validate webhook tool calls, so every entry point sees one schema.
package tools
