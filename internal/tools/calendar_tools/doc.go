// Package calendar_tools exposes the scheduling tools over MCP (Model Context
// Protocol).
//
// The tools are registered from the same definitions the language model sees
// and run through the same dispatcher as webhook tool calls, so an MCP client
// gets identical answers for identical arguments.
package calendar_tools
