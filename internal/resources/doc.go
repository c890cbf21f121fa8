// Package resources provides MCP resources describing the business calendar.
// Resources are read-only data sources that MCP clients can fetch; a client
// model reads them to learn today's date and the time zone before it calls
// the scheduling tools.
package resources
