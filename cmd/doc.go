// Package cmd implements the command-line interface for voicecal.
//
// This package provides the following commands:
//   - serve: Answer voice-assistant webhooks over HTTP, or MCP over stdio
//   - availability: Check whether a slot is free on the business calendar
//   - book: Book a slot on the business calendar
//   - auth: Authorize Google Calendar access and store the OAuth token
//   - generate-docs: Generate markdown documentation for the scheduling tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
