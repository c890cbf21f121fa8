// Package logging provides structured logging utilities for voicecal.
//
// It builds the process-wide slog handler and keeps attribute names
// consistent across the webhook handler, the orchestrator and the
// scheduling engines.
//
// # Usage Patterns
//
//	logger := logging.WithTool(slog.Default(), "book_appointment")
//	logger.Info("booking created",
//	    logging.Status("success"),
//	    logging.UserHash(attendee))
//
// # Security Considerations
//
// Caller emails end up in booking requests. Log them through UserHash or
// Domain, never raw. API keys and OAuth tokens go through SanitizeToken.
package logging
