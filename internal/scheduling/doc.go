// Package scheduling implements the availability and booking engines.
//
// Both engines take wall-clock input as spoken by a caller ("2pm", "14:00")
// and a calendar date, compose instants in the configured zone and talk to
// an EventStore. Neither returns an error: every failure becomes a negative
// result with a message the assistant can read back.
package scheduling
