// Package wallclock turns the loose time strings callers speak ("7 PM",
// "9:05", "07:30 pm") into canonical 24-hour HH:MM values, and composes
// those values with a calendar date and a named time zone into instants.
//
// Normalize is pure and idempotent: normalizing an already normalized value
// returns it unchanged.
package wallclock
