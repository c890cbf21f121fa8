package wallclock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidTimeFormat is the sentinel matched by InvalidTimeFormatError.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// InvalidTimeFormatError reports a time string that matches none of the
// accepted forms.
type InvalidTimeFormatError struct {
	Raw string
}

func (e *InvalidTimeFormatError) Error() string {
	return fmt.Sprintf("invalid time format: %q (expected HH:MM or a 12-hour time like 7:30 PM)", e.Raw)
}

// Is lets errors.Is(err, ErrInvalidTimeFormat) match.
func (e *InvalidTimeFormatError) Is(target error) bool {
	return target == ErrInvalidTimeFormat
}

var (
	canonicalPattern  = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
	shortHourPattern  = regexp.MustCompile(`^(\d):(\d{2})$`)
	twelveHourPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*([ap]m)$`)
)

// Normalize converts raw into canonical HH:MM.
//
// Accepted forms, in priority order:
//   - HH:MM (hour 0-23)
//   - H:MM, zero-padded to HH:MM
//   - 12-hour forms with optional minutes and an AM/PM suffix in any case:
//     "7 PM", "7:30pm", "07:30 PM"
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if m := canonicalPattern.FindStringSubmatch(s); m != nil {
		return format(raw, atoi(m[1]), atoi(m[2]))
	}

	if m := shortHourPattern.FindStringSubmatch(s); m != nil {
		return format(raw, atoi(m[1]), atoi(m[2]))
	}

	if m := twelveHourPattern.FindStringSubmatch(s); m != nil {
		hour := atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute = atoi(m[2])
		}
		if hour < 1 || hour > 12 {
			return "", &InvalidTimeFormatError{Raw: raw}
		}

		switch strings.ToLower(m[3]) {
		case "pm":
			if hour != 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		return format(raw, hour, minute)
	}

	return "", &InvalidTimeFormatError{Raw: raw}
}

// MustNormalize is like Normalize but panics on error. Intended for constants
// in tests and fixtures.
func MustNormalize(raw string) string {
	v, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func format(raw string, hour, minute int) (string, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", &InvalidTimeFormatError{Raw: raw}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// atoi is only called on regexp digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
