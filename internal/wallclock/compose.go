package wallclock

import (
	"fmt"
	"time"

	// Embedded zone database so containers without /usr/share/zoneinfo work.
	_ "time/tzdata"
)

// DateLayout is the calendar date format used throughout the service.
const DateLayout = "2006-01-02"

// Zone pairs an IANA zone name with its loaded location. The name is what gets
// sent to the calendar backend; the location is what instants are computed in.
type Zone struct {
	Name     string
	Location *time.Location
}

// LoadZone loads the IANA zone name. An empty name means UTC.
func LoadZone(name string) (Zone, error) {
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("failed to load time zone %q: %w", name, err)
	}
	return Zone{Name: name, Location: loc}, nil
}

// MustLoadZone is like LoadZone but panics on error.
func MustLoadZone(name string) Zone {
	z, err := LoadZone(name)
	if err != nil {
		panic(err)
	}
	return z
}

// ParseDate parses a YYYY-MM-DD date in the zone.
func (z Zone) ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, z.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", date, err)
	}
	return d, nil
}

// Compose returns the instant at which the wall clock in the zone reads hhmm
// on date. The hhmm value is normalized first, so human forms are accepted.
func (z Zone) Compose(date, hhmm string) (time.Time, error) {
	d, err := z.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}

	canonical, err := Normalize(hhmm)
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.ParseInLocation("15:04", canonical, z.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse normalized time %q: %w", canonical, err)
	}

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, z.location()), nil
}

// Window composes the [start, end) instants of a same-day time range and
// checks that start is strictly before end.
func (z Zone) Window(date, start, end string) (time.Time, time.Time, error) {
	s, err := z.Compose(date, start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := z.Compose(date, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time %s must be before end time %s", s.Format("15:04"), e.Format("15:04"))
	}
	return s, e, nil
}

// Today returns now's calendar date in the zone.
func (z Zone) Today(now time.Time) string {
	return now.In(z.location()).Format(DateLayout)
}

func (z Zone) location() *time.Location {
	if z.Location == nil {
		return time.UTC
	}
	return z.Location
}

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// share at least one instant. Intervals that only touch at a boundary do not
// overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
