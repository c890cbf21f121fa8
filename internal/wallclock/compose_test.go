package wallclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZone_Compose(t *testing.T) {
	zone := MustLoadZone("America/New_York")

	got, err := zone.Compose("2026-10-20", "2pm")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20T14:00:00-04:00", got.Format(time.RFC3339))

	// After the DST change the offset follows the zone, not a fixed value.
	got, err = zone.Compose("2026-11-10", "09:30")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-10T09:30:00-05:00", got.Format(time.RFC3339))
}

func TestZone_ComposeErrors(t *testing.T) {
	zone := MustLoadZone("UTC")

	_, err := zone.Compose("20-10-2026", "14:00")
	assert.ErrorContains(t, err, "invalid date")

	_, err = zone.Compose("2026-10-20", "25:00")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestZone_Window(t *testing.T) {
	zone := MustLoadZone("UTC")

	start, end, err := zone.Window("2026-10-20", "14:00", "3 PM")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, end.Sub(start))

	_, _, err = zone.Window("2026-10-20", "15:00", "14:00")
	assert.ErrorContains(t, err, "must be before")

	_, _, err = zone.Window("2026-10-20", "15:00", "15:00")
	assert.Error(t, err)
}

func TestLoadZone(t *testing.T) {
	z, err := LoadZone("")
	require.NoError(t, err)
	assert.Equal(t, "UTC", z.Name)

	_, err = LoadZone("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestZone_Today(t *testing.T) {
	zone := MustLoadZone("Asia/Tokyo")
	now := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-20", zone.Today(now))
}

func TestOverlaps(t *testing.T) {
	at := func(hhmm string) time.Time {
		ts, err := MustLoadZone("UTC").Compose("2026-10-20", hhmm)
		require.NoError(t, err)
		return ts
	}

	tests := []struct {
		name   string
		s1, e1 string
		s2, e2 string
		want   bool
	}{
		{"partial overlap", "14:00", "15:00", "13:30", "14:30", true},
		{"contained", "14:00", "15:00", "14:15", "14:45", true},
		{"containing", "14:15", "14:45", "14:00", "15:00", true},
		{"identical", "14:00", "15:00", "14:00", "15:00", true},
		{"back to back before", "14:00", "15:00", "13:00", "14:00", false},
		{"back to back after", "14:00", "15:00", "15:00", "16:00", false},
		{"disjoint", "09:00", "10:00", "14:00", "15:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(at(tt.s1), at(tt.e1), at(tt.s2), at(tt.e2))
			assert.Equal(t, tt.want, got)
			// The relation is symmetric.
			assert.Equal(t, got, Overlaps(at(tt.s2), at(tt.e2), at(tt.s1), at(tt.e1)))
		})
	}
}
