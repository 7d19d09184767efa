package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarTodayUsesConfiguredZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on June 14th is already June 15th in Berlin.
	fixed := NewFixed(time.Date(2025, 6, 14, 23, 30, 0, 0, time.UTC))
	cal := NewCalendar(fixed, berlin)

	assert.Equal(t, "2025-06-15", cal.TodayISO())
	assert.Equal(t, "2025-01-01", cal.YearStartISO())
	assert.Equal(t, berlin, cal.Today().Location())

	utc := NewCalendar(fixed, time.UTC)
	assert.Equal(t, "2025-06-14", utc.TodayISO())
}

func TestFixedClockAdvance(t *testing.T) {
	fixed := NewFixed(time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC))
	cal := NewCalendar(fixed, time.UTC)
	assert.Equal(t, "2025-12-31", cal.TodayISO())

	fixed.Advance(24 * time.Hour)
	assert.Equal(t, "2026-01-01", cal.TodayISO())
	assert.Equal(t, "2026-01-01", cal.YearStartISO())

	fixed.Set(time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-29", cal.TodayISO())
}

func TestLoadCalendarRejectsUnknownZone(t *testing.T) {
	_, err := LoadCalendar("Mars/Olympus_Mons")
	assert.Error(t, err)

	cal, err := LoadCalendar("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cal.Location())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.March, d.Month())

	_, err = ParseDate("01.03.2026")
	assert.Error(t, err)
}
