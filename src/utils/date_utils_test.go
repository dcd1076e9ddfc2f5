package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuarterBounds(t *testing.T) {
	start, end := QuarterBounds(2025, 1)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), end)

	start, end = QuarterBounds(2025, 4)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end, "Q4 ends in the next year")
}

func TestYearBounds(t *testing.T) {
	start, end := YearBounds(2025)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestPeriodLabel(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		start, end time.Time
		want       string
	}{
		{day(2025, 1, 1), day(2025, 4, 1), "Q1 2025"},
		{day(2025, 7, 1), day(2025, 10, 1), "Q3 2025"},
		{day(2025, 10, 1), day(2026, 1, 1), "Q4 2025"},
		{day(2025, 1, 1), day(2026, 1, 1), "2025"},
		// quarter-length but not quarter-aligned
		{day(2025, 2, 1), day(2025, 5, 1), "2025-02-01 / 2025-05-01"},
		{day(2025, 1, 15), day(2025, 4, 15), "2025-01-15 / 2025-04-15"},
		{day(2025, 1, 1), day(2025, 3, 1), "2025-01-01 / 2025-03-01"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PeriodLabel(tc.start, tc.end))
	}
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), ParseDate("2025-03-31"))
	assert.True(t, ParseDate("31/03/2025").IsZero(), "unparseable dates come back zero")
}

func TestPlatformKey(t *testing.T) {
	assert.Equal(t, "apple_music", PlatformKey("Apple Music"))
	assert.Equal(t, "spotify", PlatformKey("  Spotify "))
	assert.Equal(t, "youtube_music", PlatformKey("YouTube Music"))
}

func TestPlatformLabel(t *testing.T) {
	assert.Equal(t, "Apple Music", PlatformLabel("apple music"))
	assert.Equal(t, "Spotify", PlatformLabel("spotify"))
	assert.Equal(t, "Qobuz", PlatformLabel("Qobuz"), "unknown platforms keep the reported name")
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Enregistrement", CategoryLabel("recording"))
	assert.Equal(t, "Vinyles", CategoryLabel("vinyl"))
	assert.Equal(t, "studio", CategoryLabel("studio"), "unknown categories fall back to the key")
}
