package dates_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aipulse/news-archive/internal/dates"
)

func TestParseRecognizedFormats(t *testing.T) {
	tests := []struct {
		name  string
		label string
		year  int
		month time.Month
		day   int
	}{
		{name: "day short month year", label: "15 Dec 2025", year: 2025, month: time.December, day: 15},
		{name: "short month day year", label: "Dec 15 2025", year: 2025, month: time.December, day: 15},
		{name: "day full month year", label: "15 December 2025", year: 2025, month: time.December, day: 15},
		{name: "full month day year", label: "December 15 2025", year: 2025, month: time.December, day: 15},
		{name: "zero padded day", label: "07 Sep 2025", year: 2025, month: time.September, day: 7},
		{name: "short month day", label: "Dec 15", year: 0, month: time.December, day: 15},
		{name: "day short month", label: "15 Dec", year: 0, month: time.December, day: 15},
		{name: "full month day", label: "December 15", year: 0, month: time.December, day: 15},
		{name: "day full month", label: "15 December", year: 0, month: time.December, day: 15},
		{name: "surrounding whitespace", label: "  15 Dec 2025  ", year: 2025, month: time.December, day: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dates.Parse(tt.label)
			require.False(t, dates.Unknown(got))
			require.Equal(t, tt.year, got.Year())
			require.Equal(t, tt.month, got.Month())
			require.Equal(t, tt.day, got.Day())
		})
	}
}

func TestParseUnrecognizedIsSentinel(t *testing.T) {
	for _, label := range []string{"", "Q4 Roundup", "2025-12-15", "Misc", "soon"} {
		got := dates.Parse(label)
		require.True(t, dates.Unknown(got), "label %q", label)
	}
}

func TestIsMisc(t *testing.T) {
	require.True(t, dates.IsMisc("Misc"))
	require.True(t, dates.IsMisc("MISC"))
	require.True(t, dates.IsMisc("Miscellaneous news"))
	require.False(t, dates.IsMisc("15 Dec 2025"))
	require.False(t, dates.IsMisc("Q4 Roundup"))
}

func TestSortLabels(t *testing.T) {
	labels := []string{"Misc", "14 Dec 2025", "Q4 Roundup", "15 Dec 2025"}
	dates.SortLabels(labels)
	require.Equal(t, []string{"15 Dec 2025", "14 Dec 2025", "Q4 Roundup", "Misc"}, labels)
}

func TestSortLabelsKeepsUnknownOrder(t *testing.T) {
	labels := []string{"Roundup B", "1 Jan 2024", "Roundup A"}
	dates.SortLabels(labels)
	require.Equal(t, []string{"1 Jan 2024", "Roundup B", "Roundup A"}, labels)
}
