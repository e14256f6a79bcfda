// Package dates turns archive section labels into sortable calendar dates.
package dates

import (
	"sort"
	"strings"
	"time"
)

// farFuture is the sentinel returned for labels that match none of the
// accepted formats. Unparseable labels are tolerated, never rejected.
var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Formats accepted for section labels, tried in order. Month names are
// English only; the last four cover labels that omit the year.
var formats = []string{
	"2 Jan 2006",
	"Jan 2 2006",
	"2 January 2006",
	"January 2 2006",
	"Jan 2",
	"2 Jan",
	"January 2",
	"2 January",
}

// Parse resolves a section label to a calendar date usable as a sort key.
// Labels that match no format map to the far-future sentinel so they sort
// after every recognized date.
func Parse(label string) time.Time {
	label = strings.TrimSpace(label)
	for _, f := range formats {
		if ts, err := time.Parse(f, label); err == nil {
			return ts
		}
	}
	return farFuture
}

// Unknown reports whether t is the sentinel produced for unparseable labels.
func Unknown(t time.Time) bool {
	return t.Equal(farFuture)
}

// IsMisc reports whether a label names the catch-all bucket for undated items.
func IsMisc(label string) bool {
	return strings.Contains(strings.ToLower(label), "misc")
}

// SortLabels orders section labels for rendering: recognized dates first,
// most recent leading, then unrecognized labels in their given order, then
// the Misc bucket.
func SortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		a, b := labels[i], labels[j]
		if IsMisc(a) != IsMisc(b) {
			return !IsMisc(a)
		}
		ta, tb := Parse(a), Parse(b)
		if Unknown(ta) != Unknown(tb) {
			return !Unknown(ta)
		}
		if Unknown(ta) {
			return false
		}
		return ta.After(tb)
	})
}
