package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/ikoma-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone    SortOrder = "none"
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
)

// ParseSortOrder validates a sort flag or config value
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case "", SortNone:
		return SortNone, nil
	case SortByDate, SortByTitle:
		return order, nil
	default:
		return SortNone, fmt.Errorf("invalid sort order: %s (must be 'none', 'date' or 'title')", s)
	}
}

// sortRecords sorts records in place. The sort is stable, so records that
// compare equal keep their crawl order.
func sortRecords(records []*event.Record, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByDate(records[i], records[j])
		})
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			ti, tj := strings.ToLower(records[i].Title), strings.ToLower(records[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(records[i], records[j])
		})
	}
}

// compareByDate compares two records by their date
// Returns true if record i should come before record j
func compareByDate(i, j *event.Record) bool {
	dateI := event.ParseDate(i.Date)
	dateJ := event.ParseDate(j.Date)

	// If both dates are valid, compare them
	if !dateI.IsZero() && !dateJ.IsZero() {
		return dateI.Before(dateJ)
	}

	// If only one date is valid, put the valid one first
	if !dateI.IsZero() {
		return true
	}
	return false
}
