// Package filter narrows crawled records down before they are written.
//
// Criteria combine with AND; within a list (keywords, venues) any entry may
// match:
//   - Date range (from/to, inclusive, by calendar day)
//   - Title keywords (substring matching, case-insensitive)
//   - Venues (substring of venue name or address, case-insensitive)
//   - Weekends only (Saturday/Sunday)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.WeekendsOnly = true
//	f.Venues = []string{"図書館"}
//	filtered := f.Apply(records)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/ikoma-events/internal/event"
)

// Filter represents record filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Title filtering (case-insensitive substring match)
	Keywords []string `json:"keywords,omitempty"`

	// Venue filtering against name and address (case-insensitive substring match)
	Venues []string `json:"venues,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all records until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Keywords: []string{},
		Venues:   []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Keywords) == 0 &&
		len(f.Venues) == 0 &&
		!f.WeekendsOnly
}

// Matches checks if a record matches all active filter criteria.
// An empty filter matches all records. A record whose date cannot be parsed
// fails every date-based criterion.
func (f *Filter) Matches(r *event.Record) bool {
	if f.IsEmpty() {
		return true
	}

	if f.DateFrom != nil || f.DateTo != nil || f.WeekendsOnly {
		day := event.ParseDate(r.Date)
		if day.IsZero() {
			return false
		}

		if f.DateFrom != nil && day.Before(truncateDay(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && day.After(truncateDay(*f.DateTo)) {
			return false
		}

		if f.WeekendsOnly {
			weekday := day.Weekday()
			if weekday != time.Saturday && weekday != time.Sunday {
				return false
			}
		}
	}

	if len(f.Keywords) > 0 && !containsAnyFold(r.Title, f.Keywords) {
		return false
	}

	if len(f.Venues) > 0 &&
		!containsAnyFold(r.VenueName, f.Venues) &&
		!containsAnyFold(r.VenueAddress, f.Venues) {
		return false
	}

	return true
}

// Apply returns the records matching the filter, preserving their order.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(records []*event.Record) []*event.Record {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]*event.Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: 2025/12/01 | To: 2025/12/31 | Keywords: 講座 | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format(event.DateLayout)))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format(event.DateLayout)))
	}

	if len(f.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(f.Keywords, ", ")))
	}

	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}

	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}

func containsAnyFold(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// truncateDay drops the clock so bounds compare by calendar day
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
