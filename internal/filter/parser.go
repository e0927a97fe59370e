package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/pfrederiksen/ikoma-events/internal/event"
)

var (
	// 2025-12, 2025/12, 2025年12月
	monthPattern = regexp.MustCompile(`^(\d{4})[-/年](\d{1,2})月?$`)
	// 2025/12/01, 2025年12月1日 once dashes are replaced
	dayPattern = regexp.MustCompile(`^\d{4}[/年]\d{1,2}[/月]\d{1,2}日?$`)
)

// ParseBound parses one end of a date range given on the command line.
//
// Supported formats:
//   - "2025-12-01", "2025/12/01" or "2025年12月1日" - a single day
//   - "2025-12", "2025/12" or "2025年12月" - a whole month
//
// A month stands for its first day when end is false and for its last day
// when end is true. Full-width digits are accepted. The whole input must be
// a date. Times are in UTC at midnight.
func ParseBound(input string, end bool) (*time.Time, error) {
	input = width.Fold.String(strings.TrimSpace(input))
	if input == "" {
		return nil, fmt.Errorf("date cannot be empty")
	}

	if m := monthPattern.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return nil, fmt.Errorf("invalid month: %s", m[2])
		}
		t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		if end {
			// Last day of month
			t = time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
		}
		return &t, nil
	}

	normalized := strings.ReplaceAll(input, "-", "/")
	if !dayPattern.MatchString(normalized) {
		return nil, fmt.Errorf("invalid date %q. Use '2025-12-01' or '2025-12'", input)
	}
	date, ok := event.NormalizeDate(normalized)
	if !ok || !event.HasYear(date) {
		return nil, fmt.Errorf("invalid date %q. Use '2025-12-01' or '2025-12'", input)
	}

	t := event.ParseDate(date)
	if t.IsZero() {
		return nil, fmt.Errorf("invalid date %q", input)
	}
	return &t, nil
}

// ParseRange builds a filter date range from optional from/to inputs.
// Empty inputs leave that end open.
func ParseRange(from, to string) (*time.Time, *time.Time, error) {
	var dateFrom, dateTo *time.Time
	var err error

	if from != "" {
		if dateFrom, err = ParseBound(from, false); err != nil {
			return nil, nil, fmt.Errorf("parsing from: %w", err)
		}
	}
	if to != "" {
		if dateTo, err = ParseBound(to, true); err != nil {
			return nil, nil, fmt.Errorf("parsing to: %w", err)
		}
	}

	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}

	return dateFrom, dateTo, nil
}
