package event

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// DateLayout is the canonical layout of a completed record date
const DateLayout = "2006/01/02"

var (
	// 2025年12月1日, 2025/12/1. Parts split across elements arrive with
	// whitespace between them.
	fullDatePattern = regexp.MustCompile(`(\d{4})\s*[年/]\s*(\d{1,2})\s*[月/]\s*(\d{1,2})`)
	// 12月1日, 12/1
	partialDatePattern = regexp.MustCompile(`(\d{1,2})\s*[月/]\s*(\d{1,2})`)
)

// NormalizeDate finds a date in free text and returns it in canonical form.
//
// A date with a year is returned as YYYY/MM/DD, one without as MM/DD. Month
// and day are zero-padded. Full-width digits and slashes are folded before
// matching. Returns false when the text holds no recognizable date.
func NormalizeDate(text string) (string, bool) {
	text = width.Fold.String(text)

	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s/%s/%s", m[1], pad(m[2]), pad(m[3])), true
	}

	if m := partialDatePattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s/%s", pad(m[1]), pad(m[2])), true
	}

	return "", false
}

// HasYear reports whether a canonical date carries its year.
func HasYear(date string) bool {
	return strings.Count(date, "/") == 2
}

// CompleteYear prefixes a partial MM/DD date with year.
//
// The year of the month being crawled is assumed, so a partial date that
// really belongs to the neighbouring year is misattributed near a year
// boundary. Dates that already carry a year are returned unchanged.
func CompleteYear(date string, year int) string {
	if date == "" || HasYear(date) {
		return date
	}
	return fmt.Sprintf("%04d/%s", year, date)
}

// ParseDate parses a canonical YYYY/MM/DD date into a UTC time.
// Returns time.Time{} (zero value) if parsing fails.
func ParseDate(date string) time.Time {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}
	}
	return t
}

func pad(digits string) string {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return digits
	}
	return fmt.Sprintf("%02d", n)
}
