package event

import (
	"fmt"
	"iter"
	"time"
)

// Target is one calendar month to crawl
type Target struct {
	Year  int
	Month time.Month
}

// TargetOf returns the month containing t
func TargetOf(t time.Time) Target {
	return Target{Year: t.Year(), Month: t.Month()}
}

// Next returns the following month, rolling over into the next year
func (t Target) Next() Target {
	if t.Month == time.December {
		return Target{Year: t.Year + 1, Month: time.January}
	}
	return Target{Year: t.Year, Month: t.Month + 1}
}

// Index returns year*12+month, strictly increasing with the calendar
func (t Target) Index() int {
	return t.Year*12 + int(t.Month)
}

// Param renders the month as the listing endpoint expects it (YYYYMM)
func (t Target) Param() string {
	return fmt.Sprintf("%04d%02d", t.Year, int(t.Month))
}

func (t Target) String() string {
	return fmt.Sprintf("%04d-%02d", t.Year, int(t.Month))
}

// Months yields n consecutive targets starting with the month of start.
func Months(start time.Time, n int) iter.Seq[Target] {
	return func(yield func(Target) bool) {
		t := TargetOf(start)
		for i := 0; i < n; i++ {
			if !yield(t) {
				return
			}
			t = t.Next()
		}
	}
}
