package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/ikoma-events/internal/event"
	"github.com/pfrederiksen/ikoma-events/internal/scraper"
)

// OutputFormat specifies the summary format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// MonthSummary reports the pagination of one month
type MonthSummary struct {
	Month        string `json:"month"`
	Pages        int    `json:"pages"`
	Accepted     int    `json:"accepted"`
	Duplicates   int    `json:"duplicates"`
	Skipped      int    `json:"skipped"`
	DetailErrors int    `json:"detail_errors"`
	Error        string `json:"error,omitempty"`
}

// Summary contains the data reported after a crawl
type Summary struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Months     []MonthSummary  `json:"months"`
	Collected  int             `json:"collected"`
	Written    int             `json:"written"`
	NewRecords []*event.Record `json:"new_records"`
	NewCount   int             `json:"new_count"`
	Output     string          `json:"output,omitempty"`
	Format     string          `json:"format,omitempty"`
	Filter     string          `json:"filter,omitempty"`
	Cancelled  bool            `json:"cancelled,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// newSummary fills the crawl part of a summary from a result
func newSummary(res *scraper.Result) *Summary {
	s := &Summary{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Months:     make([]MonthSummary, 0, len(res.Months)),
		Collected:  len(res.Records),
		NewRecords: []*event.Record{},
		Cancelled:  res.Cancelled,
	}
	for _, m := range res.Months {
		ms := MonthSummary{
			Month:        m.Target.String(),
			Pages:        m.Pages,
			Accepted:     m.Accepted,
			Duplicates:   m.Duplicates,
			Skipped:      m.Skipped,
			DetailErrors: m.DetailErrors,
		}
		if m.Err != nil {
			ms.Error = m.Err.Error()
		}
		s.Months = append(s.Months, ms)
	}
	return s
}

// WriteSummary writes the summary in the specified format
func WriteSummary(w io.Writer, s *Summary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatText:
		return writeText(w, s, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the summary as JSON
func writeJSON(w io.Writer, s *Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}

// writeText outputs the summary as human-readable text
func writeText(w io.Writer, s *Summary, verbose bool) error {
	fmt.Fprintf(w, "Collected %d events across %d months\n", s.Collected, len(s.Months))

	for _, m := range s.Months {
		if m.Error != "" {
			fmt.Fprintf(w, "  %s: %d pages, %d events, error: %s\n", m.Month, m.Pages, m.Accepted, m.Error)
			continue
		}
		fmt.Fprintf(w, "  %s: %d pages, %d events\n", m.Month, m.Pages, m.Accepted)
		if verbose {
			fmt.Fprintf(w, "       duplicates: %d, skipped: %d, detail errors: %d\n",
				m.Duplicates, m.Skipped, m.DetailErrors)
		}
	}

	if s.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", s.Filter)
	}

	if s.NewCount > 0 {
		fmt.Fprintf(w, "\n%d new since last run:\n", s.NewCount)
		for _, r := range s.NewRecords {
			fmt.Fprintf(w, "  NEW: %s %s\n", r.Date, r.Title)
			if verbose {
				fmt.Fprintf(w, "       URL: %s\n", r.DetailURL)
				if r.VenueAddress != "" {
					fmt.Fprintf(w, "       Venue: %s\n", r.VenueAddress)
				}
			}
		}
	}

	switch {
	case s.Error != "":
		fmt.Fprintf(w, "\nWriting %s failed: %s\n", s.Output, s.Error)
	case s.Written == 0:
		fmt.Fprintln(w, "\nNo events found; nothing written.")
	default:
		fmt.Fprintf(w, "\nWrote %d events to %s (%s)\n", s.Written, s.Output, s.Format)
	}

	if s.Cancelled {
		fmt.Fprintln(w, "Crawl was interrupted; results are partial.")
	}

	return nil
}
