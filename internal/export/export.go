// Package export writes crawled records to disk as CSV, JSON, iCalendar or
// SQLite.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/ikoma-events/internal/calendar"
	"github.com/pfrederiksen/ikoma-events/internal/event"
)

// Format is an output format
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatICS    Format = "ics"
	FormatSQLite Format = "sqlite"
)

// DefaultPath is the output file used when none is configured
const DefaultPath = "ikoma_events.csv"

// ErrUnknownFormat is returned for a format name that has no writer
var ErrUnknownFormat = errors.New("unknown output format")

// Header is the CSV header row, one column per record field
var Header = []string{
	"開催日",
	"開催時間",
	"イベント名",
	"開催場所",
	"開催場所の住所",
	"定員",
	"費用",
	"持ち物",
	"申し込み方法",
	"イベントページURL",
}

// ParseFormat converts a format name. An empty name is returned as is and
// means the format is taken from the file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV, FormatJSON, FormatICS, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

// DetectFormat picks the format for path. An explicit format wins; otherwise
// the extension decides, falling back to CSV.
func DetectFormat(path string, explicit Format) Format {
	if explicit != "" {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".ics", ".ical":
		return FormatICS
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// Row renders a record in Header order
func Row(r *event.Record) []string {
	return []string{
		r.Date,
		r.Time,
		r.Title,
		r.VenueName,
		r.VenueAddress,
		r.Capacity,
		r.Cost,
		r.ItemsToBring,
		r.ApplicationMethod,
		r.DetailURL,
	}
}

// WriteCSV writes the header and one row per record
func WriteCSV(w io.Writer, records []*event.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array
func WriteJSON(w io.Writer, records []*event.Record) error {
	if records == nil {
		records = []*event.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteFile writes records to path in the given format. File formats replace
// the file; SQLite upserts into an existing database.
func WriteFile(ctx context.Context, path string, format Format, records []*event.Record, now time.Time) error {
	if path == "" {
		return errors.New("no output path")
	}

	switch format {
	case FormatSQLite:
		return WriteSQLite(ctx, path, records, now)
	case FormatCSV, FormatJSON, FormatICS:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	switch format {
	case FormatJSON:
		err = WriteJSON(f, records)
	case FormatICS:
		_, err = calendar.Encode(f, records, now)
	default:
		err = WriteCSV(f, records)
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", format, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}
