package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pfrederiksen/ikoma-events/internal/event"

	_ "modernc.org/sqlite"
)

const schema = `
    CREATE TABLE IF NOT EXISTS events (
        detail_url TEXT NOT NULL,
        date TEXT NOT NULL,
        time TEXT,
        title TEXT,
        venue_name TEXT,
        venue_address TEXT,
        capacity TEXT,
        cost TEXT,
        items_to_bring TEXT,
        application_method TEXT,
        crawled_at TEXT,
        PRIMARY KEY (detail_url, date)
    );`

const upsert = `INSERT INTO events (
		detail_url, date, time, title, venue_name, venue_address, capacity, cost, items_to_bring, application_method, crawled_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (detail_url, date) DO UPDATE SET
		time = excluded.time,
		title = excluded.title,
		venue_name = excluded.venue_name,
		venue_address = excluded.venue_address,
		capacity = excluded.capacity,
		cost = excluded.cost,
		items_to_bring = excluded.items_to_bring,
		application_method = excluded.application_method,
		crawled_at = excluded.crawled_at`

// WriteSQLite upserts records into the events table of the database at path,
// creating both if needed.
func WriteSQLite(ctx context.Context, path string, records []*event.Record, now time.Time) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	crawledAt := now.UTC().Format(time.RFC3339)
	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.DetailURL, r.Date, r.Time, r.Title, r.VenueName, r.VenueAddress, r.Capacity, r.Cost, r.ItemsToBring, r.ApplicationMethod, crawledAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", r.DetailURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
