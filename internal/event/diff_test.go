package event

import (
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	r1 := NewRecord("2025/12/01", "Event 1", "https://x/e1")
	r2 := NewRecord("2025/12/05", "Event 2", "https://x/e2")
	r3 := NewRecord("2026/01/10", "Event 3", "https://x/e3")
	gone := NewRecord("2025/11/20", "Old", "https://x/old")

	previous := CreateSnapshot("run-1", []*Record{r1, gone}, time.Now())

	result := Diff(previous, []*Record{r1, r2, r3})

	if len(result.NewRecords) != 2 {
		t.Fatalf("expected 2 new records, got %d", len(result.NewRecords))
	}
	if result.NewRecords[0] != r2 || result.NewRecords[1] != r3 {
		t.Error("new records should keep crawl order")
	}
	if len(result.Removed) != 1 || result.Removed[0].DetailURL != gone.DetailURL {
		t.Errorf("expected old record to be reported removed, got %v", result.Removed)
	}
}

func TestDiff_NilSnapshot(t *testing.T) {
	r1 := NewRecord("2025/12/01", "Event 1", "https://x/e1")

	result := Diff(nil, []*Record{r1})

	if len(result.NewRecords) != 1 {
		t.Errorf("all records should be new without a snapshot, got %d", len(result.NewRecords))
	}
	if len(result.Removed) != 0 {
		t.Errorf("expected no removed records, got %d", len(result.Removed))
	}
}

func TestCreateSnapshot(t *testing.T) {
	r1 := NewRecord("2025/12/01", "Event 1", "https://x/e1")
	at := time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC)

	snap := CreateSnapshot("run-1", []*Record{r1}, at)

	if snap.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", snap.RunID)
	}
	if snap.UpdatedAt != "2025-11-01T09:00:00Z" {
		t.Errorf("UpdatedAt = %q", snap.UpdatedAt)
	}
	if snap.Records[r1.ID()] != r1 {
		t.Error("snapshot should be keyed by record ID")
	}
}
