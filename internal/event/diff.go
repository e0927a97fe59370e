package event

import (
	"sort"
	"time"
)

// Snapshot represents the records collected by one crawl
type Snapshot struct {
	RunID     string             `json:"run_id,omitempty"`
	Records   map[string]*Record `json:"records"`    // keyed by Record.ID
	UpdatedAt string             `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Records: make(map[string]*Record),
	}
}

// CreateSnapshot creates a snapshot from a list of records
func CreateSnapshot(runID string, records []*Record, updatedAt time.Time) *Snapshot {
	snap := NewSnapshot()
	snap.RunID = runID
	snap.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	for _, r := range records {
		snap.Records[r.ID()] = r
	}
	return snap
}

// DiffResult contains the results of comparing a crawl with a snapshot
type DiffResult struct {
	NewRecords []*Record
	Removed    []*Record // in the snapshot but not in the crawl
}

// Diff compares current records against a previous snapshot
func Diff(previous *Snapshot, current []*Record) *DiffResult {
	result := &DiffResult{
		NewRecords: make([]*Record, 0),
		Removed:    make([]*Record, 0),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	seen := make(map[string]bool, len(current))
	for _, r := range current {
		id := r.ID()
		seen[id] = true
		if _, exists := previous.Records[id]; !exists {
			result.NewRecords = append(result.NewRecords, r)
		}
	}

	for id, r := range previous.Records {
		if !seen[id] {
			result.Removed = append(result.Removed, r)
		}
	}

	// Map iteration order is random
	sort.Slice(result.Removed, func(i, j int) bool {
		if result.Removed[i].Date != result.Removed[j].Date {
			return result.Removed[i].Date < result.Removed[j].Date
		}
		return result.Removed[i].DetailURL < result.Removed[j].DetailURL
	})

	return result
}
