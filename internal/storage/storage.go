package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/ikoma-events/internal/event"
)

// DefaultDataDir is used when no data directory is configured
const DefaultDataDir = "~/.local/share/ikoma-events"

const snapshotFile = "snapshot.json"

// Storage handles persistence of crawl snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}

	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// ExpandHome expands a leading ~/ to the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Path returns the path of the snapshot file
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, snapshotFile)
}

// LoadSnapshot loads the previous snapshot from disk.
// A missing file yields an empty snapshot.
func (s *Storage) LoadSnapshot() (*event.Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			// No previous snapshot, return empty one
			return event.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Records == nil {
		snapshot.Records = make(map[string]*event.Record)
	}

	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk, replacing the previous one
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot) error {
	if snapshot.UpdatedAt == "" {
		snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	// Replace atomically via rename
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}

// SaveRecords creates and saves a snapshot of one run's records
func (s *Storage) SaveRecords(runID string, records []*event.Record) error {
	snapshot := event.CreateSnapshot(runID, records, time.Now())
	return s.SaveSnapshot(snapshot)
}
