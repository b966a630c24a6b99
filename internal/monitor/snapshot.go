// Package monitor detects new and changed network addresses against a
// persisted baseline and drives the periodic notify cycle.
package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/hostsub/internal/apperr"
	"github.com/starford/hostsub/internal/netaddr"
)

// SnapshotFileName is the baseline file kept in the data directory.
const SnapshotFileName = "localIP.json"

// SnapshotFile persists the address baseline as a JSON array.
type SnapshotFile struct {
	path string
}

// NewSnapshotFile returns the snapshot stored under dataDir.
func NewSnapshotFile(dataDir string) *SnapshotFile {
	return &SnapshotFile{path: filepath.Join(dataDir, SnapshotFileName)}
}

// Path returns the snapshot file path.
func (s *SnapshotFile) Path() string { return s.path }

// Load returns the stored records. A missing file yields an empty slice and
// no error; an unreadable or corrupt one yields apperr.ErrSnapshot.
func (s *SnapshotFile) Load() ([]netaddr.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []netaddr.Record{}, nil
		}
		return nil, fmt.Errorf("monitor: read snapshot: %w: %w", apperr.ErrSnapshot, err)
	}
	var out []netaddr.Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("monitor: decode snapshot: %w: %w", apperr.ErrSnapshot, err)
	}
	if out == nil {
		out = []netaddr.Record{}
	}
	return out, nil
}

// Save atomically replaces the snapshot: tmp file -> fsync -> rename.
func (s *SnapshotFile) Save(records []netaddr.Record) error {
	if records == nil {
		records = []netaddr.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("monitor: encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("monitor: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".localIP-*.tmp")
	if err != nil {
		return fmt.Errorf("monitor: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("monitor: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("monitor: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("monitor: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("monitor: rename: %w", err)
	}
	success = true
	return nil
}
