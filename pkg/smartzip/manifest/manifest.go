package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

var (
	// ErrNotFound is returned when no entry matches an ID.
	ErrNotFound = errors.New("manifest entry not found")

	// ErrAmbiguousID is returned when an ID prefix matches several entries.
	ErrAmbiguousID = errors.New("manifest ID prefix is ambiguous")
)

var logger = logging.Get("manifest")

// DefaultDir returns $XDG_DATA_HOME/smartzip/history.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "smartzip", "history")
}

// Manifest manages run records on the filesystem.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New creates a Manifest for dir. The directory is created on the first
// write.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("manifest directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// Dir returns the manifest directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// EnsureDir creates the manifest directory if it does not exist.
func (m *Manifest) EnsureDir() error {
	return os.MkdirAll(m.dir, 0o755)
}

// Record persists a completed run and returns the created entry.
func (m *Manifest) Record(inputs []string, report *types.Report) (*Entry, error) {
	if report == nil {
		return nil, errors.New("report cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Output:      report.Output,
		Inputs:      inputs,
		Files:       make([]FileRecord, 0, len(report.Entries)),
		Missing:     report.Missing,
		Skipped:     report.Skipped,
		Interrupted: report.Interrupted,
		Summary: Summary{
			Files:    report.Files,
			Dirs:     report.Dirs,
			Stored:   report.Stored,
			Deflated: report.Deflated,
			Bytes:    report.BytesIn,
			Duration: report.Duration,
		},
	}
	for _, e := range report.Entries {
		entry.Files = append(entry.Files, FileRecord{
			Name:   e.Name,
			Source: e.Source,
			Method: e.Method,
			Size:   e.Size,
			Ratio:  e.Ratio,
		})
	}

	if err := m.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := m.writeEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to write manifest entry: %w", err)
	}

	logger.Debug("run recorded", "id", entry.ID, "files", entry.Summary.Files)
	return entry, nil
}

// writeEntry writes an entry atomically through a temp file and rename.
func (m *Manifest) writeEntry(entry *Entry) error {
	filePath := filepath.Join(m.dir, entry.ID+".json")

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of 0 or less returns all.
func (m *Manifest) List(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry whose ID equals id or, failing that, the single
// entry whose ID starts with it.
func (m *Manifest) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}

	var match *Entry
	for i := range entries {
		switch {
		case entries[i].ID == id:
			return &entries[i], nil
		case strings.HasPrefix(entries[i].ID, id):
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
			}
			match = &entries[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Cleanup removes entries recorded more than retentionDays ago and
// returns how many were removed.
func (m *Manifest) Cleanup(retentionDays int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		if !entry.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.ID+".json")); err != nil {
			logger.Warn("failed to remove manifest entry", "id", entry.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// readAll parses every entry file. Unparseable files are skipped.
func (m *Manifest) readAll() ([]Entry, error) {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		entry, err := m.readEntryFile(f.Name())
		if err != nil {
			logger.Debug("skipping unreadable manifest file", "file", f.Name(), "error", err)
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (m *Manifest) readEntryFile(filename string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &entry, nil
}
