// Package manifest records the history of archive runs. Each run is one
// JSON file named after its ID in the manifest directory.
package manifest

import (
	"time"

	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

// Entry is a single recorded archive run.
type Entry struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Output      string       `json:"output"`
	Inputs      []string     `json:"inputs"`
	Files       []FileRecord `json:"files"`
	Summary     Summary      `json:"summary"`
	Missing     []string     `json:"missing,omitempty"`
	Skipped     []string     `json:"skipped,omitempty"`
	Interrupted bool         `json:"interrupted,omitempty"`
}

// FileRecord is one archived entry.
type FileRecord struct {
	Name   string       `json:"name"`
	Source string       `json:"source"`
	Method types.Method `json:"method"`
	Size   int64        `json:"size"`
	Ratio  float64      `json:"ratio"`
}

// Summary contains run totals.
type Summary struct {
	Files    int64         `json:"files"`
	Dirs     int64         `json:"dirs"`
	Stored   int64         `json:"stored"`
	Deflated int64         `json:"deflated"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
}
