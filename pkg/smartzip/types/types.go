// Package types provides core data types for the smartzip archiver.
// It includes the filesystem entries produced by the walker, the archive
// entries handed to the container writer, and the run report, along with
// helpers for formatting sizes.
package types

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// Kind discriminates the filesystem objects an Entry can describe.
type Kind int

const (
	// KindFile is a regular file.
	KindFile Kind = iota
	// KindDir is a directory with no enumerable children.
	KindDir
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is a filesystem object discovered during a walk.
// Every Entry is either a real file or a directory proven to have no
// enumerable children at the time of the walk.
type Entry struct {
	// Kind is KindFile or KindDir.
	Kind Kind `json:"kind"`

	// Path is the absolute path of the object.
	Path string `json:"path"`

	// Size is the byte length for files, zero for directories.
	Size int64 `json:"size"`

	// ModTime is the last modification time as reported by the filesystem.
	ModTime time.Time `json:"mod_time"`
}

// IsDir reports whether the entry is a leaf directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindDir
}

// Method is the storage method of an archive entry.
type Method int

const (
	// MethodStore writes the raw bytes.
	MethodStore Method = iota
	// MethodDeflate compresses at maximum effort.
	MethodDeflate
)

// String returns the string representation of the method.
func (m Method) String() string {
	switch m {
	case MethodStore:
		return "store"
	case MethodDeflate:
		return "deflate"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so reports encode the name.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	switch string(text) {
	case "deflate":
		*m = MethodDeflate
	default:
		*m = MethodStore
	}
	return nil
}

// ArchiveEntry is a single entry written to the container.
type ArchiveEntry struct {
	// Name is the forward-slash relative path. Directory markers end in "/".
	Name string `json:"name" yaml:"name"`

	// Kind mirrors the kind of the source Entry.
	Kind Kind `json:"-" yaml:"-"`

	// Modified is the clamped last-modified timestamp.
	Modified time.Time `json:"modified" yaml:"modified"`

	// Method is the storage method. Always MethodStore for directories.
	Method Method `json:"method" yaml:"method"`

	// Size is the uncompressed byte length.
	Size int64 `json:"size" yaml:"size"`

	// Ratio is the trial compression ratio, or -1 when no trial ran.
	Ratio float64 `json:"ratio" yaml:"ratio"`

	// Source is the absolute path the entry was read from.
	Source string `json:"source" yaml:"source"`
}

// Report summarizes a completed archive run.
type Report struct {
	// Output is the destination path, or "-" for standard output.
	Output string `json:"output" yaml:"output"`

	// Entries lists every entry written, in write order.
	Entries []ArchiveEntry `json:"entries" yaml:"entries"`

	// Files is the number of file entries written.
	Files int64 `json:"files" yaml:"files"`

	// Dirs is the number of directory markers written.
	Dirs int64 `json:"dirs" yaml:"dirs"`

	// Stored is the number of files written uncompressed.
	Stored int64 `json:"stored" yaml:"stored"`

	// Deflated is the number of files written compressed.
	Deflated int64 `json:"deflated" yaml:"deflated"`

	// Probed is the number of files that went through a trial compression.
	Probed int64 `json:"probed" yaml:"probed"`

	// CacheHits is the number of trial ratios served from the ratio cache.
	CacheHits int64 `json:"cache_hits" yaml:"cache_hits"`

	// BytesIn is the total uncompressed size of all files.
	BytesIn int64 `json:"bytes_in" yaml:"bytes_in"`

	// Skipped lists paths that became inaccessible during traversal.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Missing lists inputs that were neither a file nor a directory.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Interrupted is set when interactive input was soft-cancelled.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// Plan summarizes a dry-run survey of the inputs.
type Plan struct {
	// Inputs are the absolute input paths surveyed.
	Inputs []string `json:"inputs" yaml:"inputs"`

	// Files is the number of files that would be archived.
	Files int64 `json:"files" yaml:"files"`

	// Bytes is the total size of those files.
	Bytes int64 `json:"bytes" yaml:"bytes"`

	// LeafDirs is the number of directory markers that would be written.
	LeafDirs int64 `json:"leaf_dirs" yaml:"leaf_dirs"`

	// Probe is the number of files large enough to need a trial compression.
	Probe int64 `json:"probe" yaml:"probe"`

	// ProbeBytes is the total size of the files in Probe.
	ProbeBytes int64 `json:"probe_bytes" yaml:"probe_bytes"`

	// Skipped lists paths that could not be read.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Missing lists inputs that were neither a file nor a directory.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`

	// Duration is the wall time of the survey.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// FormatSize converts a size in bytes to a human-readable string
// using binary (IEC) units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
