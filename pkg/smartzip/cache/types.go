// Package cache persists trial compression ratios between runs so that
// re-archiving unchanged large files skips the trial pass. Entries are
// keyed by absolute path and are only valid for the exact size and
// modification time they were measured at.
package cache

import (
	"bytes"
	"encoding/gob"
)

// CacheVersion is incremented when the entry format changes.
const CacheVersion = 1

// keyPrefix namespaces ratio entries inside the store.
const keyPrefix = "ratio\x00"

// RatioEntry is a cached trial result.
type RatioEntry struct {
	Version int
	Size    int64
	Mtime   int64 // UnixNano
	Ratio   float64
}

// Encode serializes the entry to bytes using gob.
func (e *RatioEntry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *RatioEntry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey creates the store key for a path.
func MakeKey(path string) []byte {
	return []byte(keyPrefix + path)
}
