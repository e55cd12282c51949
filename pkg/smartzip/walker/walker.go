// Package walker produces the filesystem entries that become archive
// entries: every file beneath a directory, plus every directory that ends
// up with no enumerable children. Directories that do have children never
// appear themselves; they are implied by the paths beneath them.
//
// The walk is depth-first and lazy. Only one directory level is read into
// memory at a time, and consumers can stop early by breaking out of the
// range loop.
//
// Symbolic links are followed. Link cycles are not detected and will walk
// forever; callers that archive untrusted trees should exclude them.
package walker

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

var logger = logging.Get("walker")

// Options configures a Walker.
type Options struct {
	// Exclude contains patterns for paths to leave out. Excluded children
	// do not count as children.
	Exclude []string

	// OnSkip is called for every path that became inaccessible during the
	// walk. It may be nil.
	OnSkip func(path string, err error)
}

// Walker walks directory trees.
type Walker struct {
	opts Options
}

// New creates a Walker.
func New(opts Options) *Walker {
	return &Walker{opts: opts}
}

// Walk returns the leaf-inclusive sequence of entries beneath dir.
// If dir is itself a regular file, the sequence holds just that file.
// Inaccessible paths are skipped and reported through OnSkip; the walk
// never fails.
func (w *Walker) Walk(dir string) iter.Seq[types.Entry] {
	return func(yield func(types.Entry) bool) {
		info, err := os.Stat(dir)
		if err != nil {
			w.skip(dir, err)
			return
		}
		switch {
		case info.IsDir():
			w.walkDir(dir, info, yield)
		case info.Mode().IsRegular():
			yield(fileEntry(dir, info))
		}
	}
}

// walkDir returns false once the consumer has stopped.
func (w *Walker) walkDir(dir string, info fs.FileInfo, yield func(types.Entry) bool) bool {
	children, err := os.ReadDir(dir)
	if err != nil {
		w.skip(dir, err)
		if errors.Is(err, fs.ErrNotExist) {
			return true
		}
		// Unreadable directories keep whatever ReadDir returned and fall
		// through, so a fully unreadable one becomes a leaf marker.
	}

	count := 0
	for _, child := range children {
		path := filepath.Join(dir, child.Name())
		if Excluded(path, w.opts.Exclude) {
			continue
		}

		childInfo, err := os.Stat(path)
		if err != nil {
			w.skip(path, err)
			continue
		}

		switch {
		case childInfo.IsDir():
			count++
			if !w.walkDir(path, childInfo, yield) {
				return false
			}
		case childInfo.Mode().IsRegular():
			count++
			if !yield(fileEntry(path, childInfo)) {
				return false
			}
		default:
			logger.Debug("skipping special file", "path", path, "mode", childInfo.Mode().String())
		}
	}

	if count == 0 {
		return yield(types.Entry{
			Kind:    types.KindDir,
			Path:    dir,
			ModTime: info.ModTime(),
		})
	}
	return true
}

func (w *Walker) skip(path string, err error) {
	logger.Debug("skipping inaccessible path", "path", path, "error", err)
	if w.opts.OnSkip != nil {
		w.opts.OnSkip(path, err)
	}
}

func fileEntry(path string, info fs.FileInfo) types.Entry {
	return types.Entry{
		Kind:    types.KindFile,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
