// Package survey predicts what an archive run would write without opening
// any file contents. It walks every input in parallel with fastwalk and
// counts files, bytes, leaf directories, and the files large enough to
// need a trial compression.
package survey

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/smartzip/pkg/smartzip/advisor"
	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"github.com/jamesainslie/smartzip/pkg/smartzip/walker"
)

var logger = logging.Get("survey")

// Options configures a Surveyor.
type Options struct {
	// Exclude contains the same patterns the walker honors.
	Exclude []string

	// Workers is the number of fastwalk workers. Zero uses fastwalk's default.
	Workers int
}

// Surveyor computes a Plan for a set of inputs.
type Surveyor struct {
	opts Options
}

// New creates a Surveyor.
func New(opts Options) *Surveyor {
	return &Surveyor{opts: opts}
}

// tally collects counts from concurrent walk callbacks.
type tally struct {
	mu       sync.Mutex
	plan     *types.Plan
	dirs     map[string]struct{}
	children map[string]int
}

func (t *tally) file(path string, size int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plan.Files++
	t.plan.Bytes += size
	if size >= advisor.SizeThreshold {
		t.plan.Probe++
		t.plan.ProbeBytes += size
	}
	t.children[filepath.Dir(path)]++
}

func (t *tally) dir(path string, isRoot bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirs[path] = struct{}{}
	if !isRoot {
		t.children[filepath.Dir(path)]++
	}
}

func (t *tally) skip(path string, err error) {
	logger.Debug("skipping inaccessible path", "path", path, "error", err)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plan.Skipped = append(t.plan.Skipped, path)
}

// leaves counts directories that received no children and resets the
// per-input maps.
func (t *tally) leaves() {
	for dir := range t.dirs {
		if t.children[dir] == 0 {
			t.plan.LeafDirs++
		}
	}
	t.dirs = make(map[string]struct{})
	t.children = make(map[string]int)
}

// Plan surveys every input. Inputs are expected to be absolute and
// deduplicated, as produced by input.Collector.
func (s *Surveyor) Plan(ctx context.Context, inputs iter.Seq2[string, error]) (*types.Plan, error) {
	start := time.Now()
	t := &tally{
		plan:     &types.Plan{},
		dirs:     make(map[string]struct{}),
		children: make(map[string]int),
	}

	for input, err := range inputs {
		if err != nil {
			return nil, err
		}
		t.plan.Inputs = append(t.plan.Inputs, input)

		info, err := os.Stat(input)
		switch {
		case err != nil:
			logger.Warn("input not found", "path", input, "error", err)
			t.plan.Missing = append(t.plan.Missing, input)
		case info.Mode().IsRegular():
			t.file(input, info.Size())
		case info.IsDir():
			if err := s.walk(ctx, input, t); err != nil {
				return nil, err
			}
			t.leaves()
		default:
			logger.Warn("input is not a file or directory", "path", input)
			t.plan.Missing = append(t.plan.Missing, input)
		}
	}

	t.plan.Duration = time.Since(start)
	return t.plan, nil
}

func (s *Surveyor) walk(ctx context.Context, root string, t *tally) error {
	conf := fastwalk.Config{
		Follow:     true,
		NumWorkers: s.opts.Workers,
	}

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			t.skip(path, err)
			return nil
		}

		isRoot := path == root
		if !isRoot && walker.Excluded(path, s.opts.Exclude) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		typ := d.Type()
		if typ&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(path)
			if statErr != nil {
				t.skip(path, statErr)
				return nil
			}
			typ = info.Mode().Type()
		}

		switch {
		case typ.IsDir():
			t.dir(path, isRoot)
		case typ.IsRegular():
			info, infoErr := os.Stat(path)
			if infoErr != nil {
				t.skip(path, infoErr)
				return nil
			}
			t.file(path, info.Size())
		default:
			logger.Debug("ignoring special file", "path", path, "mode", typ.String())
		}
		return nil
	})

	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("surveying %s: %w", root, err)
	}
	return nil
}
