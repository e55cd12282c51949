// Package archive builds a ZIP container from input paths. For every input
// it picks a root, walks the input, and writes one entry per walked file or
// leaf directory. File entries are stored or deflated as the advisor
// decides; directory markers carry no data.
package archive

import (
	"context"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"time"

	"github.com/jamesainslie/smartzip/pkg/smartzip/advisor"
	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"github.com/jamesainslie/smartzip/pkg/smartzip/walker"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

var logger = logging.Get("archive")

// Options configures a Builder.
type Options struct {
	// Output names the destination in the report ("-" for stdout).
	Output string

	// Exclude contains patterns passed to the walker.
	Exclude []string

	// Advisor makes storage decisions. Nil uses advisor.New().
	Advisor *advisor.Advisor

	// Record keeps every written entry in the report.
	Record bool
}

// Builder writes archive entries to a zip stream. It is not safe for
// concurrent use.
type Builder struct {
	opts    Options
	zw      *zip.Writer
	advisor *advisor.Advisor
	walker  *walker.Walker
	buf     []byte
	report  *types.Report
}

// New creates a Builder writing to w. The zip stream does not need w to
// be seekable.
func New(w io.Writer, opts Options) *Builder {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, advisor.EncodeLevel)
	})

	adv := opts.Advisor
	if adv == nil {
		adv = advisor.New()
	}

	b := &Builder{
		opts:    opts,
		zw:      zw,
		advisor: adv,
		buf:     make([]byte, 64*types.KiB),
		report:  &types.Report{Output: opts.Output},
	}
	b.walker = walker.New(walker.Options{
		Exclude: opts.Exclude,
		OnSkip:  b.recordSkip,
	})
	return b
}

// Build consumes inputs, writes every entry, and closes the zip stream.
// The underlying writer is left open.
func (b *Builder) Build(ctx context.Context, inputs iter.Seq2[string, error]) (*types.Report, error) {
	start := time.Now()

	for input, err := range inputs {
		if err != nil {
			return nil, err
		}
		if err := b.AddInput(ctx, input); err != nil {
			return nil, err
		}
	}

	if err := b.zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing archive: %w", err)
	}

	b.report.Duration = time.Since(start)
	logger.Info("archive complete",
		"files", b.report.Files,
		"dirs", b.report.Dirs,
		"stored", b.report.Stored,
		"deflated", b.report.Deflated,
		"bytes", b.report.BytesIn,
	)
	return b.report, nil
}

// AddInput archives one absolute input path: a file becomes a single
// entry, a directory is walked. Inputs that are neither are reported as
// missing.
func (b *Builder) AddInput(ctx context.Context, input string) error {
	root := RootFor(input)

	info, err := os.Stat(input)
	switch {
	case err != nil:
		logger.Warn("input not found", "path", input, "error", err)
		b.report.Missing = append(b.report.Missing, input)
		return nil
	case info.Mode().IsRegular(), info.IsDir():
	default:
		logger.Warn("input is not a file or directory", "path", input)
		b.report.Missing = append(b.report.Missing, input)
		return nil
	}

	logger.Debug("archiving input", "path", input, "root", root)
	for e := range b.walker.Walk(input) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.AddEntry(root, e); err != nil {
			return err
		}
	}
	return nil
}

// AddEntry writes one walked entry relative to root.
func (b *Builder) AddEntry(root string, e types.Entry) error {
	name, err := EntryName(root, e)
	if err != nil {
		return err
	}
	if e.IsDir() {
		return b.addDir(name, e)
	}
	return b.addFile(name, e)
}

func (b *Builder) addDir(name string, e types.Entry) error {
	modified := ClampModTime(e.ModTime)
	hdr := &zip.FileHeader{Name: name, Method: zip.Store}
	setModified(hdr, modified)

	if _, err := b.zw.CreateHeader(hdr); err != nil {
		return fmt.Errorf("writing directory entry %s: %w", name, err)
	}

	b.report.Dirs++
	b.record(types.ArchiveEntry{
		Name:     name,
		Kind:     types.KindDir,
		Modified: modified,
		Method:   types.MethodStore,
		Ratio:    advisor.NoRatio,
		Source:   e.Path,
	})
	return nil
}

func (b *Builder) addFile(name string, e types.Entry) error {
	decision, err := b.advisor.AdviseFile(e)
	if err != nil {
		return err
	}

	f, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", e.Path, err)
	}
	defer f.Close()

	modified := ClampModTime(e.ModTime)
	hdr := &zip.FileHeader{Name: name, Method: zipMethod(decision.Method)}
	setModified(hdr, modified)
	hdr.SetMode(0o644)

	w, err := b.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	n, err := io.CopyBuffer(w, f, b.buf)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", e.Path, err)
	}

	b.report.Files++
	b.report.BytesIn += n
	if decision.Method == types.MethodDeflate {
		b.report.Deflated++
	} else {
		b.report.Stored++
	}
	if decision.Probed {
		b.report.Probed++
	}
	if decision.Cached {
		b.report.CacheHits++
	}

	logger.Debug("entry written", "name", name, "method", decision.Method.String(), "size", n)
	b.record(types.ArchiveEntry{
		Name:     name,
		Kind:     types.KindFile,
		Modified: modified,
		Method:   decision.Method,
		Size:     n,
		Ratio:    decision.Ratio,
		Source:   e.Path,
	})
	return nil
}

func (b *Builder) record(entry types.ArchiveEntry) {
	if b.opts.Record {
		b.report.Entries = append(b.report.Entries, entry)
	}
}

func (b *Builder) recordSkip(path string, _ error) {
	b.report.Skipped = append(b.report.Skipped, path)
}

func zipMethod(m types.Method) uint16 {
	if m == types.MethodDeflate {
		return zip.Deflate
	}
	return zip.Store
}

// setModified stores t in the header. The extended timestamp field holds a
// uint32 of Unix seconds, so times past it are written to the MS-DOS fields
// only.
func setModified(hdr *zip.FileHeader, t time.Time) {
	if t.Unix() >= 0 && t.Unix() <= math.MaxUint32 {
		hdr.Modified = t
		return
	}
	//nolint:staticcheck // the MS-DOS fields are the only encoding for these dates
	hdr.ModifiedDate, hdr.ModifiedTime = msDosTime(t)
}
