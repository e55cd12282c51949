// Package advisor decides, per file, whether an archive entry should be
// stored or deflated at maximum effort. Small files are always compressed.
// Large files are first run through the fastest deflate level into a
// byte-counting sink, and only compressed for real when that trial saves
// at least ten percent.
package advisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"github.com/klauspost/compress/flate"
)

// Fixed policy constants.
const (
	// SizeThreshold is the length below which files skip the trial.
	SizeThreshold = types.MiB

	// RatioThreshold is the trial ratio below which a file is compressed.
	RatioThreshold = 0.9

	// TrialLevel is the deflate level used for the trial.
	TrialLevel = flate.BestSpeed

	// EncodeLevel is the deflate level used for the real encode.
	EncodeLevel = flate.BestCompression
)

// NoRatio marks a decision that was made without a trial.
const NoRatio = -1.0

var logger = logging.Get("advisor")

// Cache stores trial ratios between runs.
type Cache interface {
	// Lookup returns a ratio recorded for the same path, size and mtime.
	Lookup(path string, size int64, modTime time.Time) (float64, bool)

	// Store records a ratio.
	Store(path string, size int64, modTime time.Time, ratio float64) error
}

// Decision is the outcome of Advise.
type Decision struct {
	// Method is the chosen storage method.
	Method types.Method

	// Ratio is the trial ratio, or NoRatio when no trial was needed.
	Ratio float64

	// Probed is true when a trial compression ran for this file.
	Probed bool

	// Cached is true when the ratio came from the cache.
	Cached bool
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithDiagnostics sets the writer that receives one line per trial.
// The default is io.Discard.
func WithDiagnostics(w io.Writer) Option {
	return func(a *Advisor) {
		if w != nil {
			a.diag = w
		}
	}
}

// WithCache enables ratio caching.
func WithCache(c Cache) Option {
	return func(a *Advisor) {
		a.cache = c
	}
}

// Advisor makes storage decisions. It owns one reusable Counter and one
// reusable trial encoder, so it is not safe for concurrent use.
type Advisor struct {
	counter Counter
	trial   *flate.Writer
	buf     []byte
	diag    io.Writer
	cache   Cache
}

// New creates an Advisor.
func New(opts ...Option) *Advisor {
	a := &Advisor{
		diag: io.Discard,
		buf:  make([]byte, 64*types.KiB),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MethodFor applies the ratio rule: strictly below RatioThreshold compresses.
func MethodFor(ratio float64) types.Method {
	if ratio < RatioThreshold {
		return types.MethodDeflate
	}
	return types.MethodStore
}

// Advise decides the storage method for a file entry. open is only called
// when a trial is needed.
func (a *Advisor) Advise(e types.Entry, open func() (io.ReadCloser, error)) (Decision, error) {
	if e.Size < SizeThreshold {
		return Decision{Method: types.MethodDeflate, Ratio: NoRatio}, nil
	}

	if a.cache != nil {
		if ratio, ok := a.cache.Lookup(e.Path, e.Size, e.ModTime); ok {
			logger.Debug("ratio cache hit", "path", e.Path, "ratio", ratio)
			return Decision{Method: MethodFor(ratio), Ratio: ratio, Cached: true}, nil
		}
	}

	rc, err := open()
	if err != nil {
		return Decision{}, fmt.Errorf("opening %s for trial: %w", e.Path, err)
	}
	ratio, trialBytes, err := a.Ratio(rc, e.Size)
	closeErr := rc.Close()
	if err != nil {
		return Decision{}, fmt.Errorf("trial compressing %s: %w", e.Path, err)
	}
	if closeErr != nil {
		return Decision{}, fmt.Errorf("closing %s after trial: %w", e.Path, closeErr)
	}

	fmt.Fprintf(a.diag, "F %d/%d = %.4f : %s\n", trialBytes, e.Size, ratio, e.Path)
	logger.Debug("trial compression", "path", e.Path, "trial", trialBytes, "size", e.Size, "ratio", ratio)

	if a.cache != nil {
		if err := a.cache.Store(e.Path, e.Size, e.ModTime, ratio); err != nil {
			logger.Warn("failed to cache ratio", "path", e.Path, "error", err)
		}
	}

	return Decision{Method: MethodFor(ratio), Ratio: ratio, Probed: true}, nil
}

// AdviseFile is Advise with the entry's path opened from disk.
func (a *Advisor) AdviseFile(e types.Entry) (Decision, error) {
	return a.Advise(e, func() (io.ReadCloser, error) {
		return os.Open(e.Path)
	})
}

// Ratio streams r through the trial encoder into the counter and returns
// trialBytes/size together with trialBytes. The compressed bytes are not
// retained.
func (a *Advisor) Ratio(r io.Reader, size int64) (float64, int64, error) {
	trialBytes, err := a.Measure(r)
	if err != nil {
		return 0, 0, err
	}
	if size <= 0 {
		return 0, trialBytes, errors.New("size must be positive")
	}
	return float64(trialBytes) / float64(size), trialBytes, nil
}

// Measure returns the number of bytes the trial level produces for r.
func (a *Advisor) Measure(r io.Reader) (int64, error) {
	sink := a.counter.Reset()
	if a.trial == nil {
		w, err := flate.NewWriter(sink, TrialLevel)
		if err != nil {
			return 0, fmt.Errorf("creating trial encoder: %w", err)
		}
		a.trial = w
	} else {
		a.trial.Reset(sink)
	}

	if _, err := io.CopyBuffer(a.trial, r, a.buf); err != nil {
		return 0, err
	}
	if err := a.trial.Close(); err != nil {
		return 0, err
	}
	return sink.Count(), nil
}
