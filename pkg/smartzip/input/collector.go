// Package input merges the paths given on the command line with paths typed
// at the console into one lazy, deduplicated sequence of absolute paths.
//
// Console lines are read by a background goroutine into a Queue. The
// consumer only pulls from the queue after the arguments are exhausted, so
// typing is interleaved with archiving. An interrupt closes the queue (soft
// cancel); a second interrupt exits the process (hard cancel).
package input

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
)

// Prompt is printed once before interactive input is read.
const Prompt = "Input file/folders:"

var logger = logging.Get("input")

// Options configures a Collector.
type Options struct {
	// Args are the paths given on the command line.
	Args []string

	// Console supplies interactive paths, one per line. Nil disables
	// interactive input.
	Console io.Reader

	// Messages receives the prompt and the force-exit hint. Nil discards.
	Messages io.Writer

	// Interrupts delivers cancellation requests. Nil disables them.
	Interrupts <-chan os.Signal

	// Exit is called on a hard cancel. Nil means os.Exit.
	Exit func(int)
}

// Collector produces the merged input sequence.
type Collector struct {
	opts      Options
	queue     *Queue
	canceller *Canceller
	watchOnce sync.Once
	readOnce  sync.Once
}

// New creates a Collector.
func New(opts Options) *Collector {
	if opts.Messages == nil {
		opts.Messages = io.Discard
	}
	q := NewQueue()
	return &Collector{
		opts:      opts,
		queue:     q,
		canceller: NewCanceller(q, opts.Messages, opts.Exit),
	}
}

// Canceller returns the collector's cancellation state machine.
func (c *Collector) Canceller() *Canceller {
	return c.canceller
}

// Interrupted reports whether interactive input was soft-cancelled.
func (c *Collector) Interrupted() bool {
	return c.canceller.Interrupted()
}

// Paths returns the merged sequence: arguments first, then console lines
// in the order typed. Each raw path is made absolute and cleaned, then
// dropped if an identical absolute path was already produced. An error is
// yielded only when a path cannot be made absolute.
func (c *Collector) Paths() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		c.watchOnce.Do(func() {
			if c.opts.Interrupts != nil {
				go c.canceller.Watch(c.opts.Interrupts)
			}
		})

		seen := make(map[string]struct{})
		emit := func(raw string) bool {
			abs, err := filepath.Abs(raw)
			if err != nil {
				yield("", fmt.Errorf("resolving %q: %w", raw, err))
				return false
			}
			if _, dup := seen[abs]; dup {
				logger.Debug("dropping duplicate input", "path", abs)
				return true
			}
			seen[abs] = struct{}{}
			return yield(abs, nil)
		}

		for _, arg := range c.opts.Args {
			if !emit(arg) {
				return
			}
		}

		if c.opts.Console == nil {
			c.queue.Close()
			return
		}

		c.readOnce.Do(func() {
			go c.readConsole()
		})

		for {
			line, ok := c.queue.Take()
			if !ok {
				return
			}
			if !emit(line) {
				return
			}
		}
	}
}

// readConsole queues normalized lines until a blank line, end of input, or
// the queue closing.
func (c *Collector) readConsole() {
	defer c.queue.Close()

	if c.queue.Closed() {
		return
	}
	fmt.Fprintln(c.opts.Messages, Prompt)

	scanner := bufio.NewScanner(c.opts.Console)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := NormalizeLine(scanner.Text())
		if line == "" {
			return
		}
		if !c.queue.Add(line) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("reading console input", "error", err)
	}
}
