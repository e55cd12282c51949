package input

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// ExitForced is the process exit code used for a hard cancel.
const ExitForced = 130

// ForceExitMessage is printed after the first cancellation request.
const ForceExitMessage = "Press Ctrl+C again to force exit."

// State is the cancellation state of interactive input.
type State int

const (
	// StateAccepting means interactive lines are still being queued.
	StateAccepting State = iota
	// StateClosed means the queue accepts nothing new; one more request
	// terminates the process.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	if s == StateClosed {
		return "closed"
	}
	return "accepting"
}

// Canceller is the two-stage cancellation state machine. The first request
// closes the queue (soft cancel); a request while the queue is already
// closed calls exit (hard cancel). Handle never blocks.
type Canceller struct {
	queue *Queue
	out   io.Writer
	exit  func(int)
	soft  atomic.Bool
}

// NewCanceller creates a Canceller over q. Messages go to out and a hard
// cancel calls exit, which defaults to os.Exit.
func NewCanceller(q *Queue, out io.Writer, exit func(int)) *Canceller {
	if out == nil {
		out = io.Discard
	}
	if exit == nil {
		exit = os.Exit
	}
	return &Canceller{queue: q, out: out, exit: exit}
}

// State returns the current state.
func (c *Canceller) State() State {
	if c.queue.Closed() {
		return StateClosed
	}
	return StateAccepting
}

// Interrupted reports whether a soft cancel has happened.
func (c *Canceller) Interrupted() bool {
	return c.soft.Load()
}

// Handle processes one cancellation request.
func (c *Canceller) Handle() {
	if !c.queue.Close() {
		logger.Warn("forced exit")
		c.exit(ExitForced)
		return
	}
	c.soft.Store(true)
	logger.Info("interactive input cancelled")
	fmt.Fprintln(c.out, ForceExitMessage)
}

// Watch calls Handle for every value received on requests until the
// channel is closed. Run it in its own goroutine.
func (c *Canceller) Watch(requests <-chan os.Signal) {
	for range requests {
		c.Handle()
	}
}
