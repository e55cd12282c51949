package advisor

import "io"

// Counter is an io.Writer that only counts the bytes written to it.
// It has no backing storage and never fails.
type Counter struct {
	n int64
}

// Write records len(p) more bytes.
func (c *Counter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// Count returns the number of bytes written since the last Reset.
func (c *Counter) Count() int64 {
	return c.n
}

// Reset zeroes the counter and returns it for chaining.
func (c *Counter) Reset() *Counter {
	c.n = 0
	return c
}

var _ io.Writer = (*Counter)(nil)
