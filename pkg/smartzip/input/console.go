package input

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Interactive modes.
const (
	// ModeAuto reads stdin only when it is a terminal.
	ModeAuto = "auto"
	// ModeAlways reads stdin even when it is a pipe or file.
	ModeAlways = "always"
	// ModeNever disables interactive input.
	ModeNever = "never"
)

// IsConsole reports whether f is attached to a terminal.
func IsConsole(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ConsoleFor returns the reader to collect interactive paths from, or nil
// when the mode disables it for stdin.
func ConsoleFor(mode string, stdin *os.File) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAuto:
		if IsConsole(stdin) {
			return stdin, nil
		}
		return nil, nil
	case ModeAlways:
		return stdin, nil
	case ModeNever:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid interactive mode %q: want %s, %s or %s", mode, ModeAuto, ModeAlways, ModeNever)
	}
}

// NormalizeLine trims surrounding whitespace, then every leading and
// trailing double quote. Single quotes are kept.
// An empty result means the line is blank.
func NormalizeLine(line string) string {
	return strings.Trim(strings.TrimSpace(line), `"`)
}
