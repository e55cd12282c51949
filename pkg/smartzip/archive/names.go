package archive

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

// Representable year range of the ZIP MS-DOS date field.
const (
	MinYear = 1980
	MaxYear = 2107
)

// RootFor returns the directory entry names are made relative to: the
// parent of input, or input itself when it has no parent.
func RootFor(input string) string {
	parent := filepath.Dir(input)
	if parent == input {
		return input
	}
	return parent
}

// EntryName returns the forward-slash name of e relative to root.
// Directory markers get a trailing slash.
func EntryName(root string, e types.Entry) (string, error) {
	rel, err := filepath.Rel(root, e.Path)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", e.Path, err)
	}
	name := strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/")
	name = strings.TrimLeft(name, "/")
	if e.IsDir() {
		name += "/"
	}
	return name, nil
}

// ClampModTime returns t, or 1980-01-01 00:00:00 in t's location when t's
// year falls outside MinYear..MaxYear.
func ClampModTime(t time.Time) time.Time {
	if y := t.Year(); y < MinYear || y > MaxYear {
		return time.Date(MinYear, time.January, 1, 0, 0, 0, 0, t.Location())
	}
	return t
}

// msDosTime encodes t in the MS-DOS date and time fields.
func msDosTime(t time.Time) (date, clock uint16) {
	date = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-MinYear)<<9)
	clock = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return date, clock
}
