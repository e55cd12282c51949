// Package output renders archive reports and survey plans as pretty,
// plain, json, or yaml text.
//
//	text, err := output.Render("plain", &output.Result{Report: report})
package output

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

// ErrUnknownFormat is returned for a format name with no formatter.
var ErrUnknownFormat = errors.New("unknown format")

// Result is the data handed to a formatter. Exactly one of Report and Plan
// is expected to be set.
type Result struct {
	// Report is the outcome of an archive run.
	Report *types.Report

	// Plan is the outcome of a survey.
	Plan *types.Plan
}

// Formatter renders a Result into w.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// formats holds the formatters selectable by name. All are stateless.
var formats = map[string]Formatter{
	"pretty": &PrettyFormatter{},
	"plain":  &PlainFormatter{},
	"json":   documentFormatter{encode: encodeJSON},
	"yaml":   documentFormatter{encode: encodeYAML},
}

// Get returns the formatter for name, ignoring case.
func Get(name string) (Formatter, error) {
	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Available(), ", "))
	}
	return f, nil
}

// Available returns the format names in sorted order.
func Available() []string {
	return slices.Sorted(maps.Keys(formats))
}

// Render formats r with the named formatter and returns the text.
func Render(name string, r *Result) (string, error) {
	formatter, err := Get(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return "", fmt.Errorf("formatting %s output: %w", name, err)
	}
	return buf.String(), nil
}
