package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"gopkg.in/yaml.v3"
)

var errEmptyResult = errors.New("result has neither a report nor a plan")

// document is the shared structure of the json and yaml formats.
type document struct {
	Report *reportDoc `json:"report,omitempty" yaml:"report,omitempty"`
	Plan   *planDoc   `json:"plan,omitempty" yaml:"plan,omitempty"`
}

type reportDoc struct {
	Output      string     `json:"output" yaml:"output"`
	Files       int64      `json:"files" yaml:"files"`
	Dirs        int64      `json:"dirs" yaml:"dirs"`
	Stored      int64      `json:"stored" yaml:"stored"`
	Deflated    int64      `json:"deflated" yaml:"deflated"`
	Probed      int64      `json:"probed" yaml:"probed"`
	CacheHits   int64      `json:"cache_hits" yaml:"cache_hits"`
	Bytes       int64      `json:"bytes" yaml:"bytes"`
	BytesHuman  string     `json:"bytes_human" yaml:"bytes_human"`
	Duration    string     `json:"duration" yaml:"duration"`
	Interrupted bool       `json:"interrupted" yaml:"interrupted"`
	Skipped     []string   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Missing     []string   `json:"missing,omitempty" yaml:"missing,omitempty"`
	Entries     []entryDoc `json:"entries,omitempty" yaml:"entries,omitempty"`
}

type entryDoc struct {
	Name   string  `json:"name" yaml:"name"`
	Method string  `json:"method" yaml:"method"`
	Size   int64   `json:"size" yaml:"size"`
	Ratio  float64 `json:"ratio,omitempty" yaml:"ratio,omitempty"`
}

type planDoc struct {
	Inputs     []string `json:"inputs" yaml:"inputs"`
	Files      int64    `json:"files" yaml:"files"`
	Bytes      int64    `json:"bytes" yaml:"bytes"`
	BytesHuman string   `json:"bytes_human" yaml:"bytes_human"`
	LeafDirs   int64    `json:"leaf_dirs" yaml:"leaf_dirs"`
	Probe      int64    `json:"probe" yaml:"probe"`
	ProbeBytes int64    `json:"probe_bytes" yaml:"probe_bytes"`
	Duration   string   `json:"duration" yaml:"duration"`
	Skipped    []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Missing    []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func buildDocument(r *Result) (document, error) {
	var doc document
	if r == nil || (r.Report == nil && r.Plan == nil) {
		return doc, errEmptyResult
	}

	if rep := r.Report; rep != nil {
		doc.Report = &reportDoc{
			Output:      rep.Output,
			Files:       rep.Files,
			Dirs:        rep.Dirs,
			Stored:      rep.Stored,
			Deflated:    rep.Deflated,
			Probed:      rep.Probed,
			CacheHits:   rep.CacheHits,
			Bytes:       rep.BytesIn,
			BytesHuman:  types.FormatSize(rep.BytesIn),
			Duration:    formatDurationString(rep.Duration),
			Interrupted: rep.Interrupted,
			Skipped:     rep.Skipped,
			Missing:     rep.Missing,
		}
		for _, e := range rep.Entries {
			ed := entryDoc{Name: e.Name, Method: e.Method.String(), Size: e.Size}
			if e.Ratio >= 0 {
				ed.Ratio = e.Ratio
			}
			doc.Report.Entries = append(doc.Report.Entries, ed)
		}
	}

	if p := r.Plan; p != nil {
		doc.Plan = &planDoc{
			Inputs:     p.Inputs,
			Files:      p.Files,
			Bytes:      p.Bytes,
			BytesHuman: types.FormatSize(p.Bytes),
			LeafDirs:   p.LeafDirs,
			Probe:      p.Probe,
			ProbeBytes: p.ProbeBytes,
			Duration:   formatDurationString(p.Duration),
			Skipped:    p.Skipped,
			Missing:    p.Missing,
		}
	}
	return doc, nil
}

// formatDurationString formats a duration for machine-readable output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// documentFormatter writes the shared document through an encoder. It
// backs both the json and yaml formats so their structure never drifts.
type documentFormatter struct {
	encode func(w io.Writer, doc document) error
}

func (f documentFormatter) Format(w *bytes.Buffer, r *Result) error {
	doc, err := buildDocument(r)
	if err != nil {
		return err
	}
	return f.encode(w, doc)
}

func encodeJSON(w io.Writer, doc document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func encodeYAML(w io.Writer, doc document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
