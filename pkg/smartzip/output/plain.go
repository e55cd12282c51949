package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

// PlainFormatter formats output as tab-aligned text without styling,
// suitable for scripting.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r == nil || (r.Report == nil && r.Plan == nil) {
		return errEmptyResult
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if r.Report != nil {
		writeReportPlain(tw, r.Report)
	}
	if r.Plan != nil {
		writePlanPlain(tw, r.Plan)
	}
	return tw.Flush()
}

func writeReportPlain(tw *tabwriter.Writer, rep *types.Report) {
	fmt.Fprintf(tw, "output\t%s\n", rep.Output)
	fmt.Fprintf(tw, "files\t%d\n", rep.Files)
	fmt.Fprintf(tw, "dirs\t%d\n", rep.Dirs)
	fmt.Fprintf(tw, "stored\t%d\n", rep.Stored)
	fmt.Fprintf(tw, "deflated\t%d\n", rep.Deflated)
	fmt.Fprintf(tw, "probed\t%d\n", rep.Probed)
	fmt.Fprintf(tw, "cache_hits\t%d\n", rep.CacheHits)
	fmt.Fprintf(tw, "bytes\t%d\n", rep.BytesIn)
	fmt.Fprintf(tw, "duration\t%s\n", rep.Duration)
	if rep.Interrupted {
		fmt.Fprintf(tw, "interrupted\ttrue\n")
	}
	for _, p := range rep.Missing {
		fmt.Fprintf(tw, "missing\t%s\n", p)
	}
	for _, p := range rep.Skipped {
		fmt.Fprintf(tw, "skipped\t%s\n", p)
	}

	if len(rep.Entries) == 0 {
		return
	}
	fmt.Fprintf(tw, "\nMETHOD\tSIZE\tRATIO\tNAME\n")
	for _, e := range rep.Entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.Method, e.Size, formatRatio(e.Ratio), e.Name)
	}
}

func writePlanPlain(tw *tabwriter.Writer, p *types.Plan) {
	for _, in := range p.Inputs {
		fmt.Fprintf(tw, "input\t%s\n", in)
	}
	fmt.Fprintf(tw, "files\t%d\n", p.Files)
	fmt.Fprintf(tw, "bytes\t%d\n", p.Bytes)
	fmt.Fprintf(tw, "leaf_dirs\t%d\n", p.LeafDirs)
	fmt.Fprintf(tw, "probe\t%d\n", p.Probe)
	fmt.Fprintf(tw, "probe_bytes\t%d\n", p.ProbeBytes)
	fmt.Fprintf(tw, "duration\t%s\n", p.Duration)
	for _, m := range p.Missing {
		fmt.Fprintf(tw, "missing\t%s\n", m)
	}
	for _, s := range p.Skipped {
		fmt.Fprintf(tw, "skipped\t%s\n", s)
	}
}

// formatRatio renders a trial ratio, or "-" when none was measured.
func formatRatio(ratio float64) string {
	if ratio < 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f", ratio)
}
