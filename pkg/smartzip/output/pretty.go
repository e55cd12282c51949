package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

// maxPrettyEntries caps the entry table.
const maxPrettyEntries = 50

// PrettyFormatter formats output for a terminal using lipgloss styles.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r == nil || (r.Report == nil && r.Plan == nil) {
		return errEmptyResult
	}
	if r.Report != nil {
		f.formatReport(w, r.Report)
	}
	if r.Plan != nil {
		f.formatPlan(w, r.Plan)
	}
	return nil
}

func (f *PrettyFormatter) formatReport(w *bytes.Buffer, rep *types.Report) {
	lines := []string{
		titleText.Render("Archive ") + pathText.Render(rep.Output),
		strings.Join([]string{
			field("Files:", fmt.Sprintf("%d", rep.Files)),
			field("Dirs:", fmt.Sprintf("%d", rep.Dirs)),
			labelText.Render("Total:") + " " + sizeText.Render(types.FormatSize(rep.BytesIn)),
			field("Time:", formatDuration(rep.Duration)),
		}, "  "),
		strings.Join([]string{
			labelText.Render("Deflated:") + " " + deflatedText.Render(fmt.Sprintf("%d", rep.Deflated)),
			field("Stored:", fmt.Sprintf("%d", rep.Stored)),
			field("Probed:", fmt.Sprintf("%d", rep.Probed)),
			field("Cached:", fmt.Sprintf("%d", rep.CacheHits)),
		}, "  "),
	}
	if rep.Interrupted {
		lines = append(lines, noticeText.Render("Input interrupted by user"))
	}
	w.WriteString(totalsBox.Render(strings.Join(lines, "\n")))
	w.WriteString("\n")

	if len(rep.Entries) > 0 {
		w.WriteString(formatEntries(rep.Entries))
	}
	if footer := formatProblems(rep.Missing, rep.Skipped); footer != "" {
		w.WriteString(footer)
		w.WriteString("\n")
	}
}

func (f *PrettyFormatter) formatPlan(w *bytes.Buffer, p *types.Plan) {
	lines := []string{titleText.Render("Plan")}
	for _, in := range p.Inputs {
		lines = append(lines, labelText.Render("Input:")+" "+pathText.Render(in))
	}
	lines = append(lines,
		strings.Join([]string{
			field("Files:", fmt.Sprintf("%d", p.Files)),
			labelText.Render("Total:") + " " + sizeText.Render(types.FormatSize(p.Bytes)),
			field("Empty dirs:", fmt.Sprintf("%d", p.LeafDirs)),
		}, "  "),
		strings.Join([]string{
			field("To probe:", fmt.Sprintf("%d", p.Probe)),
			labelText.Render("Probe size:") + " " + sizeText.Render(types.FormatSize(p.ProbeBytes)),
			field("Time:", formatDuration(p.Duration)),
		}, "  "),
	)
	w.WriteString(totalsBox.Render(strings.Join(lines, "\n")))
	w.WriteString("\n")

	if footer := formatProblems(p.Missing, p.Skipped); footer != "" {
		w.WriteString(footer)
		w.WriteString("\n")
	}
}

func field(label, value string) string {
	return labelText.Render(label) + " " + pathText.Render(value)
}

func formatEntries(entries []types.ArchiveEntry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
		columnText.Render(padRight("METHOD", 7)),
		columnText.Render(padLeft("SIZE", 10)),
		columnText.Render(padLeft("RATIO", 6)),
		columnText.Render("NAME"),
	))

	shown := entries
	if len(shown) > maxPrettyEntries {
		shown = shown[:maxPrettyEntries]
	}
	for _, e := range shown {
		method := methodText(e.Method).Render(padRight(e.Method.String(), 7))
		size := "-"
		if e.Kind == types.KindFile {
			size = types.FormatSize(e.Size)
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
			method,
			sizeText.Render(padLeft(size, 10)),
			dimText.Render(padLeft(formatRatio(e.Ratio), 6)),
			pathText.Render(e.Name),
		))
	}
	if len(entries) > len(shown) {
		sb.WriteString(dimText.Render(fmt.Sprintf("  ... and %d more entries", len(entries)-len(shown))))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatProblems renders missing inputs and skipped paths, or "" when
// there are none.
func formatProblems(missing, skipped []string) string {
	if len(missing) == 0 && len(skipped) == 0 {
		return ""
	}

	var lines []string
	for _, p := range missing {
		lines = append(lines, missingText.Render("missing ")+pathText.Render(p))
	}
	for _, p := range skipped {
		lines = append(lines, skippedText.Render("skipped ")+pathText.Render(p))
	}
	return problemsBox.Render(strings.Join(lines, "\n"))
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
