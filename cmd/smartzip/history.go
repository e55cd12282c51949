package main

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/smartzip/pkg/smartzip/config"
	"github.com/jamesainslie/smartzip/pkg/smartzip/manifest"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View archive history",
	Long: `View the history of archive runs.

Every successful run is recorded with its inputs, output, and the storage
method chosen for each entry.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific run",
	Long:  `Display a recorded run by its ID or a unique ID prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getManifest returns a manifest for the configured directory.
func getManifest() (*manifest.Manifest, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize manifest: %w", err)
	}
	return m, cfg, nil
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, _ []string) error {
	m, _, err := getManifest()
	if err != nil {
		return err
	}

	entries, err := m.List(0)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		printInfo(out, "No history entries found.")
		printInfo(out, "Run 'smartzip <output> <inputs...>' to create an archive.")
		return nil
	}

	total := len(entries)
	if historyLimit > 0 && total > historyLimit {
		entries = entries[:historyLimit]
	}

	fmt.Fprintf(out, "\n%-36s  %-19s  %-8s  %-10s  %s\n", "ID", "DATE", "FILES", "SIZE", "OUTPUT")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, entry := range entries {
		fmt.Fprintf(out, "%-36s  %-19s  %-8d  %-10s  %s\n",
			entry.ID,
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			entry.Summary.Files,
			types.FormatSize(entry.Summary.Bytes),
			truncateString(entry.Output, 40),
		)
	}
	fmt.Fprintln(out, strings.Repeat("-", 100))
	fmt.Fprintf(out, "\nShowing %d of %d entries. Use --limit to see more.\n", len(entries), total)
	fmt.Fprintln(out, "Use 'smartzip history show <id>' for details on a specific entry.")
	return nil
}

// runHistoryShow displays details of a specific run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	m, _, err := getManifest()
	if err != nil {
		return err
	}

	entry, err := m.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nArchive Run")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "ID:         %s\n", entry.ID)
	fmt.Fprintf(out, "Timestamp:  %s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Output:     %s\n", entry.Output)
	for _, in := range entry.Inputs {
		fmt.Fprintf(out, "Input:      %s\n", in)
	}
	fmt.Fprintf(out, "Files:      %d (%d deflated, %d stored)\n",
		entry.Summary.Files, entry.Summary.Deflated, entry.Summary.Stored)
	fmt.Fprintf(out, "Dirs:       %d\n", entry.Summary.Dirs)
	fmt.Fprintf(out, "Total Size: %s\n", types.FormatSize(entry.Summary.Bytes))
	fmt.Fprintf(out, "Duration:   %s\n", entry.Summary.Duration)
	if entry.Interrupted {
		fmt.Fprintln(out, "Input was interrupted by the user.")
	}
	for _, p := range entry.Missing {
		fmt.Fprintf(out, "Missing:    %s\n", p)
	}
	for _, p := range entry.Skipped {
		fmt.Fprintf(out, "Skipped:    %s\n", p)
	}

	if len(entry.Files) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nEntries:")
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintf(out, "%-8s  %-12s  %-6s  %s\n", "METHOD", "SIZE", "RATIO", "NAME")
	fmt.Fprintln(out, strings.Repeat("-", 60))

	limit := min(len(entry.Files), 50)
	for _, file := range entry.Files[:limit] {
		ratio := "-"
		if file.Ratio >= 0 {
			ratio = fmt.Sprintf("%.4f", file.Ratio)
		}
		fmt.Fprintf(out, "%-8s  %-12s  %-6s  %s\n", file.Method, types.FormatSize(file.Size), ratio, file.Name)
	}
	if len(entry.Files) > limit {
		fmt.Fprintf(out, "\n... and %d more entries\n", len(entry.Files)-limit)
	}
	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(cmd *cobra.Command, _ []string) error {
	m, cfg, err := getManifest()
	if err != nil {
		return err
	}

	retentionDays := cfg.Manifest.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	out := cmd.OutOrStdout()
	printInfo(out, "Cleaning history entries older than %d days...", retentionDays)

	removed, err := m.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo(out, "Removed %d entries.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
