package main

import (
	"context"
	"fmt"

	"github.com/jamesainslie/smartzip/pkg/smartzip/input"
	"github.com/jamesainslie/smartzip/pkg/smartzip/output"
	"github.com/jamesainslie/smartzip/pkg/smartzip/survey"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <inputs...>",
	Short: "Preview what an archive run would write",
	Long: `Survey the inputs without reading file contents or writing an archive.

Reports the number of files and bytes, the empty directories that would
become directory entries, and how many files are large enough to get a
trial compression. Exclusion patterns apply as for a real run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

var (
	planFormat  string
	planWorkers int
)

func init() {
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "pretty", "output format: pretty, plain, json, yaml")
	planCmd.Flags().IntVarP(&planWorkers, "workers", "w", 0, "parallel walkers (0=auto)")
	rootCmd.AddCommand(planCmd)
}

// runPlan surveys the inputs and prints the plan to stdout.
func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := output.Get(planFormat); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	collector := input.New(input.Options{Args: args})
	surveyor := survey.New(survey.Options{
		Exclude: cfg.Exclude,
		Workers: planWorkers,
	})

	plan, err := surveyor.Plan(ctx, collector.Paths())
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	text, err := output.Render(planFormat, &output.Result{Plan: plan})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
