package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/jamesainslie/smartzip/pkg/smartzip/advisor"
	"github.com/jamesainslie/smartzip/pkg/smartzip/archive"
	"github.com/jamesainslie/smartzip/pkg/smartzip/cache"
	"github.com/jamesainslie/smartzip/pkg/smartzip/config"
	"github.com/jamesainslie/smartzip/pkg/smartzip/input"
	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/jamesainslie/smartzip/pkg/smartzip/manifest"
	"github.com/jamesainslie/smartzip/pkg/smartzip/output"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// stdoutName selects standard output as the archive destination.
const stdoutName = "-"

var archiveLogger = logging.Get("cli")

// exitFunc terminates the process on a hard cancel.
var exitFunc = os.Exit

// runArchive is the root command handler: smartzip <output> [inputs...].
func runArchive(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Usage()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Summary != "" {
		if _, err := output.Get(cfg.Summary); err != nil {
			return fmt.Errorf("invalid summary format: %w", err)
		}
	}

	console, err := input.ConsoleFor(cfg.Interactive, os.Stdin)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	return archiveRun(ctx, runOptions{
		Output:     args[0],
		Inputs:     args[1:],
		Config:     cfg,
		Console:    console,
		Interrupts: interrupts,
		Stdout:     os.Stdout,
		NoManifest: viper.GetBool("no_manifest"),
	})
}

// runOptions carries everything one archive run needs.
type runOptions struct {
	Output     string
	Inputs     []string
	Config     *config.Config
	Console    io.Reader
	Interrupts <-chan os.Signal
	Stdout     io.Writer
	NoManifest bool
}

// archiveRun writes the archive, then records and summarizes the run.
func archiveRun(ctx context.Context, opts runOptions) error {
	cfg := opts.Config
	exclude := append([]string(nil), cfg.Exclude...)

	dst, closeDst, err := openOutput(opts.Output, opts.Stdout)
	if err != nil {
		return err
	}
	if opts.Output != stdoutName {
		// Never archive the archive being written.
		if abs, err := filepath.Abs(opts.Output); err == nil {
			exclude = append(exclude, abs)
		}
	}

	advisorOpts := []advisor.Option{advisor.WithDiagnostics(stderr)}
	if cfg.Cache.Enabled {
		store, err := cache.OpenStore(cfg.Cache.Path)
		if err != nil {
			archiveLogger.Warn("ratio cache unavailable", "path", cfg.Cache.Path, "error", err)
		} else {
			defer store.Close()
			advisorOpts = append(advisorOpts, advisor.WithCache(store))
		}
	}

	collector := input.New(input.Options{
		Args:       opts.Inputs,
		Console:    opts.Console,
		Messages:   stderr,
		Interrupts: opts.Interrupts,
		Exit:       exitFunc,
	})

	recordEntries := cfg.Summary != "" || (cfg.Manifest.Enabled && !opts.NoManifest)
	builder := archive.New(dst, archive.Options{
		Output:  opts.Output,
		Exclude: exclude,
		Advisor: advisor.New(advisorOpts...),
		Record:  recordEntries,
	})

	var inputs []string
	report, err := builder.Build(ctx, collect(collector.Paths(), &inputs))
	if err != nil {
		_ = closeDst()
		return fmt.Errorf("archive failed: %w", err)
	}
	if err := closeDst(); err != nil {
		return fmt.Errorf("closing %s: %w", opts.Output, err)
	}
	report.Interrupted = collector.Interrupted()

	if cfg.Manifest.Enabled && !opts.NoManifest {
		recordRun(cfg.Manifest.Path, inputs, report)
	}

	if cfg.Summary != "" {
		text, err := output.Render(cfg.Summary, &output.Result{Report: report})
		if err != nil {
			return err
		}
		fmt.Fprint(stderr, text)
	}
	return nil
}

// openOutput opens the archive destination. The returned close function
// leaves standard output open.
func openOutput(name string, stdout io.Writer) (io.Writer, func() error, error) {
	if name == stdoutName {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("creating archive: %w", err)
	}
	return f, f.Close, nil
}

// collect passes seq through and appends every path it yields to dst.
func collect(seq iter.Seq2[string, error], dst *[]string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for path, err := range seq {
			if err == nil {
				*dst = append(*dst, path)
			}
			if !yield(path, err) {
				return
			}
		}
	}
}

// recordRun appends the run to history. Failures are logged only.
func recordRun(dir string, inputs []string, report *types.Report) {
	m, err := manifest.New(dir)
	if err != nil {
		archiveLogger.Warn("history disabled", "error", err)
		return
	}
	entry, err := m.Record(inputs, report)
	if err != nil {
		archiveLogger.Warn("failed to record run", "error", err)
		return
	}
	printVerbose("recorded run %s", entry.ID)
}
