package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jamesainslie/smartzip/pkg/smartzip/config"
	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// configErr holds a config file read failure until a command runs.
	configErr error

	// stderr receives diagnostics, prompts, and summaries. Standard output
	// may carry the archive itself.
	stderr io.Writer = os.Stderr

	rootCmd = &cobra.Command{
		Use:   "smartzip <output> [inputs...]",
		Short: "Create ZIP archives that only compress what compresses",
		Long: `smartzip writes a ZIP archive of the given files and directories.

Files under 1 MiB are always deflated. Larger files are first compressed
at the fastest level into a byte counter; they are deflated at maximum
effort only when that trial shrinks them below 90% of their size, and
stored otherwise. Empty directories are kept as directory entries.

Use "-" as the output to write the archive to standard output. When
standard input is a terminal, further paths are read from it after the
arguments, one per line, until EOF or a blank line. The first Ctrl+C ends
input and lets the archive finish; the second aborts immediately.

Examples:
  smartzip backup.zip ~/projects/site      # Archive a directory
  smartzip - docs notes.txt > out.zip      # Write to stdout
  find . -name '*.log' | smartzip -i always logs.zip
  smartzip plan ~/projects/site            # Preview without writing
  smartzip history                         # List past archive runs`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		PersistentPreRunE: initializeLogging,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logging.Close()
		},
		RunE: runArchive,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/smartzip/config.yaml)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors to stderr")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Archive flags
	rootCmd.Flags().StringP("interactive", "i", "", "read paths from stdin: auto, always, never")
	rootCmd.Flags().StringP("summary", "s", "", "print a run summary to stderr: pretty, plain, json, yaml")
	rootCmd.Flags().Bool("cache", false, "reuse trial ratios of unchanged large files")
	rootCmd.Flags().Bool("no-manifest", false, "do not record this run in history")

	// Bind flags to viper
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("interactive", rootCmd.Flags().Lookup("interactive"))
	_ = viper.BindPFlag("summary", rootCmd.Flags().Lookup("summary"))
	_ = viper.BindPFlag("cache.enabled", rootCmd.Flags().Lookup("cache"))
	_ = viper.BindPFlag("no_manifest", rootCmd.Flags().Lookup("no-manifest"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	config.Configure(viper.GetViper(), cfgFile)
	configErr = config.ReadInConfig(viper.GetViper())
}

// loadConfig decodes the merged flag, env, file, and default settings.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	return config.FromViper(viper.GetViper())
}

// initializeLogging configures file and console logging before any
// command runs.
func initializeLogging(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rotation, err := cfg.Logging.Rotation()
	if err != nil {
		return err
	}
	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		ConsoleLevel: consoleLevel(cfg.Logging.ConsoleLevel),
		Console:      stderr,
		Rotation:     rotation,
	}
	if err := logging.Init(logCfg); err != nil {
		// A log file we cannot open should not stop the archive.
		logCfg.Path = ""
		if retryErr := logging.Init(logCfg); retryErr != nil {
			return fmt.Errorf("failed to initialize logging: %w", retryErr)
		}
		printVerbose("log file disabled: %v", err)
	}
	return nil
}

// consoleLevel applies --verbose and --quiet to the configured level.
func consoleLevel(configured string) string {
	switch {
	case getQuiet():
		return "error"
	case getVerbose():
		return "debug"
	default:
		return configured
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message to stderr if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to w if quiet mode is not enabled.
func printInfo(w io.Writer, format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(w, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
}
