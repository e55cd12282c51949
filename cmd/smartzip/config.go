package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jamesainslie/smartzip/pkg/smartzip/config"
	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage smartzip configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/smartzip/config.yaml (if set)
  2. ~/.config/smartzip/config.yaml

Environment variables can override config file settings using the SMARTZIP_ prefix:
  SMARTZIP_INTERACTIVE=never
  SMARTZIP_SUMMARY=json
  SMARTZIP_CACHE_ENABLED=true`,
	// Config subcommands run with default logging, even when the file is broken.
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return logging.Init(logging.Config{
			Level:        config.DefaultLogLevel,
			ConsoleLevel: consoleLevel(config.DefaultConsoleLevel),
			Console:      stderr,
		})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

// envOverrides lists the environment variables smartzip reads.
var envOverrides = []string{
	"exclude",
	"interactive",
	"summary",
	"logging.level",
	"logging.console_level",
	"logging.path",
	"logging.max_size",
	"logging.max_backups",
	"cache.enabled",
	"cache.path",
	"manifest.enabled",
	"manifest.path",
	"manifest.retention_days",
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// envName maps a config key to its environment variable.
func envName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		// Show defaults anyway
		v := viper.New()
		config.SetDefaults(v)
		if cfg, err = config.FromViper(v); err != nil {
			return err
		}
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", configFile)
	} else {
		fmt.Fprintln(out, "Config file: (using defaults, no file found)")
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "exclude:                 %v\n", cfg.Exclude)
	fmt.Fprintf(out, "interactive:             %s\n", cfg.Interactive)
	fmt.Fprintf(out, "summary:                 %q\n", cfg.Summary)
	fmt.Fprintf(out, "logging.level:           %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "logging.console_level:   %q\n", cfg.Logging.ConsoleLevel)
	fmt.Fprintf(out, "logging.path:            %s\n", cfg.Logging.Path)
	fmt.Fprintf(out, "logging.rotation:        %s, %d backups\n", cfg.Logging.MaxSize, cfg.Logging.MaxBackups)
	fmt.Fprintf(out, "cache.enabled:           %t\n", cfg.Cache.Enabled)
	fmt.Fprintf(out, "cache.path:              %s\n", cfg.Cache.Path)
	fmt.Fprintf(out, "manifest.enabled:        %t\n", cfg.Manifest.Enabled)
	fmt.Fprintf(out, "manifest.path:           %s\n", cfg.Manifest.Path)
	fmt.Fprintf(out, "manifest.retention:      %d days\n", cfg.Manifest.RetentionDays)

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	anyOverrides := false
	for _, key := range envOverrides {
		name := envName(key)
		if val := os.Getenv(name); val != "" {
			fmt.Fprintf(out, "%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(out, "(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(configPath); err == nil {
		printInfo(out, "Config file already exists: %s", configPath)
		printInfo(out, "Use 'smartzip config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo(out, "Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
