// Package config provides configuration management for smartzip.
package config

// Default configuration values.
const (
	// DefaultInteractive reads paths from stdin only when it is a terminal.
	DefaultInteractive = "auto"

	// DefaultSummary disables the run summary.
	DefaultSummary = ""

	// DefaultLogLevel is the level written to the log file.
	DefaultLogLevel = "info"

	// DefaultConsoleLevel is the level echoed to stderr.
	DefaultConsoleLevel = "warn"

	// DefaultLogMaxSize is the size past which the log file is rotated.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxBackups is the number of rotated log files kept.
	DefaultLogMaxBackups = 3

	// DefaultRetentionDays is the number of days history entries are kept.
	DefaultRetentionDays = 30

	// AppName names the XDG subdirectories.
	AppName = "smartzip"

	// ConfigFileName is the config file inside ConfigDir.
	ConfigFileName = "config.yaml"

	// EnvPrefix prefixes environment overrides (SMARTZIP_CACHE_ENABLED).
	EnvPrefix = "SMARTZIP"
)

// DefaultExclusions is empty: an archive includes everything it is given.
var DefaultExclusions = []string{}
