package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/smartzip/pkg/smartzip/input"
	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	ConsoleLevel string `mapstructure:"console_level"`
	Path         string `mapstructure:"path"`
	MaxSize      string `mapstructure:"max_size"`
	MaxBackups   int    `mapstructure:"max_backups"`
}

// Rotation converts the size and backup settings for the logging package.
func (l LoggingConfig) Rotation() (logging.Rotation, error) {
	rot := logging.Rotation{MaxBackups: l.MaxBackups}
	if l.MaxSize == "" {
		return rot, nil
	}
	size, err := humanize.ParseBytes(l.MaxSize)
	if err != nil {
		return rot, fmt.Errorf("logging.max_size: %w", err)
	}
	rot.MaxSize = int64(size)
	return rot, nil
}

// CacheConfig configures the trial ratio cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ManifestConfig configures archive history.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Exclude     []string       `mapstructure:"exclude"`
	Interactive string         `mapstructure:"interactive"`
	Summary     string         `mapstructure:"summary"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Manifest    ManifestConfig `mapstructure:"manifest"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("interactive", DefaultInteractive)
	v.SetDefault("summary", DefaultSummary)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.console_level", DefaultConsoleLevel)
	v.SetDefault("logging.path", DefaultLogPath())
	v.SetDefault("logging.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.max_backups", DefaultLogMaxBackups)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", DefaultCachePath())

	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.path", DefaultManifestPath())
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)
}

// Configure sets up v to search the standard config locations (or use
// cfgFile when set) and read SMARTZIP_ environment overrides.
func Configure(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, AppName))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", AppName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// ReadInConfig reads the config file into v. A missing file is not an
// error.
func ReadInConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/smartzip/config.yaml
//   - $HOME/.config/smartzip/config.yaml
//
// Environment variables are prefixed with SMARTZIP_ (e.g. SMARTZIP_SUMMARY).
func Load() (*Config, error) {
	v := viper.New()
	Configure(v, "")
	if err := ReadInConfig(v); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes, expands, and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.Logging.Path, &cfg.Cache.Path, &cfg.Manifest.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Interactive) {
	case "", input.ModeAuto, input.ModeAlways, input.ModeNever:
	default:
		return fmt.Errorf("invalid interactive mode %q: want %s, %s or %s",
			c.Interactive, input.ModeAuto, input.ModeAlways, input.ModeNever)
	}

	for key, level := range map[string]string{
		"logging.level":         c.Logging.Level,
		"logging.console_level": c.Logging.ConsoleLevel,
	} {
		if level == "" {
			continue
		}
		if _, err := logging.ParseLevel(level); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	if _, err := c.Logging.Rotation(); err != nil {
		return err
	}
	if c.Logging.MaxBackups < 0 {
		return fmt.Errorf("logging.max_backups must not be negative, got %d", c.Logging.MaxBackups)
	}

	if c.Manifest.RetentionDays < 0 {
		return fmt.Errorf("manifest.retention_days must not be negative, got %d", c.Manifest.RetentionDays)
	}
	return nil
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the path of the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// WriteDefault writes a default config file if none exists and returns
// its path. An existing file is left untouched.
func WriteDefault() (string, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# smartzip configuration

# Paths or glob patterns to leave out of archives
exclude: []

# Read extra paths from stdin after the arguments: auto, always, never
interactive: %s

# Print a run summary to stderr: "", pretty, plain, json, yaml
summary: "%s"

logging:
  # Log file level: debug, info, warn, error
  level: %s
  # Level echoed to stderr (empty disables console logging)
  console_level: %s
  # Log file path (empty disables the log file)
  path: %q
  # Rotate the log file past this size, keeping this many old files
  max_size: %s
  max_backups: %d

# Remember trial compression ratios of unchanged large files
cache:
  enabled: false
  path: %q

# Record every archive run for 'smartzip history'
manifest:
  enabled: true
  path: %q
  retention_days: %d
`, DefaultInteractive, DefaultSummary, DefaultLogLevel, DefaultConsoleLevel,
		DefaultLogPath(), DefaultLogMaxSize, DefaultLogMaxBackups, DefaultCachePath(), DefaultManifestPath(), DefaultRetentionDays)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return configPath, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DefaultLogPath returns $XDG_STATE_HOME/smartzip/smartzip.log.
func DefaultLogPath() string {
	return logging.DefaultLogPath()
}

// DefaultCachePath returns $XDG_CACHE_HOME/smartzip/ratios.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, AppName, "ratios")
}

// DefaultManifestPath returns $XDG_DATA_HOME/smartzip/history.
func DefaultManifestPath() string {
	return filepath.Join(xdg.DataHome, AppName, "history")
}
