package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// isolate points HOME and XDG_CONFIG_HOME at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeConfig(t *testing.T, home, content string) string {
	t.Helper()
	dir := filepath.Join(home, ".config", AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Interactive != DefaultInteractive {
		t.Errorf("Interactive = %q, want %q", cfg.Interactive, DefaultInteractive)
	}
	if cfg.Summary != DefaultSummary {
		t.Errorf("Summary = %q, want %q", cfg.Summary, DefaultSummary)
	}
	if len(cfg.Exclude) != 0 {
		t.Errorf("Exclude = %v, want empty", cfg.Exclude)
	}
	if cfg.Logging.Level != DefaultLogLevel || cfg.Logging.ConsoleLevel != DefaultConsoleLevel {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Logging.Path != DefaultLogPath() {
		t.Errorf("Logging.Path = %q, want %q", cfg.Logging.Path, DefaultLogPath())
	}
	if rot, err := cfg.Logging.Rotation(); err != nil || rot.MaxSize != 10_000_000 || rot.MaxBackups != DefaultLogMaxBackups {
		t.Errorf("Logging.Rotation() = %+v, %v", rot, err)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
	if cfg.Cache.Path != DefaultCachePath() {
		t.Errorf("Cache.Path = %q, want %q", cfg.Cache.Path, DefaultCachePath())
	}
	if !cfg.Manifest.Enabled {
		t.Error("Manifest.Enabled = false, want true")
	}
	if cfg.Manifest.RetentionDays != DefaultRetentionDays {
		t.Errorf("Manifest.RetentionDays = %d, want %d", cfg.Manifest.RetentionDays, DefaultRetentionDays)
	}
}

func TestLoad_FromFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `
exclude:
  - "*.tmp"
  - /data/scratch
interactive: never
summary: json
logging:
  level: debug
  console_level: ""
  path: ~/logs/smartzip.log
cache:
  enabled: true
  path: /var/cache/smartzip
manifest:
  enabled: false
  retention_days: 7
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Exclude) != 2 || cfg.Exclude[0] != "*.tmp" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if cfg.Interactive != "never" {
		t.Errorf("Interactive = %q, want never", cfg.Interactive)
	}
	if cfg.Summary != "json" {
		t.Errorf("Summary = %q, want json", cfg.Summary)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.ConsoleLevel != "" {
		t.Errorf("Logging.ConsoleLevel = %q, want empty", cfg.Logging.ConsoleLevel)
	}
	if want := filepath.Join(home, "logs", "smartzip.log"); cfg.Logging.Path != want {
		t.Errorf("Logging.Path = %q, want %q", cfg.Logging.Path, want)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Path != "/var/cache/smartzip" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Manifest.Enabled || cfg.Manifest.RetentionDays != 7 {
		t.Errorf("Manifest = %+v", cfg.Manifest)
	}
}

func TestLoad_XDGConfigHome(t *testing.T) {
	isolate(t)
	xdgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgHome)

	dir := filepath.Join(xdgHome, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("summary: plain\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Summary != "plain" {
		t.Errorf("Summary = %q, want plain", cfg.Summary)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SMARTZIP_INTERACTIVE", "always")
	t.Setenv("SMARTZIP_CACHE_ENABLED", "true")
	t.Setenv("SMARTZIP_MANIFEST_RETENTION_DAYS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Interactive != "always" {
		t.Errorf("Interactive = %q, want always", cfg.Interactive)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true from env")
	}
	if cfg.Manifest.RetentionDays != 3 {
		t.Errorf("Manifest.RetentionDays = %d, want 3", cfg.Manifest.RetentionDays)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "interactive", content: "interactive: sometimes\n", wantErr: "interactive mode"},
		{name: "log level", content: "logging:\n  level: loud\n", wantErr: "logging.level"},
		{name: "log size", content: "logging:\n  max_size: huge\n", wantErr: "logging.max_size"},
		{name: "log backups", content: "logging:\n  max_backups: -2\n", wantErr: "logging.max_backups"},
		{name: "retention", content: "manifest:\n  retention_days: -1\n", wantErr: "retention_days"},
		{name: "malformed yaml", content: "summary: [\n", wantErr: "failed to read config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			writeConfig(t, home, tt.content)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigure_ExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("summary: yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	Configure(v, path)
	if err := ReadInConfig(v); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper() error = %v", err)
	}
	if cfg.Summary != "yaml" {
		t.Errorf("Summary = %q, want yaml", cfg.Summary)
	}
	if v.ConfigFileUsed() != path {
		t.Errorf("ConfigFileUsed() = %q, want %q", v.ConfigFileUsed(), path)
	}
}

func TestConfigDir(t *testing.T) {
	home := isolate(t)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join(home, ".config", AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/xdg", AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestWriteDefault(t *testing.T) {
	isolate(t)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "interactive: auto") {
		t.Errorf("default config missing interactive key:\n%s", data)
	}

	// The written file must load cleanly.
	if _, err := Load(); err != nil {
		t.Errorf("Load() after WriteDefault error = %v", err)
	}

	if err := os.WriteFile(path, []byte("summary: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteDefault(); err != nil {
		t.Fatalf("second WriteDefault() error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "summary: json\n" {
		t.Error("WriteDefault() overwrote an existing config")
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	tests := []struct {
		in   string
		want string
	}{
		{in: "/abs/path", want: "/abs/path"},
		{in: "relative", want: "relative"},
		{in: "~/x/y", want: filepath.Join(home, "x", "y")},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
