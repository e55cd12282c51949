package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
)

// TestInit tests the Init function with various configurations.
// Note: These tests cannot run in parallel; they modify global state.
func TestInit(t *testing.T) {
	validDir := t.TempDir()
	debugDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name:    "valid config with file",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(validDir, "test.log")},
			wantErr: false,
		},
		{
			name:    "debug level nested path",
			cfg:     logging.Config{Level: "debug", Path: filepath.Join(debugDir, "a", "b", "debug.log")},
			wantErr: false,
		},
		{
			name:    "no file and no console",
			cfg:     logging.Config{},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     logging.Config{Level: "loud"},
			wantErr: true,
		},
		{
			name:    "invalid console level",
			cfg:     logging.Config{ConsoleLevel: "shout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if closeErr := logging.Close(); closeErr != nil {
				t.Errorf("Close() error = %v", closeErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{" error ", logging.LevelError, false},
		{"nope", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, logging.ErrInvalidLevel) {
				t.Errorf("error = %v, want ErrInvalidLevel", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGet_BeforeInitIsSilent(t *testing.T) {
	logger := logging.Get("silent-before-init")
	// Must not panic and must not write anywhere observable.
	logger.Info("nobody hears this", "k", "v")
}

func TestConsoleOutput(t *testing.T) {
	var console bytes.Buffer
	logger := logging.Get("console-test")

	if err := logging.Init(logging.Config{ConsoleLevel: "warn", Console: &console}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer logging.Close()

	logger.Info("below threshold")
	logger.Warn("above threshold", "path", "/tmp/x")

	out := console.String()
	if strings.Contains(out, "below threshold") {
		t.Errorf("console got info message: %q", out)
	}
	if !strings.Contains(out, "above threshold") {
		t.Errorf("console missing warn message: %q", out)
	}
	if !strings.Contains(out, "console-test") {
		t.Errorf("console missing component prefix: %q", out)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartzip.log")
	if err := logging.Init(logging.Config{Level: "debug", Path: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("file-test").With("run", 1).Debug("probe", "ratio", 0.5)

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "probe") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := logging.DefaultLogPath()
	if !strings.HasSuffix(path, filepath.Join("smartzip", "smartzip.log")) {
		t.Errorf("DefaultLogPath() = %q", path)
	}
}
