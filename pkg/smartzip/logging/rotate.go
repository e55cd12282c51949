package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Rotation defaults.
const (
	DefaultMaxSize    int64 = 10 << 20
	DefaultMaxBackups       = 3
)

// backupStamp sorts lexically in time order.
const backupStamp = "2006-01-02-150405.000000"

// Rotation bounds the size of the log file.
type Rotation struct {
	// MaxSize is the size in bytes past which the file is rotated.
	// Zero means DefaultMaxSize.
	MaxSize int64

	// MaxBackups is the number of rotated files kept. Zero keeps all.
	MaxBackups int
}

// rotatingFile is an append-only log file that moves itself aside to
// path.<stamp>.ext once a write would take it past MaxSize.
type rotatingFile struct {
	path string
	rot  Rotation
	now  func() time.Time

	mu   sync.Mutex
	file *os.File
	size int64
}

func openRotating(path string, rot Rotation) (*rotatingFile, error) {
	if rot.MaxSize <= 0 {
		rot.MaxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &rotatingFile{path: path, rot: rot, now: time.Now}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.prune()
	return w, nil
}

func (w *rotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.rot.MaxSize {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *rotatingFile) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

func (w *rotatingFile) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	ext := filepath.Ext(w.path)
	backup := fmt.Sprintf("%s.%s%s", strings.TrimSuffix(w.path, ext), w.now().Format(backupStamp), ext)
	if err := os.Rename(w.path, backup); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := w.open(); err != nil {
		return err
	}
	w.prune()
	return nil
}

// backups returns the rotated files of path, oldest first.
func (w *rotatingFile) backups() []string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == base || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		names = append(names, filepath.Join(dir, name))
	}
	slices.Sort(names)
	return names
}

func (w *rotatingFile) prune() {
	if w.rot.MaxBackups <= 0 {
		return
	}
	backups := w.backups()
	for len(backups) > w.rot.MaxBackups {
		_ = os.Remove(backups[0])
		backups = backups[1:]
	}
}
