package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

func sampleReport() *types.Report {
	return &types.Report{
		Output:   "/tmp/out.zip",
		Files:    2,
		Dirs:     1,
		Stored:   1,
		Deflated: 1,
		BytesIn:  5 * types.MiB,
		Duration: time.Second,
		Entries: []types.ArchiveEntry{
			{Name: "project/docs/a.txt", Kind: types.KindFile, Method: types.MethodDeflate, Size: 12, Ratio: -1, Source: "/data/project/docs/a.txt"},
			{Name: "project/media/b.bin", Kind: types.KindFile, Method: types.MethodStore, Size: 5 * types.MiB, Ratio: 1.0003, Source: "/data/project/media/b.bin"},
			{Name: "project/empty_dir/", Kind: types.KindDir, Method: types.MethodStore, Ratio: -1, Source: "/data/project/empty_dir"},
		},
	}
}

func newManifest(t *testing.T) *Manifest {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") error = nil, want error")
	}

	dir := t.TempDir()
	m, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", m.Dir(), dir)
	}
}

func TestManifest_Record(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	entry, err := m.Record([]string{"/data/project"}, sampleReport())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if _, err := uuid.Parse(entry.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", entry.ID, err)
	}
	if len(entry.Files) != 3 {
		t.Errorf("len(Files) = %d, want 3", len(entry.Files))
	}
	if entry.Summary.Bytes != 5*types.MiB {
		t.Errorf("Summary.Bytes = %d, want %d", entry.Summary.Bytes, 5*types.MiB)
	}

	if _, err := os.Stat(filepath.Join(m.Dir(), entry.ID+".json")); err != nil {
		t.Errorf("entry file not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.Dir(), entry.ID+".json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestManifest_RecordNilReport(t *testing.T) {
	t.Parallel()
	if _, err := newManifest(t).Record(nil, nil); err == nil {
		t.Fatal("Record(nil) error = nil, want error")
	}
}

func TestManifest_GetRoundTrip(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	recorded, err := m.Record([]string{"/data/project"}, sampleReport())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := m.Get(recorded.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Output != "/tmp/out.zip" {
		t.Errorf("Output = %q", got.Output)
	}
	if got.Files[1].Method != types.MethodStore || got.Files[0].Method != types.MethodDeflate {
		t.Errorf("methods not preserved: %+v", got.Files)
	}

	byPrefix, err := m.Get(recorded.ID[:8])
	if err != nil {
		t.Fatalf("Get(prefix) error = %v", err)
	}
	if byPrefix.ID != recorded.ID {
		t.Errorf("Get(prefix) ID = %q, want %q", byPrefix.ID, recorded.ID)
	}
}

func TestManifest_GetErrors(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	if _, err := m.Get(""); err == nil {
		t.Error("Get(\"\") error = nil, want error")
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	writeRaw(t, m, Entry{ID: "abc-1", Timestamp: time.Now()})
	writeRaw(t, m, Entry{ID: "abc-2", Timestamp: time.Now()})
	if _, err := m.Get("abc"); !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("Get(abc) error = %v, want ErrAmbiguousID", err)
	}
}

func writeRaw(t *testing.T, m *Manifest, entry Entry) {
	t.Helper()
	if err := m.EnsureDir(); err != nil {
		t.Fatal(err)
	}
	if err := m.writeEntry(&entry); err != nil {
		t.Fatalf("writeEntry() error = %v", err)
	}
}

func TestManifest_List(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	if entries, err := m.List(0); err != nil || len(entries) != 0 {
		t.Fatalf("List() on missing dir = %v, %v; want empty, nil", entries, err)
	}

	now := time.Now().UTC()
	for i, id := range []string{"oldest", "middle", "newest"} {
		writeRaw(t, m, Entry{ID: id, Timestamp: now.Add(time.Duration(i) * time.Hour)})
	}
	if err := os.WriteFile(filepath.Join(m.Dir(), "garbage.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := m.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	if got := strings.Join(ids, ","); got != "newest,middle,oldest" {
		t.Errorf("List() order = %s", got)
	}

	limited, err := m.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(List(2)) = %d, want 2", len(limited))
	}
}

func TestManifest_Cleanup(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	writeRaw(t, m, Entry{ID: "stale", Timestamp: time.Now().AddDate(0, 0, -40)})
	writeRaw(t, m, Entry{ID: "fresh", Timestamp: time.Now()})

	removed, err := m.Cleanup(30)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}

	entries, err := m.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "fresh" {
		t.Errorf("entries after Cleanup = %+v", entries)
	}
}

func TestDefaultDir(t *testing.T) {
	if !strings.HasSuffix(DefaultDir(), filepath.Join("smartzip", "history")) {
		t.Errorf("DefaultDir() = %q", DefaultDir())
	}
}
