package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/smartzip/pkg/smartzip/advisor"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inputs(paths ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range paths {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func randomData(n int) []byte {
	data := make([]byte, n)
	_, _ = rand.New(rand.NewSource(42)).Read(data)
	return data
}

// projectTree builds project/{docs/a.txt, media/b.bin, empty_dir/}.
func projectTree(t *testing.T) (base, project string) {
	t.Helper()
	base = t.TempDir()
	project = filepath.Join(base, "project")
	writeFile(t, filepath.Join(project, "docs", "a.txt"), []byte(strings.Repeat("hello archive ", 200)))
	writeFile(t, filepath.Join(project, "media", "b.bin"), randomData(int(5*types.MiB)))
	require.NoError(t, os.MkdirAll(filepath.Join(project, "empty_dir"), 0o755))
	return base, project
}

func readZip(t *testing.T, data []byte) map[string]*zip.File {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	return files
}

func readEntry(t *testing.T, f *zip.File) []byte {
	t.Helper()
	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestBuildDirectoryTree(t *testing.T) {
	_, project := projectTree(t)

	var out, diag bytes.Buffer
	b := New(&out, Options{
		Output:  "out.zip",
		Advisor: advisor.New(advisor.WithDiagnostics(&diag)),
		Record:  true,
	})
	report, err := b.Build(context.Background(), inputs(project))
	require.NoError(t, err)

	files := readZip(t, out.Bytes())
	require.Len(t, files, 3)

	text := files["project/docs/a.txt"]
	require.NotNil(t, text)
	assert.Equal(t, zip.Deflate, text.Method)
	assert.Equal(t, strings.Repeat("hello archive ", 200), string(readEntry(t, text)))

	media := files["project/media/b.bin"]
	require.NotNil(t, media)
	assert.Equal(t, zip.Store, media.Method)
	assert.Equal(t, randomData(int(5*types.MiB)), readEntry(t, media))

	empty := files["project/empty_dir/"]
	require.NotNil(t, empty)
	assert.True(t, empty.FileInfo().IsDir())
	assert.Equal(t, uint64(0), empty.UncompressedSize64)

	assert.Equal(t, int64(2), report.Files)
	assert.Equal(t, int64(1), report.Dirs)
	assert.Equal(t, int64(1), report.Stored)
	assert.Equal(t, int64(1), report.Deflated)
	assert.Equal(t, int64(1), report.Probed)
	assert.Equal(t, "out.zip", report.Output)
	assert.Len(t, report.Entries, 3)

	// Only the large file is probed.
	lines := strings.Split(strings.TrimSpace(diag.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "F "))
	assert.True(t, strings.HasSuffix(lines[0], filepath.Join(project, "media", "b.bin")))
}

func TestBuildNamesUseForwardSlashes(t *testing.T) {
	_, project := projectTree(t)

	var out bytes.Buffer
	_, err := New(&out, Options{}).Build(context.Background(), inputs(project))
	require.NoError(t, err)

	for name := range readZip(t, out.Bytes()) {
		assert.NotContains(t, name, `\`)
		assert.False(t, strings.HasPrefix(name, "/"), name)
	}
}

func TestBuildSingleFileInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	writeFile(t, path, []byte("# notes\n"))

	var out bytes.Buffer
	report, err := New(&out, Options{}).Build(context.Background(), inputs(path))
	require.NoError(t, err)

	files := readZip(t, out.Bytes())
	require.Contains(t, files, "notes.md")
	assert.Equal(t, "# notes\n", string(readEntry(t, files["notes.md"])))
	assert.Equal(t, int64(1), report.Files)
	assert.Nil(t, report.Entries, "entries are only kept when recording")
}

func TestBuildMultipleInputs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a", "one.txt")
	b := filepath.Join(dir, "b", "two.txt")
	writeFile(t, a, []byte("one"))
	writeFile(t, b, []byte("two"))

	var out bytes.Buffer
	_, err := New(&out, Options{}).Build(context.Background(), inputs(filepath.Dir(a), b))
	require.NoError(t, err)

	files := readZip(t, out.Bytes())
	assert.Contains(t, files, "a/one.txt")
	assert.Contains(t, files, "two.txt")
}

func TestBuildRecordsMissingInputs(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.txt")
	writeFile(t, present, []byte("here"))
	missing := filepath.Join(dir, "nope")

	var out bytes.Buffer
	report, err := New(&out, Options{}).Build(context.Background(), inputs(missing, present))
	require.NoError(t, err)

	assert.Equal(t, []string{missing}, report.Missing)
	assert.Contains(t, readZip(t, out.Bytes()), "present.txt")
}

func TestBuildEmptyInputProducesEmptyArchive(t *testing.T) {
	var out bytes.Buffer
	report, err := New(&out, Options{}).Build(context.Background(), inputs())
	require.NoError(t, err)

	assert.Empty(t, readZip(t, out.Bytes()))
	assert.Zero(t, report.Files)
}

func TestBuildClampsTimestamps(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.txt")
	future := filepath.Join(dir, "future.txt")
	writeFile(t, old, []byte("old"))
	writeFile(t, future, []byte("future"))

	oldTime := time.Date(1975, 6, 1, 12, 0, 0, 0, time.Local)
	futureTime := time.Date(2107, 6, 1, 12, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(old, oldTime, oldTime))
	if err := os.Chtimes(future, futureTime, futureTime); err != nil {
		t.Skipf("filesystem cannot store 2107 timestamps: %v", err)
	}

	var out bytes.Buffer
	_, err := New(&out, Options{}).Build(context.Background(), inputs(old, future))
	require.NoError(t, err)

	files := readZip(t, out.Bytes())
	assert.Equal(t, 1980, files["old.txt"].Modified.Year())
	assert.Equal(t, time.January, files["old.txt"].Modified.Month())
	assert.Equal(t, 2107, files["future.txt"].Modified.Year())
}

func TestBuildExclude(t *testing.T) {
	_, project := projectTree(t)

	var out bytes.Buffer
	_, err := New(&out, Options{Exclude: []string{"*.bin"}}).Build(context.Background(), inputs(project))
	require.NoError(t, err)

	files := readZip(t, out.Bytes())
	assert.NotContains(t, files, "project/media/b.bin")
	assert.Contains(t, files, "project/media/", "media becomes a leaf once its only file is excluded")
	assert.Contains(t, files, "project/docs/a.txt")
}

func TestBuildStopsOnInputError(t *testing.T) {
	failing := func(yield func(string, error) bool) {
		yield("", errors.New("reading input: boom"))
	}

	var out bytes.Buffer
	_, err := New(&out, Options{}).Build(context.Background(), failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBuildHonorsContext(t *testing.T) {
	_, project := projectTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := New(&out, Options{}).Build(ctx, inputs(project))
	assert.ErrorIs(t, err, context.Canceled)
}

type countingCache struct {
	ratios map[string]float64
	hits   int
}

func (c *countingCache) Lookup(path string, _ int64, _ time.Time) (float64, bool) {
	r, ok := c.ratios[path]
	if ok {
		c.hits++
	}
	return r, ok
}

func (c *countingCache) Store(path string, _ int64, _ time.Time, ratio float64) error {
	c.ratios[path] = ratio
	return nil
}

func TestBuildUsesRatioCache(t *testing.T) {
	_, project := projectTree(t)
	cache := &countingCache{ratios: map[string]float64{}}

	for run := 0; run < 2; run++ {
		var out bytes.Buffer
		b := New(&out, Options{Advisor: advisor.New(advisor.WithCache(cache))})
		report, err := b.Build(context.Background(), inputs(project))
		require.NoError(t, err)

		if run == 0 {
			assert.Equal(t, int64(1), report.Probed)
			assert.Zero(t, report.CacheHits)
		} else {
			assert.Zero(t, report.Probed)
			assert.Equal(t, int64(1), report.CacheHits)
		}
		assert.Equal(t, zip.Store, readZip(t, out.Bytes())["project/media/b.bin"].Method)
	}
}
