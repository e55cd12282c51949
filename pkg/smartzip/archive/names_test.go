package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootFor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "/data/project", want: "/data"},
		{input: "/data/project/file.txt", want: "/data/project"},
		{input: "/data", want: "/"},
		{input: "/", want: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), RootFor(filepath.FromSlash(tt.input)))
		})
	}
}

func TestEntryName(t *testing.T) {
	root := filepath.FromSlash("/data")

	tests := []struct {
		name  string
		entry types.Entry
		want  string
	}{
		{
			name:  "nested file",
			entry: types.Entry{Kind: types.KindFile, Path: filepath.FromSlash("/data/project/docs/a.txt")},
			want:  "project/docs/a.txt",
		},
		{
			name:  "leaf directory",
			entry: types.Entry{Kind: types.KindDir, Path: filepath.FromSlash("/data/project/empty_dir")},
			want:  "project/empty_dir/",
		},
		{
			name:  "input file directly under root",
			entry: types.Entry{Kind: types.KindFile, Path: filepath.FromSlash("/data/notes.md")},
			want:  "notes.md",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EntryName(root, tt.entry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntryNameFromFilesystemRoot(t *testing.T) {
	got, err := EntryName("/", types.Entry{Kind: types.KindDir, Path: "/srv"})
	require.NoError(t, err)
	assert.Equal(t, "srv/", got)
}

func TestClampModTime(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	fallback := time.Date(1980, 1, 1, 0, 0, 0, 0, loc)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{name: "1979 clamps", in: time.Date(1979, 12, 31, 23, 59, 59, 0, loc), want: fallback},
		{name: "1980 kept", in: time.Date(1980, 1, 1, 0, 0, 0, 0, loc), want: time.Date(1980, 1, 1, 0, 0, 0, 0, loc)},
		{name: "ordinary kept", in: time.Date(2024, 6, 15, 10, 30, 0, 0, loc), want: time.Date(2024, 6, 15, 10, 30, 0, 0, loc)},
		{name: "2107 kept", in: time.Date(2107, 12, 31, 23, 59, 58, 0, loc), want: time.Date(2107, 12, 31, 23, 59, 58, 0, loc)},
		{name: "2108 clamps", in: time.Date(2108, 1, 1, 0, 0, 0, 0, loc), want: fallback},
		{name: "epoch clamps", in: time.Unix(0, 0).In(loc), want: fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(ClampModTime(tt.in)), "got %v, want %v", ClampModTime(tt.in), tt.want)
		})
	}
}

func TestMsDosTime(t *testing.T) {
	date, clock := msDosTime(time.Date(2107, 12, 31, 23, 59, 58, 0, time.UTC))
	assert.Equal(t, uint16(31|12<<5|127<<9), date)
	assert.Equal(t, uint16(29|59<<5|23<<11), clock)
}
