package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 512, want: "512 B"},
		{name: "kibibyte", bytes: KiB, want: "1.0 KiB"},
		{name: "mebibyte and a half", bytes: MiB + MiB/2, want: "1.5 MiB"},
		{name: "gibibyte", bytes: GiB, want: "1.0 GiB"},
		{name: "negative clamps to zero", bytes: -5, want: "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.bytes))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "dir", KindDir.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestEntryIsDir(t *testing.T) {
	assert.True(t, Entry{Kind: KindDir}.IsDir())
	assert.False(t, Entry{Kind: KindFile}.IsDir())
}

func TestMethodText(t *testing.T) {
	data, err := json.Marshal(ArchiveEntry{Name: "a.txt", Method: MethodDeflate})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method":"deflate"`)

	var got ArchiveEntry
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, MethodDeflate, got.Method)

	var m Method
	require.NoError(t, m.UnmarshalText([]byte("store")))
	assert.Equal(t, MethodStore, m)
}
