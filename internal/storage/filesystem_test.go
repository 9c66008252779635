package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemStaysInsideBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "output")
	require.NoError(t, os.MkdirAll(base, 0o755))

	secret := filepath.Join(root, "secret.json")
	require.NoError(t, os.WriteFile(secret, []byte(`{"key":"x"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "report.json"), []byte("{}"), 0o644))

	fs := NewFileSystem(base)
	ctx := context.Background()

	keys := []struct {
		name    string
		key     string
		escapes bool
	}{
		{name: "report at root", key: "report.json"},
		{name: "session report", key: "sessions/2025-07-16_1530_fear_82f06b15/report.json"},
		{name: "climbs out", key: "../secret.json", escapes: true},
		{name: "climbs out of session", key: "sessions/x/../../../secret.json", escapes: true},
		{name: "absolute", key: secret, escapes: true},
	}

	for _, tt := range keys {
		t.Run("save "+tt.name, func(t *testing.T) {
			err := fs.Save(ctx, tt.key, []byte("{}"))
			if tt.escapes {
				assert.ErrorIs(t, err, ErrOutsideBase)
				return
			}
			assert.NoError(t, err)
		})
		t.Run("load "+tt.name, func(t *testing.T) {
			_, err := fs.Load(ctx, tt.key)
			if tt.escapes {
				assert.ErrorIs(t, err, ErrOutsideBase)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("list patterns", func(t *testing.T) {
		_, err := fs.List(ctx, "sessions/*")
		assert.NoError(t, err)
		_, err = fs.List(ctx, "../*")
		assert.ErrorIs(t, err, ErrOutsideBase)
	})

	t.Run("delete keeps the base", func(t *testing.T) {
		assert.Error(t, fs.Delete(ctx, ""))
		assert.Error(t, fs.Delete(ctx, "."))
		assert.DirExists(t, base)
	})

	data, err := os.ReadFile(secret)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"x"}`, string(data))
}

func TestFileSystemRoundTrip(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "a/one.json", []byte("1")))
	require.NoError(t, fs.Save(ctx, "a/two.json", []byte("2")))
	require.NoError(t, fs.Save(ctx, "a/two.json", []byte("22")))

	data, err := fs.Load(ctx, "a/two.json")
	require.NoError(t, err)
	assert.Equal(t, "22", string(data))

	files, err := fs.List(ctx, "a/*.json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/one.json", "a/two.json"}, files)

	assert.True(t, fs.Exists(ctx, "a/one.json"))
	require.NoError(t, fs.Delete(ctx, "a/one.json"))
	assert.False(t, fs.Exists(ctx, "a/one.json"))
	assert.False(t, fs.Exists(ctx, "../escape"))

	_, err = fs.Load(ctx, "a/missing.json")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileSystemCanceled(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, fs.Save(ctx, "x.txt", nil), context.Canceled)
	_, err := fs.Load(ctx, "x.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	fs := NewFileSystem(base)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"plain key", "report.json", false},
		{"nested key", "sessions/a/report.json", false},
		{"dotfile", ".keep", false},
		{"empty key is the base", "", false},
		{"dot is the base", ".", false},
		{"parent", "..", true},
		{"parent prefix", "../report.json", true},
		{"deep parent", "sessions/a/../../../report.json", true},
		{"double dot inside a name", "sessions/..a/report.json", true},
		{"absolute", "/tmp/report.json", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got == base || strings.HasPrefix(got, base+string(filepath.Separator)), got)
		})
	}
}
