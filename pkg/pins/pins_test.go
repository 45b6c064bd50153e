package pins

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pins/pkg/types"
)

func TestOpen_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.Config
		wantErr error
	}{
		{name: "no backend", cfg: types.Config{}, wantErr: types.ErrBackendEmpty},
		{name: "unknown backend", cfg: types.Config{Backend: "ftp"}, wantErr: types.ErrBackendUnknown},
		{name: "file without path", cfg: types.Config{Backend: types.BackendFile}, wantErr: types.ErrPathRequired},
		{name: "s3 without bucket", cfg: types.Config{Backend: types.BackendS3}, wantErr: types.ErrBucketRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestOpen_FileBoard(t *testing.T) {
	ctx := context.Background()
	root := filepath.ToSlash(t.TempDir())

	b, err := Open(ctx, types.Config{Backend: types.BackendFile, Root: root})
	require.NoError(t, err)
	defer b.Close()

	m, err := b.PinWrite(ctx, map[string]any{"k": "v"}, "settings", types.WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "json", m.Type)
	assert.Equal(t, "settings: a pinned map object", m.Title)

	// A second board over the same root sees the published version.
	other, err := Open(ctx, types.Config{Backend: types.BackendFile, Root: root})
	require.NoError(t, err)
	defer other.Close()

	got, err := other.PinRead(ctx, "settings", types.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, got)

	names, err := other.PinList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"settings"}, names)
}

func TestOpen_MemoryBoard(t *testing.T) {
	b, err := Open(context.Background(), types.Config{Backend: types.BackendMemory})
	require.NoError(t, err)
	defer b.Close()

	ok, err := b.PinExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
