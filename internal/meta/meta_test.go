package meta

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pins/internal/localfs"
	"github.com/mesh-intelligence/pins/pkg/types"
)

func TestWriteRead_Roundtrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.ToSlash(t.TempDir())
	fsys := localfs.NewOS()

	m := New("df_csv", "csv", "df_csv", Values{
		FileSize:    21,
		PinHash:     "b0f5d7c3a1e2f4d6",
		Title:       "some pin",
		Description: "some description",
		Tags:        []string{"a", "b"},
		User:        map[string]any{"owner": "data-team", "rows": 3},
		Created:     time.Date(2020, 1, 13, 23, 58, 59, 999, time.UTC),
	})

	require.NoError(t, Write(ctx, fsys, dir, m))
	got, err := Read(ctx, fsys, dir)
	require.NoError(t, err)

	assert.Equal(t, m, got)
	assert.Equal(t, time.Date(2020, 1, 13, 23, 58, 59, 0, time.UTC), got.Created)
	assert.Equal(t, types.APIVersion, got.APIVersion)
}

func TestNew_ReadsBackEqual(t *testing.T) {
	tests := []struct {
		name string
		v    Values
	}{
		{"empty tags", Values{Title: "t", Tags: []string{}}},
		{"typed user values", Values{Title: "t", User: map[string]any{
			"n":      int64(3),
			"xs":     []string{"a"},
			"nested": map[string]any{"k": int32(1)},
		}}},
		{"empty user", Values{Title: "t", User: map[string]any{}}},
		{"no title", Values{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("x.csv", "csv", "x", tt.v)
			data, err := Marshal(m)
			require.NoError(t, err)
			got, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestNew_NormalizesUser(t *testing.T) {
	m := New("x.csv", "csv", "x", Values{User: map[string]any{"n": int64(3), "xs": []string{"a"}}})
	assert.Equal(t, map[string]any{"n": 3, "xs": []any{"a"}}, m.User)
	assert.Nil(t, New("x.csv", "csv", "x", Values{Tags: []string{}}).Tags)
}

func TestMarshal_Stable(t *testing.T) {
	m := New("x.csv", "csv", "x", Values{Title: "t", Created: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)})
	a, err := Marshal(m)
	require.NoError(t, err)
	b, err := Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, string(a), "created: 20240501T000000Z")
	assert.Contains(t, string(a), "api_version: 1")
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"missing file", "type: csv\ntitle: t\n", types.ErrMalformedManifest},
		{"missing type", "file: x.csv\ntitle: t\n", types.ErrMalformedManifest},
		{"bad created", "file: x\ntype: csv\ncreated: yesterday\n", types.ErrMalformedManifest},
		{"not yaml", "file: [unclosed\n", types.ErrMalformedManifest},
		{"newer api", "file: x\ntype: csv\napi_version: 2\n", types.ErrUnsupportedAPIVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestUnmarshal_Defaults(t *testing.T) {
	m, err := Unmarshal([]byte("file: x.csv\ntype: csv\n"))
	require.NoError(t, err)
	assert.Equal(t, types.APIVersion, m.APIVersion)
	assert.Equal(t, "A pinned CSV file", m.Title)
	assert.True(t, m.Created.IsZero())
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(context.Background(), localfs.NewOS(), filepath.ToSlash(t.TempDir()))
	require.Error(t, err)
}
