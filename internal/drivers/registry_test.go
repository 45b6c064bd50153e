package drivers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pins/internal/localfs"
	"github.com/mesh-intelligence/pins/pkg/types"
)

func sampleFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{1, 2, 3}, series.Int, "x"),
		series.New([]string{"a", "b", "c"}, series.String, "y"),
	)
}

type custom struct{ N int }

func TestRegistry_Resolve(t *testing.T) {
	r := NewDefaultRegistry()

	d, err := r.Resolve("csv")
	require.NoError(t, err)
	assert.Equal(t, ".csv", d.Suffix)
	assert.Equal(t, Safe, d.Safety)

	d, err = r.Resolve("gob")
	require.NoError(t, err)
	assert.Equal(t, Unsafe, d.Safety)

	_, err = r.Resolve("MY_TYPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnknownType))
	assert.Contains(t, err.Error(), "MY_TYPE")
}

func TestRegistry_BySuffix(t *testing.T) {
	r := NewDefaultRegistry()

	d, ok := r.BySuffix(".CSV")
	require.True(t, ok)
	assert.Equal(t, TypeCSV, d.Type)

	d, ok = r.BySuffix(".sqlite")
	require.True(t, ok)
	assert.Equal(t, TypeSQLite, d.Type)

	_, ok = r.BySuffix(".txt")
	assert.False(t, ok)
	_, ok = r.BySuffix("")
	assert.False(t, ok)
}

func TestRegistry_InferType(t *testing.T) {
	r := NewDefaultRegistry()
	df := sampleFrame()

	tests := []struct {
		name    string
		obj     any
		want    string
		wantErr error
	}{
		{name: "frame", obj: df, want: TypeCSV},
		{name: "frame pointer", obj: &df, want: TypeCSV},
		{name: "bytes", obj: []byte("raw"), want: TypeFile},
		{name: "map", obj: map[string]any{"a": 1}, want: TypeJSON},
		{name: "slice", obj: []any{1, "b"}, want: TypeJSON},
		{name: "struct has no default", obj: custom{}, wantErr: types.ErrUntypedObject},
		{name: "nil", obj: nil, wantErr: types.ErrNilObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.InferType(tt.obj)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_ResolveFor_RejectsMismatch(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.ResolveFor(custom{}, "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUntypedObject))
	assert.Contains(t, err.Error(), `"csv"`)

	_, err = r.ResolveFor(custom{}, "MY_TYPE")
	assert.True(t, errors.Is(err, types.ErrUnknownType))
}

func TestRegistry_BuildFilename(t *testing.T) {
	r := NewDefaultRegistry()
	tests := []struct {
		base   string
		typeID string
		apply  bool
		want   string
	}{
		{"some_df", "csv", true, "some_df.csv"},
		{"some_df.csv", "csv", true, "some_df.csv"},
		{"some_df", "csv", false, "some_df"},
		{"blob.bin", "file", true, "blob.bin"},
		{"t", "sqlite", true, "t.sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.base+"/"+tt.typeID, func(t *testing.T) {
			got, err := r.BuildFilename(tt.base, tt.typeID, tt.apply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDriverRoundtrip_Frames(t *testing.T) {
	for _, typeID := range []string{TypeCSV, TypeSQLite} {
		t.Run(typeID, func(t *testing.T) {
			dir := t.TempDir()
			r := NewDefaultRegistry()
			df := sampleFrame()

			written, err := r.Save(df, filepath.Join(dir, "some_df"), typeID, true)
			require.NoError(t, err)
			d, _ := r.Resolve(typeID)
			assert.Equal(t, "some_df"+d.Suffix, filepath.Base(written))

			m := types.Manifest{File: filepath.Base(written), Type: typeID, Name: "my_pin"}
			obj, err := r.Load(context.Background(), m, localfs.NewOS(), dir, Gate{}, nil)
			require.NoError(t, err)

			got, ok := obj.(dataframe.DataFrame)
			require.True(t, ok, "got %T", obj)
			assert.Equal(t, df.Records(), got.Records())
			assert.Equal(t, df.Types(), got.Types())
		})
	}
}

func TestDriverRoundtrip_NumericLookingStrings(t *testing.T) {
	for _, typeID := range []string{TypeCSV, TypeSQLite} {
		t.Run(typeID, func(t *testing.T) {
			dir := t.TempDir()
			r := NewDefaultRegistry()
			df := dataframe.New(
				series.New([]string{"01234", "00567"}, series.String, "zip"),
				series.New([]float64{1.5, 2}, series.Float, "score"),
				series.New([]bool{true, false}, series.Bool, "ok"),
			)

			written, err := r.Save(df, filepath.Join(dir, "zips"), typeID, true)
			require.NoError(t, err)

			m := types.Manifest{File: filepath.Base(written), Type: typeID}
			obj, err := r.Load(context.Background(), m, localfs.NewOS(), dir, Gate{}, nil)
			require.NoError(t, err)

			got := obj.(dataframe.DataFrame)
			assert.Equal(t, df.Types(), got.Types())
			assert.Equal(t, []string{"01234", "00567"}, got.Col("zip").Records())
		})
	}
}

func TestCSVLoad_PlainFileDetectsTypes(t *testing.T) {
	obj, err := loadCSV([]byte("x,y\n1,a\n2,b\n"))
	require.NoError(t, err)
	got := obj.(dataframe.DataFrame)
	assert.Equal(t, []series.Type{series.Int, series.String}, got.Types())
}

func TestCSVLoad_BadTypesLine(t *testing.T) {
	_, err := loadCSV([]byte(csvTypesPrefix + "int,decimal\nx,y\n1,2\n"))
	assert.ErrorContains(t, err, "decimal")

	_, err = loadCSV([]byte(csvTypesPrefix + "int\nx,y\n1,2\n"))
	assert.ErrorContains(t, err, "1 types for 2 columns")
}

func TestDriverRoundtrip_Values(t *testing.T) {
	tests := []struct {
		typeID string
		obj    any
	}{
		{TypeJSON, map[string]any{"a": 1.0, "b": []any{2.0, 3.0}}},
		{TypeGob, map[string]any{"a": 1, "b": []int{2, 3}}},
		{TypeFile, []byte("hello")},
	}
	for _, tt := range tests {
		t.Run(tt.typeID, func(t *testing.T) {
			dir := t.TempDir()
			r := NewDefaultRegistry()
			written, err := r.Save(tt.obj, filepath.Join(dir, "obj"), tt.typeID, true)
			require.NoError(t, err)

			m := types.Manifest{File: filepath.Base(written), Type: tt.typeID}
			obj, err := r.Load(context.Background(), m, localfs.NewOS(), dir, Gate{}, types.Allow(true))
			require.NoError(t, err)
			assert.Equal(t, tt.obj, obj)
		})
	}
}

func TestDriver_ApplySuffixFalse(t *testing.T) {
	dir := t.TempDir()
	r := NewDefaultRegistry()

	written, err := r.Save(sampleFrame(), filepath.Join(dir, "some_df"), TypeCSV, false)
	require.NoError(t, err)
	assert.Equal(t, "some_df", filepath.Base(written))
}

func writeGob(t *testing.T, dir string) types.Manifest {
	t.Helper()
	r := NewDefaultRegistry()
	written, err := r.Save(map[string]any{"a": 1}, filepath.Join(dir, "some"), TypeGob, true)
	require.NoError(t, err)
	return types.Manifest{File: filepath.Base(written), Type: TypeGob, Name: "my_pin"}
}

func TestDriver_UnsafeReadFailsExplicit(t *testing.T) {
	dir := t.TempDir()
	m := writeGob(t, dir)

	_, err := NewDefaultRegistry().Load(context.Background(), m, localfs.NewOS(), dir, Gate{AllowUnsafe: true}, types.Allow(false))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInsecureRead))
	assert.Contains(t, err.Error(), `"gob"`)
}

func TestDriver_UnsafeReadFailsDefault(t *testing.T) {
	dir := t.TempDir()
	m := writeGob(t, dir)

	_, err := NewDefaultRegistry().Load(context.Background(), m, localfs.NewOS(), dir, Gate{}, nil)
	assert.True(t, errors.Is(err, types.ErrInsecureRead))
}

func TestDriver_UnsafeReadBoardOptIn(t *testing.T) {
	dir := t.TempDir()
	m := writeGob(t, dir)

	obj, err := NewDefaultRegistry().Load(context.Background(), m, localfs.NewOS(), dir, Gate{AllowUnsafe: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, obj)
}

func TestDriver_GateRunsBeforeRead(t *testing.T) {
	dir := t.TempDir()
	m := types.Manifest{File: "missing.gob", Type: TypeGob}

	_, err := NewDefaultRegistry().Load(context.Background(), m, localfs.NewOS(), dir, Gate{}, nil)
	assert.True(t, errors.Is(err, types.ErrInsecureRead))
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestDriver_LoadUnknownType(t *testing.T) {
	m := types.Manifest{File: "x", Type: "rds"}
	_, err := NewDefaultRegistry().Load(context.Background(), m, localfs.NewOS(), t.TempDir(), Gate{}, nil)
	assert.True(t, errors.Is(err, types.ErrUnknownType))
}
