package versions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pins/internal/localfs"
	"github.com/mesh-intelligence/pins/pkg/types"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func stage(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, types.ManifestFile), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pin"), []byte(content), 0o644))
	return dir
}

func newManager(t *testing.T, clock func() time.Time) *Manager {
	t.Helper()
	return NewManager(localfs.NewOS(), filepath.ToSlash(t.TempDir()), clock, nil)
}

func TestID_StringParse(t *testing.T) {
	id := ID{Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Seq: 7}
	assert.Equal(t, "20240102T030405Z-00007", id.String())

	got, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id.String(), got.String())

	_, err = Parse("latest")
	assert.True(t, errors.Is(err, types.ErrVersionNotFound))
}

func TestID_NextRollsOverSecond(t *testing.T) {
	id := ID{Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Seq: maxSeq}
	next := id.Next()
	assert.Equal(t, "20240102T030406Z-00000", next.String())
	assert.True(t, id.Less(next))
}

func TestManager_NewIDMonotonic(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 500, time.UTC)
	m := newManager(t, fixedClock(now))

	a := m.NewID()
	b := m.NewID()
	c := m.NewID()
	assert.Equal(t, "20240102T030405Z-00000", a.String())
	assert.Equal(t, "20240102T030405Z-00001", b.String())
	assert.True(t, a.Less(b) && b.Less(c))
	assert.True(t, a.String() < b.String() && b.String() < c.String())
}

func TestManager_NewIDClockBackwards(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := now
	m := newManager(t, func() time.Time { return clock })

	a := m.NewID()
	clock = now.Add(-time.Hour)
	b := m.NewID()
	assert.True(t, a.Less(b))
}

func TestManager_PublishListResolve(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := newManager(t, fixedClock(now))

	ids, err := m.List(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = m.Resolve(ctx, "p", "")
	assert.True(t, errors.Is(err, types.ErrPinNotFound))

	first, err := m.Publish(ctx, stage(t, "1"), "p", m.NewID())
	require.NoError(t, err)
	second, err := m.Publish(ctx, stage(t, "2"), "p", m.NewID())
	require.NoError(t, err)

	ids, err = m.List(ctx, "p")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, first.String(), ids[0].String())
	assert.Equal(t, second.String(), ids[1].String())

	latest, err := m.Resolve(ctx, "p", "")
	require.NoError(t, err)
	assert.Equal(t, second.String(), latest.String())

	got, err := m.Resolve(ctx, "p", first.String())
	require.NoError(t, err)
	assert.Equal(t, first.String(), got.String())

	_, err = m.Resolve(ctx, "p", "20990101T000000Z-00000")
	assert.True(t, errors.Is(err, types.ErrVersionNotFound))
}

func TestManager_PublishCollisionRetries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fsys := localfs.NewOS()
	root := filepath.ToSlash(t.TempDir())

	// Two managers model two processes sharing one board.
	a := NewManager(fsys, root, fixedClock(now), nil)
	b := NewManager(fsys, root, fixedClock(now), nil)

	idA, err := a.Publish(ctx, stage(t, "a"), "p", a.NewID())
	require.NoError(t, err)
	idB, err := b.Publish(ctx, stage(t, "b"), "p", b.NewID())
	require.NoError(t, err)

	assert.NotEqual(t, idA.String(), idB.String())
	assert.True(t, idA.Less(idB))

	data, err := fsys.ReadFile(ctx, a.VersionPath("p", idA)+"/pin")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestManager_ListSkipsIncompleteVersions(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, nil)
	pinDir := filepath.FromSlash(m.PinPath("p"))

	require.NoError(t, os.MkdirAll(filepath.Join(pinDir, "20240102T030405Z-00000"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(pinDir, ".staging-abc"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(pinDir, "not-a-version"), 0o755))

	ids, err := m.List(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, nil)

	id, err := m.Publish(ctx, stage(t, "1"), "p", m.NewID())
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "p", id))
	ids, err := m.List(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = os.Stat(filepath.FromSlash(m.PinPath("p")))
	assert.True(t, os.IsNotExist(err))
}

func TestManager_DeletePin(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, nil)

	_, err := m.Publish(ctx, stage(t, "1"), "p", m.NewID())
	require.NoError(t, err)
	_, err = m.Publish(ctx, stage(t, "2"), "p", m.NewID())
	require.NoError(t, err)

	require.NoError(t, m.DeletePin(ctx, "p"))
	ids, err := m.List(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, ids)

	err = m.DeletePin(ctx, "p")
	assert.True(t, errors.Is(err, types.ErrPinNotFound))
}
