// Package localfs implements types.Filesystem on an afero.Fs, covering local
// disk boards and in-memory boards.
//
// Files are written with the temp-file, fsync, rename pattern. Versions are
// published by copying the staged directory into a hidden sibling and
// renaming it into place; rename(2) refuses to replace a non-empty directory,
// so a published version can never be overwritten. afero's memory filesystem
// renames over existing entries, so the check and rename also run under a
// process-wide lock.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/mesh-intelligence/pins/pkg/types"
)

// Protocol names.
const (
	ProtocolFile   = "file"
	ProtocolMemory = "memory"
)

// Hidden name prefixes for in-flight publishes and deletes. Readers skip
// entries that start with a dot.
const (
	stagingPrefix = ".staging-"
	trashPrefix   = ".trash-"
)

// publishMu serializes the exists check and rename of every Publish in the
// process, including FS values that share one afero.Fs.
var publishMu sync.Mutex

// FS is a types.Filesystem backed by afero.
type FS struct {
	fs       afero.Fs
	src      afero.Fs
	protocol string
}

var _ types.Filesystem = (*FS)(nil)

// New wraps fsys. Staged directories passed to Publish are always read from
// the operating system.
func New(fsys afero.Fs, protocol string) *FS {
	return &FS{fs: fsys, src: afero.NewOsFs(), protocol: protocol}
}

// NewOS returns a filesystem over the local disk.
func NewOS() *FS {
	return New(afero.NewOsFs(), ProtocolFile)
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *FS {
	return New(afero.NewMemMapFs(), ProtocolMemory)
}

// Protocol implements types.Filesystem.
func (f *FS) Protocol() string { return f.protocol }

func native(p string) string { return filepath.FromSlash(p) }

// List implements types.Filesystem.
func (f *FS) List(ctx context.Context, p string) ([]types.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(f.fs, native(p))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p, err)
	}
	entries := make([]types.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, types.Entry{Name: info.Name(), IsDir: info.IsDir()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ReadFile implements types.Filesystem.
func (f *FS) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return afero.ReadFile(f.fs, native(p))
}

// WriteFile implements types.Filesystem.
func (f *FS) WriteFile(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := native(p)
	if err := f.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return writeAtomic(f.fs, target, data)
}

// writeAtomic writes data to a temp file beside target and renames it over
// target.
func writeAtomic(fsys afero.Fs, target string, data []byte) error {
	tmp, err := afero.TempFile(fsys, filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fsys.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		fsys.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fsys.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := fsys.Rename(tmpName, target); err != nil {
		fsys.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Exists implements types.Filesystem.
func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return afero.Exists(f.fs, native(p))
}

// Publish implements types.Filesystem.
func (f *FS) Publish(ctx context.Context, stagedDir, final string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := native(final)
	parent := filepath.Dir(target)
	if err := f.fs.MkdirAll(parent, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(parent, stagingPrefix+uuid.NewString())
	if err := f.copyTree(ctx, stagedDir, tmp); err != nil {
		f.fs.RemoveAll(tmp)
		return fmt.Errorf("copy staged version: %w", err)
	}

	if err := f.claim(tmp, target); err != nil {
		f.fs.RemoveAll(tmp)
		if errors.Is(err, types.ErrVersionExists) {
			return fmt.Errorf("%w: %s", types.ErrVersionExists, final)
		}
		return fmt.Errorf("publish %s: %w", final, err)
	}
	return nil
}

// claim renames tmp to target unless target already exists.
func (f *FS) claim(tmp, target string) error {
	publishMu.Lock()
	defer publishMu.Unlock()

	if ok, err := afero.Exists(f.fs, target); err != nil {
		return err
	} else if ok {
		return types.ErrVersionExists
	}
	if err := f.fs.Rename(tmp, target); err != nil {
		// Lost a race with a publisher in another process.
		if ok, _ := afero.Exists(f.fs, target); ok {
			return types.ErrVersionExists
		}
		return err
	}
	return nil
}

// copyTree copies the OS directory src into dst on f.fs.
func (f *FS) copyTree(ctx context.Context, src, dst string) error {
	return afero.Walk(f.src, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if info.IsDir() {
			return f.fs.MkdirAll(out, 0o755)
		}
		data, err := afero.ReadFile(f.src, p)
		if err != nil {
			return err
		}
		return afero.WriteFile(f.fs, out, data, 0o644)
	})
}

// Remove implements types.Filesystem.
func (f *FS) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.fs.Remove(native(p))
}

// RemoveAll implements types.Filesystem. Directories are first renamed to a
// hidden trash name so they disappear from listings in one step.
func (f *FS) RemoveAll(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := native(p)
	info, err := f.fs.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return f.fs.Remove(target)
	}
	trash := filepath.Join(filepath.Dir(target), trashPrefix+uuid.NewString())
	if err := f.fs.Rename(target, trash); err != nil {
		return f.fs.RemoveAll(target)
	}
	return f.fs.RemoveAll(trash)
}

// Hidden reports whether name is an in-flight staging or trash entry, or any
// other dot entry.
func Hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
