// Package pins opens boards: named, versioned pins of data objects stored on
// local disk, in memory, or in an object store.
//
//	b, err := pins.Open(ctx, types.Config{Backend: types.BackendFile, Root: dir})
//	if err != nil { ... }
//	defer b.Close()
//	m, err := b.PinWrite(ctx, df, "prices", types.WriteOptions{Type: "csv"})
package pins

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pins/internal/board"
	"github.com/mesh-intelligence/pins/internal/gcsfs"
	"github.com/mesh-intelligence/pins/internal/localfs"
	"github.com/mesh-intelligence/pins/internal/s3fs"
	"github.com/mesh-intelligence/pins/pkg/types"
)

// Version is the release of this module.
const Version = "0.1.0"

// memoryRoot is the board root used by in-memory boards without a path.
const memoryRoot = "/"

// Open validates cfg, connects to its backend and returns a Board. For object
// store backends Root is the key prefix of the board inside the bucket.
func Open(ctx context.Context, cfg types.Config, opts ...board.Option) (types.Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	fsys, err := openFilesystem(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	return board.New(fsys, cfg, opts...), nil
}

func openFilesystem(ctx context.Context, cfg *types.Config) (types.Filesystem, error) {
	switch cfg.Backend {
	case types.BackendFile:
		return localfs.NewOS(), nil
	case types.BackendMemory:
		if cfg.Root == "" {
			cfg.Root = memoryRoot
		}
		return localfs.NewMemory(), nil
	case types.BackendS3:
		return s3fs.New(ctx, s3fs.Options{Bucket: cfg.Bucket, Region: cfg.Region, Endpoint: cfg.Endpoint})
	case types.BackendGCS:
		return gcsfs.New(ctx, gcsfs.Options{Bucket: cfg.Bucket, Endpoint: cfg.Endpoint, Project: cfg.Project})
	}
	return nil, types.ErrBackendUnknown
}
