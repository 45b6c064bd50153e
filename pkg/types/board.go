package types

import (
	"context"
	"time"
)

// WriteOptions carries the optional arguments of a pin write.
type WriteOptions struct {
	// Type names the driver. Inferred from the object when empty.
	Type        string
	Title       string
	Description string
	Tags        []string
	User        map[string]any
	// Created overrides the creation timestamp recorded in the manifest.
	Created time.Time
	// ApplySuffix appends the driver's suffix to the data file name.
	ApplySuffix bool
}

// ReadOptions carries the optional arguments of a pin read.
type ReadOptions struct {
	// Version selects a specific version; the newest is used when empty.
	Version string
	// AllowUnsafe overrides the board's insecure-read setting for one call.
	AllowUnsafe *bool
}

// Allow returns a pointer to v, for use with ReadOptions.AllowUnsafe.
func Allow(v bool) *bool { return &v }

// Board stores named, versioned pins on a Filesystem.
type Board interface {
	// PinWrite serializes obj into a new version of the named pin and
	// returns the published manifest.
	PinWrite(ctx context.Context, obj any, name string, opts WriteOptions) (Manifest, error)

	// PinRead loads the newest (or requested) version of the named pin.
	PinRead(ctx context.Context, name string, opts ReadOptions) (any, error)

	// PinMeta returns the manifest of the newest (or given) version.
	PinMeta(ctx context.Context, name, version string) (Manifest, error)

	// PinExists reports whether the pin has at least one published version.
	PinExists(ctx context.Context, name string) (bool, error)

	// PinList returns the names of all pins on the board.
	PinList(ctx context.Context) ([]string, error)

	// PinVersions returns the versions of a pin, oldest first.
	PinVersions(ctx context.Context, name string) ([]VersionInfo, error)

	// PinDelete removes one version, or the whole pin when version is empty.
	PinDelete(ctx context.Context, name, version string) error

	// PinVersionsPrune deletes all but the newest keep versions.
	PinVersionsPrune(ctx context.Context, name string, keep int) ([]string, error)

	// PrepareVersion writes the data file and manifest for obj into dir
	// without publishing anything.
	PrepareVersion(ctx context.Context, dir string, obj any, name string, opts WriteOptions) (Manifest, error)

	// Close releases backend resources.
	Close() error
}
