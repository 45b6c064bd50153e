package types

import "context"

// Entry is one item returned by Filesystem.List.
type Entry struct {
	Name  string
	IsDir bool
}

// Filesystem is the storage capability a Board is built on. Paths are
// slash-separated and interpreted relative to the backend's namespace.
// Implementations exist for local disk, memory, S3 and GCS.
type Filesystem interface {
	// Protocol names the backend ("file", "memory", "s3", "gs", ...). A Board
	// uses it only to select protocol-specific staging hooks.
	Protocol() string

	// List returns the immediate children of path sorted by name. A missing
	// path yields an error wrapping fs.ErrNotExist.
	List(ctx context.Context, path string) ([]Entry, error)

	// ReadFile returns the contents of the file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile creates or replaces the file at path.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Publish copies the local staged directory to final so that readers see
	// either nothing or the complete directory. Returns ErrVersionExists if
	// final has already been published.
	Publish(ctx context.Context, stagedDir, final string) error

	// Remove deletes a single file.
	Remove(ctx context.Context, path string) error

	// RemoveAll deletes path and everything below it. Missing paths are not
	// an error.
	RemoveAll(ctx context.Context, path string) error
}
