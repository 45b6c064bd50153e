// Package gcsfs implements types.Filesystem on a Google Cloud Storage bucket.
//
// Publish writes every staged object with a DoesNotExist precondition and
// the manifest last, mirroring the S3 backend.
package gcsfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/mesh-intelligence/pins/pkg/types"
)

// Protocol is the protocol name reported by FS.
const Protocol = "gs"

// Options configures the GCS client.
type Options struct {
	Bucket string
	// Endpoint targets an emulator; authentication is disabled when set.
	Endpoint string
	// Project is billed for requests, for requester-pays buckets.
	Project string
}

// FS is a types.Filesystem over one GCS bucket.
type FS struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

var _ types.Filesystem = (*FS)(nil)

// New creates a storage client.
func New(ctx context.Context, options Options) (*FS, error) {
	var clientOpts []option.ClientOption
	if options.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(options.Endpoint))
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if options.Project != "" {
		clientOpts = append(clientOpts, option.WithQuotaProject(options.Project))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &FS{client: client, bucket: client.Bucket(options.Bucket)}, nil
}

// Close releases the storage client.
func (f *FS) Close() error { return f.client.Close() }

// Protocol implements types.Filesystem.
func (f *FS) Protocol() string { return Protocol }

func key(p string) string { return strings.Trim(path.Clean("/"+p), "/") }

func dirPrefix(p string) string {
	k := key(p)
	if k == "" {
		return ""
	}
	return k + "/"
}

// List implements types.Filesystem.
func (f *FS) List(ctx context.Context, p string) ([]types.Entry, error) {
	prefix := dirPrefix(p)
	it := f.bucket.Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})

	var entries []types.Entry
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", p, err)
		}
		if attrs.Prefix != "" {
			name := strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, prefix), "/")
			entries = append(entries, types.Entry{Name: name, IsDir: true})
			continue
		}
		if name := strings.TrimPrefix(attrs.Name, prefix); name != "" {
			entries = append(entries, types.Entry{Name: name})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("list %s: %w", p, fs.ErrNotExist)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ReadFile implements types.Filesystem.
func (f *FS) ReadFile(ctx context.Context, p string) ([]byte, error) {
	r, err := f.bucket.Object(key(p)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("read %s: %w", p, fs.ErrNotExist)
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteFile implements types.Filesystem.
func (f *FS) WriteFile(ctx context.Context, p string, data []byte) error {
	return write(f.bucket.Object(key(p)).NewWriter(ctx), data)
}

func write(w *storage.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Exists implements types.Filesystem.
func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := f.bucket.Object(key(p)).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, storage.ErrObjectNotExist) {
		return false, err
	}
	it := f.bucket.Objects(ctx, &storage.Query{Prefix: dirPrefix(p)})
	_, err = it.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Publish implements types.Filesystem.
func (f *FS) Publish(ctx context.Context, stagedDir, final string) error {
	files, err := stagedFiles(stagedDir)
	if err != nil {
		return err
	}

	var created []string
	for _, rel := range files {
		k := key(path.Join(final, rel))
		data, err := os.ReadFile(filepath.Join(stagedDir, filepath.FromSlash(rel)))
		if err != nil {
			f.cleanup(ctx, created)
			return err
		}
		w := f.bucket.Object(k).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
		if err := write(w, data); err != nil {
			f.cleanup(ctx, created)
			if preconditionFailed(err) {
				return fmt.Errorf("%w: %s", types.ErrVersionExists, final)
			}
			return fmt.Errorf("publish %s: %w", rel, err)
		}
		created = append(created, k)
	}
	return nil
}

// stagedFiles lists files under dir as slash paths with the manifest last.
func stagedFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[j] == types.ManifestFile && files[i] != types.ManifestFile
	})
	return files, nil
}

func preconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

func (f *FS) cleanup(ctx context.Context, keys []string) {
	for _, k := range keys {
		f.bucket.Object(k).Delete(ctx)
	}
}

// Remove implements types.Filesystem.
func (f *FS) Remove(ctx context.Context, p string) error {
	err := f.bucket.Object(key(p)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("remove %s: %w", p, fs.ErrNotExist)
	}
	return err
}

// RemoveAll implements types.Filesystem.
func (f *FS) RemoveAll(ctx context.Context, p string) error {
	it := f.bucket.Objects(ctx, &storage.Query{Prefix: dirPrefix(p)})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		if err := f.bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return err
		}
	}
	err := f.bucket.Object(key(p)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}
