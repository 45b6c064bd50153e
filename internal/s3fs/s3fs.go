// Package s3fs implements types.Filesystem on an S3 (or S3-compatible)
// bucket using aws-sdk-go-v2.
//
// Directories are key prefixes. Publish uploads every staged file with
// If-None-Match: * and writes the manifest last, so a version becomes
// readable only once its manifest exists and two writers can never
// overwrite each other's objects.
package s3fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/mesh-intelligence/pins/pkg/types"
)

// Protocol is the protocol name reported by FS.
const Protocol = "s3"

// Options configures the S3 client.
type Options struct {
	Bucket   string
	Region   string
	Endpoint string
}

// FS is a types.Filesystem over one S3 bucket.
type FS struct {
	client *s3.Client
	bucket string
}

var _ types.Filesystem = (*FS)(nil)

// New creates an S3 client from the default AWS configuration chain.
func New(ctx context.Context, options Options) (*FS, error) {
	var loadOpts []func(*config.LoadOptions) error
	if options.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(options.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = aws.String(options.Endpoint)
		}
		o.UsePathStyle = true
	})
	return NewWithClient(client, options.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket string) *FS {
	return &FS{client: client, bucket: bucket}
}

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
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(f.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var entries []types.Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", p, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			entries = append(entries, types.Entry{Name: name, IsDir: true})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue
			}
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
	obj, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key(p)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("read %s: %w", p, fs.ErrNotExist)
		}
		return nil, err
	}
	defer obj.Body.Close()
	return io.ReadAll(obj.Body)
}

// WriteFile implements types.Filesystem.
func (f *FS) WriteFile(ctx context.Context, p string, data []byte) error {
	_, err := f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key(p)),
		Body:   bytes.NewReader(data),
	})
	return err
}

// Exists implements types.Filesystem. A path exists if it is an object or a
// non-empty prefix.
func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key(p)),
	})
	if err == nil {
		return true, nil
	}
	var nf *s3types.NotFound
	if !errors.As(err, &nf) {
		return false, err
	}
	out, err := f.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(f.bucket),
		Prefix:  aws.String(dirPrefix(p)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0, nil
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
		_, err = f.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(f.bucket),
			Key:         aws.String(k),
			Body:        bytes.NewReader(data),
			IfNoneMatch: aws.String("*"),
		})
		if err != nil {
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
	var ae smithy.APIError
	if errors.As(err, &ae) {
		code := ae.ErrorCode()
		return code == "PreconditionFailed" || code == "ConditionalRequestConflict"
	}
	return false
}

func (f *FS) cleanup(ctx context.Context, keys []string) {
	for _, k := range keys {
		f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(k),
		})
	}
}

// Remove implements types.Filesystem.
func (f *FS) Remove(ctx context.Context, p string) error {
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key(p)),
	})
	return err
}

// RemoveAll implements types.Filesystem.
func (f *FS) RemoveAll(ctx context.Context, p string) error {
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(dirPrefix(p)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			if err := f.Remove(ctx, aws.ToString(obj.Key)); err != nil {
				return err
			}
		}
	}
	if ok, err := f.Exists(ctx, p); err == nil && ok {
		return f.Remove(ctx, p)
	}
	return nil
}
