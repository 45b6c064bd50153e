// Package board implements types.Board on top of a types.Filesystem.
//
// A write moves through PREPARING, STAGED and PUBLISHED. The object is
// serialized with its manifest into a private directory on the local disk,
// then the versions manager publishes that directory atomically. Any failure
// before publish leaves nothing at the pin's public path.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/pins/internal/drivers"
	"github.com/mesh-intelligence/pins/internal/localfs"
	"github.com/mesh-intelligence/pins/internal/meta"
	"github.com/mesh-intelligence/pins/internal/title"
	"github.com/mesh-intelligence/pins/internal/versions"
	"github.com/mesh-intelligence/pins/pkg/types"
)

// Write states, as logged.
const (
	statePreparing = "preparing"
	stateStaged    = "staged"
	statePublished = "published"
	stateFailed    = "failed"
)

// StagingHook runs after a version has been staged and before it is
// published. Hooks are selected by the protocol of the board's filesystem.
type StagingHook func(ctx context.Context, dir string, m types.Manifest) error

// Board stores pins under a root on a Filesystem.
type Board struct {
	fs       types.Filesystem
	root     string
	registry *drivers.Registry
	gate     drivers.Gate
	versions *versions.Manager
	staging  types.Filesystem
	hooks    map[string]StagingHook
	logger   *slog.Logger
	metrics  *metrics
	clock    func() time.Time

	mu     sync.RWMutex
	closed bool
}

var _ types.Board = (*Board)(nil)

// Option configures a Board.
type Option func(*Board)

// WithRegistry replaces the built-in driver registry.
func WithRegistry(r *drivers.Registry) Option {
	return func(b *Board) { b.registry = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// WithMetrics registers operation metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(b *Board) { b.metrics = newMetrics(reg) }
}

// WithClock sets the time source for manifests and version ids.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.clock = now }
}

// WithHook installs a staging hook for filesystems reporting protocol.
func WithHook(protocol string, hook StagingHook) Option {
	return func(b *Board) { b.hooks[protocol] = hook }
}

// New returns a Board storing pins under cfg.Root on fsys. The insecure-read
// policy is taken from cfg and fixed for the Board's lifetime.
func New(fsys types.Filesystem, cfg types.Config, opts ...Option) *Board {
	b := &Board{
		fs:       fsys,
		root:     strings.TrimSuffix(cfg.Root, "/"),
		registry: drivers.NewDefaultRegistry(),
		gate:     drivers.Gate{AllowUnsafe: cfg.AllowInsecureRead},
		staging:  localfs.NewOS(),
		hooks:    map[string]StagingHook{ProtocolRSC: writeIndex},
		logger:   slog.New(slog.DiscardHandler),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.versions = versions.NewManager(fsys, b.root, b.clock, b.logger)
	return b
}

// Registry returns the driver registry in use.
func (b *Board) Registry() *drivers.Registry { return b.registry }

func (b *Board) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return types.ErrBoardClosed
	}
	return nil
}

// validateName rejects names that cannot be a single directory component or
// that would be hidden from listings.
func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", types.ErrInvalidPinName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", types.ErrInvalidPinName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", types.ErrInvalidPinName, name)
	}
	return nil
}

func (b *Board) precheck(name string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	return validateName(name)
}

// PinWrite implements types.Board.
func (b *Board) PinWrite(ctx context.Context, obj any, name string, opts types.WriteOptions) (m types.Manifest, err error) {
	defer b.metrics.observe(opWrite)(&err)

	log := b.logger.With("pin", name)
	log.Debug("pin write", "state", statePreparing)
	defer func() {
		if err != nil {
			log.Debug("pin write", "state", stateFailed, "error", err)
		}
	}()

	if err := b.precheck(name); err != nil {
		return types.Manifest{}, err
	}
	d, err := b.registry.ResolveFor(obj, opts.Type)
	if err != nil {
		return types.Manifest{}, err
	}
	opts.Type = d.Type

	id := b.versions.NewID()
	if opts.Created.IsZero() {
		opts.Created = id.Created
	}

	dir, err := os.MkdirTemp("", "pins-stage-*")
	if err != nil {
		return types.Manifest{}, fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(dir)

	m, err = b.prepare(ctx, dir, obj, name, d, opts)
	if err != nil {
		return types.Manifest{}, err
	}
	log.Debug("pin write", "state", stateStaged, "file", m.File)

	id, err = b.versions.Publish(ctx, dir, name, id)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("publish %q: %w", name, err)
	}
	m.Version = id.String()
	log.Debug("pin write", "state", statePublished, "version", m.Version)
	return m, nil
}

// PrepareVersion implements types.Board. dir is a local directory; it is
// created when missing.
func (b *Board) PrepareVersion(ctx context.Context, dir string, obj any, name string, opts types.WriteOptions) (types.Manifest, error) {
	if err := b.precheck(name); err != nil {
		return types.Manifest{}, err
	}
	d, err := b.registry.ResolveFor(obj, opts.Type)
	if err != nil {
		return types.Manifest{}, err
	}
	if opts.Created.IsZero() {
		opts.Created = b.clock()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Manifest{}, err
	}
	return b.prepare(ctx, dir, obj, name, d, opts)
}

// prepare writes the data file and manifest into dir and runs the staging
// hook for the board's protocol.
func (b *Board) prepare(ctx context.Context, dir string, obj any, name string, d drivers.Driver, opts types.WriteOptions) (types.Manifest, error) {
	written, err := b.registry.Save(obj, filepath.Join(dir, name), d.Type, opts.ApplySuffix)
	if err != nil {
		return types.Manifest{}, err
	}
	data, err := os.ReadFile(written)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("hash %s: %w", filepath.Base(written), err)
	}

	t := opts.Title
	if t == "" {
		t = title.ForType(obj, name, d.Type)
	}
	m := meta.New(filepath.Base(written), d.Type, name, meta.Values{
		FileSize:    int64(len(data)),
		PinHash:     fmt.Sprintf("%016x", xxhash.Sum64(data)),
		Title:       t,
		Description: opts.Description,
		Tags:        opts.Tags,
		User:        opts.User,
		Created:     opts.Created,
	})
	if err := meta.Write(ctx, b.staging, filepath.ToSlash(dir), m); err != nil {
		return types.Manifest{}, fmt.Errorf("write manifest: %w", err)
	}

	if hook, ok := b.hooks[b.fs.Protocol()]; ok {
		if err := hook(ctx, dir, m); err != nil {
			return types.Manifest{}, fmt.Errorf("%s staging hook: %w", b.fs.Protocol(), err)
		}
	}
	return m, nil
}

// PinRead implements types.Board.
func (b *Board) PinRead(ctx context.Context, name string, opts types.ReadOptions) (obj any, err error) {
	defer b.metrics.observe(opRead)(&err)

	if err := b.precheck(name); err != nil {
		return nil, err
	}
	id, err := b.versions.Resolve(ctx, name, opts.Version)
	if err != nil {
		return nil, err
	}
	dir := b.versions.VersionPath(name, id)
	m, err := meta.Read(ctx, b.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("pin %q version %s: %w", name, id, err)
	}
	b.logger.Debug("pin read", "pin", name, "version", id.String(), "type", m.Type)
	return b.registry.Load(ctx, m, b.fs, dir, b.gate, opts.AllowUnsafe)
}

// PinMeta implements types.Board.
func (b *Board) PinMeta(ctx context.Context, name, version string) (m types.Manifest, err error) {
	defer b.metrics.observe(opMeta)(&err)

	if err := b.precheck(name); err != nil {
		return types.Manifest{}, err
	}
	id, err := b.versions.Resolve(ctx, name, version)
	if err != nil {
		return types.Manifest{}, err
	}
	m, err = meta.Read(ctx, b.fs, b.versions.VersionPath(name, id))
	if err != nil {
		return types.Manifest{}, fmt.Errorf("pin %q version %s: %w", name, id, err)
	}
	m.Version = id.String()
	return m, nil
}

// PinExists implements types.Board.
func (b *Board) PinExists(ctx context.Context, name string) (bool, error) {
	if err := b.precheck(name); err != nil {
		return false, err
	}
	ids, err := b.versions.List(ctx, name)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// PinList implements types.Board. Only pins with a published version are
// returned.
func (b *Board) PinList(ctx context.Context) (names []string, err error) {
	defer b.metrics.observe(opList)(&err)

	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	entries, err := b.fs.List(ctx, b.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir || localfs.Hidden(e.Name) {
			continue
		}
		ids, err := b.versions.List(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// PinVersions implements types.Board.
func (b *Board) PinVersions(ctx context.Context, name string) ([]types.VersionInfo, error) {
	if err := b.precheck(name); err != nil {
		return nil, err
	}
	ids, err := b.versions.List(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %q", types.ErrPinNotFound, name)
	}
	out := make([]types.VersionInfo, 0, len(ids))
	for _, id := range ids {
		created := id.Created
		m, err := meta.Read(ctx, b.fs, b.versions.VersionPath(name, id))
		switch {
		case err != nil:
			b.logger.Debug("unreadable manifest, using version id time",
				"pin", name, "version", id.String(), "error", err)
		case !m.Created.IsZero():
			created = m.Created
		}
		out = append(out, types.VersionInfo{Version: id.String(), Created: created})
	}
	return out, nil
}

// PinDelete implements types.Board.
func (b *Board) PinDelete(ctx context.Context, name, version string) (err error) {
	defer b.metrics.observe(opDelete)(&err)

	if err := b.precheck(name); err != nil {
		return err
	}
	if version == "" {
		b.logger.Debug("pin delete", "pin", name)
		return b.versions.DeletePin(ctx, name)
	}
	id, err := b.versions.Resolve(ctx, name, version)
	if err != nil {
		return err
	}
	b.logger.Debug("pin delete", "pin", name, "version", id.String())
	return b.versions.Delete(ctx, name, id)
}

// PinVersionsPrune implements types.Board. It returns the deleted versions,
// oldest first.
func (b *Board) PinVersionsPrune(ctx context.Context, name string, keep int) (deleted []string, err error) {
	defer b.metrics.observe(opPrune)(&err)

	if err := b.precheck(name); err != nil {
		return nil, err
	}
	if keep < 1 {
		return nil, fmt.Errorf("%w: keep=%d", types.ErrInvalidRetention, keep)
	}
	ids, err := b.versions.List(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %q", types.ErrPinNotFound, name)
	}
	if len(ids) <= keep {
		return nil, nil
	}
	for _, id := range ids[:len(ids)-keep] {
		if err := b.versions.Delete(ctx, name, id); err != nil {
			return deleted, err
		}
		deleted = append(deleted, id.String())
	}
	b.logger.Debug("pin prune", "pin", name, "deleted", len(deleted))
	return deleted, nil
}

// Close implements types.Board. It closes the filesystem when it holds
// resources of its own.
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if c, ok := b.fs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
