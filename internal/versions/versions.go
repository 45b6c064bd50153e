// Package versions assigns, lists, resolves and publishes pin versions.
//
// A version id is the UTC creation second followed by a five digit sequence,
// e.g. 20240102T030405Z-00000. Ids sort lexically in creation order. The
// sequence disambiguates writes within one second on this Manager and, on
// publish collision, writes from other processes.
package versions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mesh-intelligence/pins/pkg/types"
)

const (
	timeFormat = "20060102T150405Z"
	maxSeq     = 99999

	// maxPublishAttempts bounds retries after losing a version id race.
	maxPublishAttempts = 32
)

var idPattern = regexp.MustCompile(`^(\d{8}T\d{6}Z)-(\d{5})$`)

// ID identifies one version of a pin.
type ID struct {
	Created time.Time
	Seq     int
}

// String formats the id as stored on disk.
func (id ID) String() string {
	return fmt.Sprintf("%s-%05d", id.Created.UTC().Format(timeFormat), id.Seq)
}

// Next returns the smallest id ordered after id.
func (id ID) Next() ID {
	if id.Seq >= maxSeq {
		return ID{Created: id.Created.Add(time.Second)}
	}
	return ID{Created: id.Created, Seq: id.Seq + 1}
}

// Less orders ids by creation.
func (id ID) Less(other ID) bool {
	if !id.Created.Equal(other.Created) {
		return id.Created.Before(other.Created)
	}
	return id.Seq < other.Seq
}

// Parse parses a version id string.
func Parse(s string) (ID, error) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		return ID{}, fmt.Errorf("%w: malformed version id %q", types.ErrVersionNotFound, s)
	}
	created, err := time.Parse(timeFormat, m[1])
	if err != nil {
		return ID{}, fmt.Errorf("%w: malformed version id %q", types.ErrVersionNotFound, s)
	}
	seq, _ := strconv.Atoi(m[2])
	return ID{Created: created, Seq: seq}, nil
}

// Manager tracks versions of pins under one board root.
type Manager struct {
	fs       types.Filesystem
	root     string
	clock    func() time.Time
	logger   *slog.Logger
	manifest string

	mu   sync.Mutex
	last ID
}

// NewManager returns a Manager for pins stored under root on fsys.
func NewManager(fsys types.Filesystem, root string, clock func() time.Time, logger *slog.Logger) *Manager {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{fs: fsys, root: root, clock: clock, logger: logger, manifest: types.ManifestFile}
}

// PinPath returns the directory of a pin.
func (m *Manager) PinPath(pin string) string { return path.Join(m.root, pin) }

// VersionPath returns the directory of one version.
func (m *Manager) VersionPath(pin string, id ID) string {
	return path.Join(m.root, pin, id.String())
}

// NewID returns an id greater than every id previously issued by m.
func (m *Manager) NewID() ID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := ID{Created: m.clock().UTC().Truncate(time.Second)}
	if !m.last.Less(id) {
		id = m.last.Next()
	}
	m.last = id
	return id
}

// claim records id as issued so later NewID calls order after it.
func (m *Manager) claim(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last.Less(id) {
		m.last = id
	}
}

// List returns the published versions of pin, oldest first. Entries that are
// hidden, not version ids, or missing a manifest are skipped.
func (m *Manager) List(ctx context.Context, pin string) ([]ID, error) {
	entries, err := m.fs.List(ctx, m.PinPath(pin))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []ID
	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		id, err := Parse(e.Name)
		if err != nil {
			continue
		}
		ok, err := m.fs.Exists(ctx, path.Join(m.VersionPath(pin, id), m.manifest))
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids, nil
}

// Resolve returns the requested version of pin, or the newest when version
// is empty.
func (m *Manager) Resolve(ctx context.Context, pin, version string) (ID, error) {
	ids, err := m.List(ctx, pin)
	if err != nil {
		return ID{}, err
	}
	if len(ids) == 0 {
		return ID{}, fmt.Errorf("%w: %q", types.ErrPinNotFound, pin)
	}
	if version == "" {
		return ids[len(ids)-1], nil
	}
	want, err := Parse(version)
	if err != nil {
		return ID{}, err
	}
	for _, id := range ids {
		if id.String() == want.String() {
			return id, nil
		}
	}
	return ID{}, fmt.Errorf("%w: %q has no version %q", types.ErrVersionNotFound, pin, version)
}

// Publish moves the staged directory into pin's history under id. When id is
// already taken, the next id is tried. Returns the id actually published.
func (m *Manager) Publish(ctx context.Context, stagedDir, pin string, id ID) (ID, error) {
	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		err := m.fs.Publish(ctx, stagedDir, m.VersionPath(pin, id))
		if err == nil {
			m.claim(id)
			return id, nil
		}
		if !errors.Is(err, types.ErrVersionExists) {
			return ID{}, err
		}
		m.logger.Info("version id taken, retrying", "pin", pin, "version", id.String())
		m.claim(id)
		id = m.NewID()
	}
	return ID{}, fmt.Errorf("publish %q: gave up after %d attempts: %w", pin, maxPublishAttempts, types.ErrVersionExists)
}

// Delete removes one version. The manifest goes first so the version stops
// resolving before its data disappears. An emptied pin directory is removed.
func (m *Manager) Delete(ctx context.Context, pin string, id ID) error {
	dir := m.VersionPath(pin, id)
	if err := m.fs.Remove(ctx, path.Join(dir, m.manifest)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s manifest: %w", id, err)
	}
	if err := m.fs.RemoveAll(ctx, dir); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	entries, err := m.fs.List(ctx, m.PinPath(pin))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return m.fs.RemoveAll(ctx, m.PinPath(pin))
	}
	return nil
}

// DeletePin removes every version of pin.
func (m *Manager) DeletePin(ctx context.Context, pin string) error {
	ids, err := m.List(ctx, pin)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: %q", types.ErrPinNotFound, pin)
	}
	for _, id := range ids {
		if err := m.fs.Remove(ctx, path.Join(m.VersionPath(pin, id), m.manifest)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return m.fs.RemoveAll(ctx, m.PinPath(pin))
}
