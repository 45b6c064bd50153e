// Package drivers maps pin type identifiers to serializers, deserializers,
// canonical file suffixes, and safety classes.
package drivers

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/mesh-intelligence/pins/pkg/types"
)

// Safety classifies whether a format may be decoded from untrusted storage.
type Safety int

const (
	// Safe formats never require an opt-in.
	Safe Safety = iota
	// Unsafe formats are blocked by the Gate unless explicitly allowed.
	Unsafe
)

func (s Safety) String() string {
	if s == Unsafe {
		return "unsafe"
	}
	return "safe"
}

// Driver is one entry of the dispatch table.
type Driver struct {
	Type   string
	Suffix string
	Safety Safety

	// Accepts reports whether Save can serialize obj.
	Accepts func(obj any) bool
	// Save writes obj to the local file at filePath.
	Save func(obj any, filePath string) error
	// Load decodes the bytes of a data file.
	Load func(data []byte) (any, error)
}

// Registry is an immutable dispatch table built once at construction. It is
// safe for concurrent use.
type Registry struct {
	drivers  map[string]Driver
	defaults map[reflect.Type]string
}

// Default maps a Go type to the driver used when a write names no type.
type Default struct {
	Type   reflect.Type
	TypeID string
}

// NewRegistry builds a registry from the given drivers and default mappings.
// Later drivers with the same Type replace earlier ones.
func NewRegistry(drivers []Driver, defaults []Default) *Registry {
	r := &Registry{
		drivers:  make(map[string]Driver, len(drivers)),
		defaults: make(map[reflect.Type]string, len(defaults)),
	}
	for _, d := range drivers {
		r.drivers[d.Type] = d
	}
	for _, d := range defaults {
		r.defaults[d.Type] = d.TypeID
	}
	return r
}

// NewDefaultRegistry returns the registry with every built-in driver.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		[]Driver{csvDriver(), sqliteDriver(), jsonDriver(), gobDriver(), fileDriver()},
		[]Default{
			{Type: frameType, TypeID: TypeCSV},
			{Type: reflect.PointerTo(frameType), TypeID: TypeCSV},
			{Type: reflect.TypeFor[[]byte](), TypeID: TypeFile},
			{Type: reflect.TypeFor[map[string]any](), TypeID: TypeJSON},
			{Type: reflect.TypeFor[[]any](), TypeID: TypeJSON},
		},
	)
}

// Types returns the registered type identifiers in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.drivers))
	for t := range r.drivers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the driver registered for typeID.
func (r *Registry) Resolve(typeID string) (Driver, error) {
	d, ok := r.drivers[typeID]
	if !ok {
		return Driver{}, fmt.Errorf("%w: %q (registered: %s)", types.ErrUnknownType, typeID, strings.Join(r.Types(), ", "))
	}
	return d, nil
}

// BySuffix returns the driver whose canonical suffix is ext, e.g. ".csv".
func (r *Registry) BySuffix(ext string) (Driver, bool) {
	for _, t := range r.Types() {
		d := r.drivers[t]
		if d.Suffix != "" && strings.EqualFold(d.Suffix, ext) {
			return d, true
		}
	}
	return Driver{}, false
}

// InferType returns the default type identifier for obj's concrete type.
func (r *Registry) InferType(obj any) (string, error) {
	if obj == nil {
		return "", types.ErrNilObject
	}
	if id, ok := r.defaults[reflect.TypeOf(obj)]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: no default type for %T; the type option must be specified", types.ErrUntypedObject, obj)
}

// ResolveFor resolves typeID, inferring it from obj when empty, and checks
// that the driver accepts obj.
func (r *Registry) ResolveFor(obj any, typeID string) (Driver, error) {
	if obj == nil {
		return Driver{}, types.ErrNilObject
	}
	if typeID == "" {
		id, err := r.InferType(obj)
		if err != nil {
			return Driver{}, err
		}
		typeID = id
	}
	d, err := r.Resolve(typeID)
	if err != nil {
		return Driver{}, err
	}
	if d.Accepts != nil && !d.Accepts(obj) {
		return Driver{}, fmt.Errorf("%w: type %q cannot serialize %T", types.ErrUntypedObject, typeID, obj)
	}
	return d, nil
}

// BuildFilename returns the data file name for baseName. With applySuffix the
// driver's suffix is appended unless baseName already ends with it.
func (r *Registry) BuildFilename(baseName, typeID string, applySuffix bool) (string, error) {
	d, err := r.Resolve(typeID)
	if err != nil {
		return "", err
	}
	return buildFilename(baseName, d, applySuffix), nil
}

func buildFilename(baseName string, d Driver, applySuffix bool) string {
	if !applySuffix || d.Suffix == "" || strings.HasSuffix(baseName, d.Suffix) {
		return baseName
	}
	return baseName + d.Suffix
}

// Save writes obj with the typeID driver to filePath, adjusted by the suffix
// rule, and returns the path actually written.
func (r *Registry) Save(obj any, filePath, typeID string, applySuffix bool) (string, error) {
	d, err := r.ResolveFor(obj, typeID)
	if err != nil {
		return "", err
	}
	final := filepath.Join(filepath.Dir(filePath), buildFilename(filepath.Base(filePath), d, applySuffix))
	if err := d.Save(obj, final); err != nil {
		return "", fmt.Errorf("save %s: %w", d.Type, err)
	}
	return final, nil
}

// Load reads the data file named by m from dir on fsys and decodes it. The
// gate is consulted before any bytes are read.
func (r *Registry) Load(ctx context.Context, m types.Manifest, fsys types.Filesystem, dir string, gate Gate, override *bool) (any, error) {
	d, err := r.Resolve(m.Type)
	if err != nil {
		return nil, err
	}
	if err := gate.Check(d, override); err != nil {
		return nil, err
	}
	data, err := fsys.ReadFile(ctx, path.Join(dir, m.File))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.File, err)
	}
	obj, err := d.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", d.Type, err)
	}
	return obj, nil
}
