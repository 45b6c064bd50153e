// Package meta reads and writes the per-version manifest (data.txt).
//
// The manifest is YAML. Field order is fixed by the record struct so the
// same manifest always serializes to the same bytes.
package meta

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pins/pkg/types"
)

// TimeFormat is the layout of the created field.
const TimeFormat = "20060102T150405Z"

// record mirrors the on-disk layout of data.txt.
type record struct {
	File        string         `yaml:"file"`
	FileSize    int64          `yaml:"file_size"`
	PinHash     string         `yaml:"pin_hash"`
	Type        string         `yaml:"type"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description,omitempty"`
	Tags        []string       `yaml:"tags,omitempty"`
	Name        string         `yaml:"name,omitempty"`
	Created     string         `yaml:"created"`
	APIVersion  int            `yaml:"api_version"`
	User        map[string]any `yaml:"user,omitempty"`
}

// Values are the optional fields of a new manifest.
type Values struct {
	FileSize    int64
	PinHash     string
	Title       string
	Description string
	Tags        []string
	User        map[string]any
	Created     time.Time
}

// New builds a manifest in memory, normalized to what Read returns for it.
// Created is truncated to the second, the resolution of the on-disk format.
// Empty tags become nil and user values take their decoded YAML types,
// e.g. int64 becomes int and []string becomes []any.
func New(file, typeID, pinName string, v Values) types.Manifest {
	tags := v.Tags
	if len(tags) == 0 {
		tags = nil
	}
	title := v.Title
	if title == "" {
		title = defaultTitle(typeID)
	}
	return types.Manifest{
		Name:        pinName,
		File:        file,
		FileSize:    v.FileSize,
		PinHash:     v.PinHash,
		Type:        typeID,
		Title:       title,
		Description: v.Description,
		Tags:        tags,
		Created:     v.Created.UTC().Truncate(time.Second),
		APIVersion:  types.APIVersion,
		User:        normalizeUser(v.User),
	}
}

// normalizeUser passes u through a YAML round trip. Values that do not
// encode are kept as given and fail later in Marshal.
func normalizeUser(u map[string]any) map[string]any {
	if len(u) == 0 {
		return nil
	}
	data, err := yaml.Marshal(u)
	if err != nil {
		return u
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return u
	}
	return out
}

func defaultTitle(typeID string) string {
	return "A pinned " + strings.ToUpper(typeID) + " file"
}

// Marshal encodes m as manifest YAML.
func Marshal(m types.Manifest) ([]byte, error) {
	rec := record{
		File:        m.File,
		FileSize:    m.FileSize,
		PinHash:     m.PinHash,
		Type:        m.Type,
		Title:       m.Title,
		Description: m.Description,
		Tags:        m.Tags,
		Name:        m.Name,
		Created:     m.Created.UTC().Format(TimeFormat),
		APIVersion:  m.APIVersion,
		User:        m.User,
	}
	if rec.APIVersion == 0 {
		rec.APIVersion = types.APIVersion
	}
	return yaml.Marshal(&rec)
}

// Unmarshal decodes and validates manifest YAML.
func Unmarshal(data []byte) (types.Manifest, error) {
	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return types.Manifest{}, fmt.Errorf("%w: %v", types.ErrMalformedManifest, err)
	}
	if rec.File == "" {
		return types.Manifest{}, fmt.Errorf("%w: missing file", types.ErrMalformedManifest)
	}
	if rec.Type == "" {
		return types.Manifest{}, fmt.Errorf("%w: missing type", types.ErrMalformedManifest)
	}
	if rec.APIVersion == 0 {
		rec.APIVersion = types.APIVersion
	}
	if rec.APIVersion > types.APIVersion {
		return types.Manifest{}, fmt.Errorf("%w: %d (newest supported is %d)",
			types.ErrUnsupportedAPIVersion, rec.APIVersion, types.APIVersion)
	}

	var created time.Time
	if rec.Created != "" {
		t, err := time.Parse(TimeFormat, rec.Created)
		if err != nil {
			return types.Manifest{}, fmt.Errorf("%w: created %q: %v", types.ErrMalformedManifest, rec.Created, err)
		}
		created = t
	}
	if rec.Title == "" {
		rec.Title = defaultTitle(rec.Type)
	}

	return types.Manifest{
		Name:        rec.Name,
		File:        rec.File,
		FileSize:    rec.FileSize,
		PinHash:     rec.PinHash,
		Type:        rec.Type,
		Title:       rec.Title,
		Description: rec.Description,
		Tags:        rec.Tags,
		Created:     created,
		APIVersion:  rec.APIVersion,
		User:        rec.User,
	}, nil
}

// Write stores m as dir/data.txt on fsys.
func Write(ctx context.Context, fsys types.Filesystem, dir string, m types.Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return fsys.WriteFile(ctx, path.Join(dir, types.ManifestFile), data)
}

// Read loads and validates dir/data.txt from fsys.
func Read(ctx context.Context, fsys types.Filesystem, dir string) (types.Manifest, error) {
	data, err := fsys.ReadFile(ctx, path.Join(dir, types.ManifestFile))
	if err != nil {
		return types.Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return Unmarshal(data)
}
