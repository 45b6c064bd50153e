package types

import "time"

// ManifestFile is the name of the manifest inside every version directory.
const ManifestFile = "data.txt"

// APIVersion is the newest manifest schema this module reads and writes.
const APIVersion = 1

// Manifest is the metadata record stored next to a version's data file.
// Version is not serialized; it is filled in from the directory name when a
// manifest is returned by a Board.
type Manifest struct {
	Name        string         `json:"name" yaml:"name"`
	File        string         `json:"file" yaml:"file"`
	FileSize    int64          `json:"file_size" yaml:"file_size"`
	PinHash     string         `json:"pin_hash" yaml:"pin_hash"`
	Type        string         `json:"type" yaml:"type"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Created     time.Time      `json:"created" yaml:"-"`
	APIVersion  int            `json:"api_version" yaml:"api_version"`
	User        map[string]any `json:"user,omitempty" yaml:"user,omitempty"`
	Version     string         `json:"version,omitempty" yaml:"-"`
}

// VersionInfo describes one published version of a pin.
type VersionInfo struct {
	Version string    `json:"version"`
	Created time.Time `json:"created"`
}
