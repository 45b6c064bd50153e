package types

import "errors"

// Config selects a board backend and its policy.
type Config struct {
	Backend  string `json:"backend" yaml:"backend"`
	Root     string `json:"path" yaml:"path"`
	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Project  string `json:"project,omitempty" yaml:"project,omitempty"`

	// AllowInsecureRead permits reading drivers classified unsafe when the
	// caller does not pass a per-call override.
	AllowInsecureRead bool `json:"allow_pickle_read" yaml:"allow_pickle_read"`
}

// Supported backend names.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendGCS    = "gcs"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrBucketRequired = errors.New("bucket is required for object store backends")
	ErrPathRequired   = errors.New("path is required for the file backend")
)

var knownBackends = map[string]bool{
	BackendFile:   true,
	BackendMemory: true,
	BackendS3:     true,
	BackendGCS:    true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendFile && c.Root == "" {
		return ErrPathRequired
	}
	if (c.Backend == BackendS3 || c.Backend == BackendGCS) && c.Bucket == "" {
		return ErrBucketRequired
	}
	return nil
}
