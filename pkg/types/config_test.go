package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", Root: "/tmp/board"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "azure", Root: "/tmp/board"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid file config",
			config:  Config{Backend: "file", Root: "/tmp/board"},
			wantErr: nil,
		},
		{
			name:    "file without path returns ErrPathRequired",
			config:  Config{Backend: "file"},
			wantErr: ErrPathRequired,
		},
		{
			name:    "memory with empty root is valid",
			config:  Config{Backend: "memory"},
			wantErr: nil,
		},
		{
			name:    "s3 without bucket returns ErrBucketRequired",
			config:  Config{Backend: "s3", Root: "boards"},
			wantErr: ErrBucketRequired,
		},
		{
			name:    "gcs with bucket is valid",
			config:  Config{Backend: "gcs", Bucket: "pins"},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
