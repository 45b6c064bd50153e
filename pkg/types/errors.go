package types

import "errors"

// Write-path errors.
var (
	ErrUntypedObject  = errors.New("object type could not be determined")
	ErrUnknownType    = errors.New("unknown pin type")
	ErrNilObject      = errors.New("cannot pin a nil object")
	ErrInvalidPinName = errors.New("invalid pin name")
)

// Read-path errors.
var (
	ErrInsecureRead          = errors.New("insecure read blocked")
	ErrMalformedManifest     = errors.New("malformed manifest")
	ErrUnsupportedAPIVersion = errors.New("unsupported manifest api_version")
	ErrPinNotFound           = errors.New("pin not found")
	ErrVersionNotFound       = errors.New("version not found")
)

// Board lifecycle errors.
var (
	ErrBoardClosed      = errors.New("board is closed")
	ErrInvalidRetention = errors.New("prune must keep at least one version")
)

// ErrVersionExists is returned by Filesystem.Publish when the final version
// path has already been claimed by another writer.
var ErrVersionExists = errors.New("version already exists")
