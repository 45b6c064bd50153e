package drivers

import (
	"fmt"

	"github.com/mesh-intelligence/pins/pkg/types"
)

// EnvAllowPickleRead is the environment variable operators set to opt in to
// unsafe reads. It is read once by configuration loading, never by the Gate.
const EnvAllowPickleRead = "PINS_ALLOW_PICKLE_READ"

// Gate blocks decoding of unsafe formats. The zero value denies.
type Gate struct {
	// AllowUnsafe is the board-wide opt-in.
	AllowUnsafe bool
}

// Check decides whether d may be decoded. A non-nil override takes precedence
// over the board-wide opt-in; without either the read is denied.
func (g Gate) Check(d Driver, override *bool) error {
	if d.Safety != Unsafe {
		return nil
	}
	allow := g.AllowUnsafe
	if override != nil {
		allow = *override
	}
	if allow {
		return nil
	}
	return fmt.Errorf("%w: type %q is not safe to decode from untrusted storage; "+
		"pass AllowUnsafe in ReadOptions or set %s=1 to read it",
		types.ErrInsecureRead, d.Type, EnvAllowPickleRead)
}
