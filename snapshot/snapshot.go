package snapshot

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Common errors returned by snapshot operations.
var (
	// ErrNotFound is returned when a named snapshot does not exist.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalidName is returned when a snapshot name is empty or would
	// escape the store's namespace.
	ErrInvalidName = errors.New("snapshot: invalid name")
)

// State is the portable persistent state of a fingerprint engine.
type State struct {
	// RegistryMapping maps registry keys to their bit values, rendered
	// as base-10 strings so arbitrary-precision values survive any
	// serialization.
	RegistryMapping map[string]string `yaml:"registry_mapping" json:"registryMapping"`

	// CollisionCounters maps structure signatures to their occurrence
	// counters.
	CollisionCounters map[string]int64 `yaml:"collision_counters" json:"collisionCounters"`
}

// Validate checks that every bit value parses as a positive base-10
// integer and that no counter is negative. It reports the first problem
// found and never mutates the state.
func (s State) Validate() error {
	for key, raw := range s.RegistryMapping {
		if key == "" {
			return fmt.Errorf("registry mapping contains an empty key")
		}
		bit, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return fmt.Errorf("registry key %q: bit value %q is not a base-10 integer", key, raw)
		}
		if bit.Sign() <= 0 {
			return fmt.Errorf("registry key %q: bit value %q is not positive", key, raw)
		}
	}
	for sig, n := range s.CollisionCounters {
		if n < 0 {
			return fmt.Errorf("collision counter for signature %q is negative: %d", sig, n)
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{
		RegistryMapping:   make(map[string]string, len(s.RegistryMapping)),
		CollisionCounters: make(map[string]int64, len(s.CollisionCounters)),
	}
	for k, v := range s.RegistryMapping {
		out.RegistryMapping[k] = v
	}
	for k, v := range s.CollisionCounters {
		out.CollisionCounters[k] = v
	}
	return out
}

// validName rejects names that are empty or contain path or key
// separators, keeping every backend's namespace flat.
func validName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\:") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
