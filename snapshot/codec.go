package snapshot

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Encode serializes a state to its wire form: YAML compressed with zstd.
func Encode(st State) ([]byte, error) {
	raw, err := yaml.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode parses a wire-form snapshot back into a State and validates it.
func Decode(data []byte) (State, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return State{}, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return State{}, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if err := st.Validate(); err != nil {
		return State{}, fmt.Errorf("snapshot failed validation: %w", err)
	}
	return st, nil
}

// Store persists named engine snapshots.
//
// Implementations validate states on the way in and out, respect the
// provided context for remote operations, and are safe for concurrent use.
type Store interface {
	// Save writes the state under name, replacing any previous snapshot
	// with that name.
	Save(ctx context.Context, name string, st State) error

	// Load reads the snapshot stored under name.
	// Returns ErrNotFound if no such snapshot exists.
	Load(ctx context.Context, name string) (State, error)

	// Delete removes the snapshot stored under name.
	// Returns ErrNotFound if no such snapshot exists.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored snapshots.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
