package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fileExt is the on-disk suffix for snapshot files.
const fileExt = ".snap.zst"

// FileStore persists snapshots as compressed files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating the directory
// if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the state to "<dir>/<name>.snap.zst". The write goes
// through a temporary file and a rename so a crash never leaves a
// half-written snapshot behind.
func (s *FileStore) Save(ctx context.Context, name string, st State) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid state: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(st)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, name+fileExt)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot stored under name.
func (s *FileStore) Load(ctx context.Context, name string) (State, error) {
	if err := validName(name); err != nil {
		return State{}, err
	}
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+fileExt))
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Decode(data)
}

// Delete removes the snapshot stored under name.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.dir, name+fileExt))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// List returns the names of all snapshots in the directory.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExt))
	}
	return names, nil
}

// Close is a no-op for file stores.
func (s *FileStore) Close() error {
	return nil
}
