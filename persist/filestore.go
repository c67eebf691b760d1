package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const snapshotExt = ".json"

// fileStore persists one JSON file per snapshot under a root directory.
// Writes go through a temp file and rename so a crash never leaves a
// half-written snapshot behind.
type fileStore struct {
	root string
}

// NewFileStore creates a Store backed by the filesystem. IDs map 1:1 to
// <root>/<id>.json.
func NewFileStore(root string) Store {
	return &fileStore{root: root}
}

// validID rejects IDs that would escape the root directory.
func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, id)
	}
	return nil
}

func (s *fileStore) path(id string) string {
	return filepath.Join(s.root, id+snapshotExt)
}

func (s *fileStore) Save(_ context.Context, id string, snapshot []byte) error {
	if err := validID(id); err != nil {
		return err
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, id, err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, id, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(snapshot); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, id, err)
	}

	if err := os.Rename(tmpName, s.path(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, id, err)
	}
	return nil
}

func (s *fileStore) Load(_ context.Context, id string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}
	return data, nil
}

func (s *fileStore) Delete(_ context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete failed: %s: %w", id, err)
	}
	return nil
}

func (s *fileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, snapshotExt))
	}
	return ids, nil
}
