package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one pretty-printed JSON file per checkpoint name
// under a single directory. Files stay human-readable so an operator
// can inspect or hand-edit intermediate state between stages.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Save writes v as indented JSON, creating the directory if absent.
func (s *FileStore) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint %s: %w", name, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	path := s.path(name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", name, err)
	}

	fmt.Printf("✓ Checkpoint saved: %s\n", path)
	return nil
}

// Load reads the checkpoint into v, reporting false if it does not exist.
func (s *FileStore) Load(name string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read checkpoint %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshal checkpoint %s: %w", name, err)
	}
	return true, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
