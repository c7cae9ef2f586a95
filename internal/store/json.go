package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bonustrack-dev/bonustrack/internal/model"
)

// JSONFile stores bonuses in <dir>/<key>.json.
type JSONFile struct {
	path string
}

// NewJSONFile returns a JSONFile store. Nothing touches the disk until Load or Save.
func NewJSONFile(dir, key string) *JSONFile {
	return &JSONFile{path: filepath.Join(dir, key+".json")}
}

// Path is the file backing the store.
func (s *JSONFile) Path() string { return s.path }

// Load reads the file. A missing file is an empty list.
func (s *JSONFile) Load(ctx context.Context) ([]model.Bonus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Bonus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	bonuses, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.path, err)
	}
	return bonuses, nil
}

// Save writes to a temp file and renames it over the target so a crash
// mid-write leaves the previous list intact.
func (s *JSONFile) Save(ctx context.Context, bonuses []model.Bonus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(bonuses)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op.
func (s *JSONFile) Close() error { return nil }
