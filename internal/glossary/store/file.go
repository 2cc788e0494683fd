package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oukeidos/novtl/internal/files"
	"github.com/oukeidos/novtl/internal/glossary"
)

// FileStore keeps each glossary at <Root>/novel_<id>/glossary.json.
type FileStore struct {
	Root string
}

// NewFileStore returns a FileStore rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

var _ Store = (*FileStore)(nil)

// Path returns the glossary file path for novelID.
func (s *FileStore) Path(novelID string) (string, error) {
	id := strings.TrimSpace(novelID)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid novel id %q", novelID)
	}
	return filepath.Join(s.Root, "novel_"+id, "glossary.json"), nil
}

func (s *FileStore) Load(_ context.Context, novelID string) (glossary.Glossary, bool, error) {
	path, err := s.Path(novelID)
	if err != nil {
		return glossary.Glossary{}, false, err
	}
	if err := files.RejectSymlinkPath(path); err != nil {
		return glossary.Glossary{}, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return glossary.Glossary{}, false, nil
	}
	if err != nil {
		return glossary.Glossary{}, false, fmt.Errorf("failed to read glossary: %w", err)
	}
	var g glossary.Glossary
	if err := json.Unmarshal(data, &g); err != nil {
		return glossary.Glossary{}, false, fmt.Errorf("failed to parse glossary %s: %w", path, err)
	}
	return g, true, nil
}

func (s *FileStore) Save(_ context.Context, novelID string, g glossary.Glossary) error {
	path, err := s.Path(novelID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode glossary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create glossary directory: %w", err)
	}
	return files.AtomicWrite(path, data, 0600)
}
