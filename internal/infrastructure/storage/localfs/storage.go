package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store writes downloaded expression files under basePath, one directory
// per experiment. Writes go to a temp file first and are renamed into place,
// so a partially fetched file never surfaces under its final name.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./data/downloads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) Save(_ context.Context, experimentID, filename string, data io.Reader) (string, error) {
	dir := filepath.Join(s.basePath, filepath.Base(experimentID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create experiment dir: %w", err)
	}

	final := filepath.Join(dir, filepath.Base(filename))
	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".part-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize file: %w", err)
	}
	return final, nil
}

func (s *Store) Open(_ context.Context, experimentID, filename string) (io.ReadCloser, error) {
	path := filepath.Join(s.basePath, filepath.Base(experimentID), filepath.Base(filename))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}
