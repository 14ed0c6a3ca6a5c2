package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalSource reads corpus files from a local directory
type LocalSource struct {
	basePath string
}

// NewLocalSource creates a new local corpus source
func NewLocalSource(basePath string) (*LocalSource, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("corpus directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path is not a directory: %s", basePath)
	}

	return &LocalSource{basePath: basePath}, nil
}

// Open returns the named corpus file from the local directory
func (s *LocalSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, name)

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file %s: %w", name, err)
	}

	return file, nil
}
