package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nkosarev/picshare/pkg/types/errs"
)

// Local keeps blobs under a root directory. Store keys use forward slashes
// and are mapped to the platform separator on access.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("Local - Read: %w", errs.ErrFileNotFound)
		}
		return nil, fmt.Errorf("Local - Read - os.ReadFile: %w", err)
	}

	return data, nil
}

func (l *Local) Write(_ context.Context, path string, data []byte, _ string) error {
	full := l.resolve(path)

	err := os.MkdirAll(filepath.Dir(full), 0o755)
	if err != nil {
		return fmt.Errorf("Local - Write - os.MkdirAll: %w", err)
	}

	err = os.WriteFile(full, data, 0o644)
	if err != nil {
		return fmt.Errorf("Local - Write - os.WriteFile: %w", err)
	}

	return nil
}

func (l *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(l.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("Local - Delete: %w", errs.ErrFileNotFound)
		}
		return fmt.Errorf("Local - Delete - os.Remove: %w", err)
	}

	return nil
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}
