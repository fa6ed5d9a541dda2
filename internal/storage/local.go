package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local stores objects on the local filesystem, for development and tests.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	if root == "" {
		root = "uploads"
	}
	return &Local{root: root}
}

func (l *Local) Save(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	dest := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", err
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return "/files/" + key, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *Local) DeletePrefix(_ context.Context, prefix string) error {
	return os.RemoveAll(filepath.Join(l.root, filepath.FromSlash(prefix)))
}
