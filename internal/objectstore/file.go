package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/filex"
	"github.com/google/uuid"
)

const (
	objectsDir = "objects"
	tempDir    = "tmp"
)

// FileStore keeps blobs under a local directory. Writes go to a temp file
// first and are renamed into place, so a blob is either complete or absent.
type FileStore struct {
	root string
}

// NewFileStore creates root/objects and root/tmp if needed. A relative root
// is resolved against the working directory.
func NewFileStore(root string) (*FileStore, error) {
	abs, err := filex.EnsureDirs(root, objectsDir, tempDir)
	if err != nil {
		return nil, err
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) objectPath(p string) string {
	return filepath.Join(s.root, objectsDir, filepath.FromSlash(p))
}

func (s *FileStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := filepath.Join(s.root, tempDir, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write object %q: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp) }()

	dst := s.objectPath(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return fmt.Errorf("mkdir for %q: %w", path, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("commit object %q: %w", path, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.objectPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("object %q: %w", path, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", path, err)
	}
	return data, nil
}

func (s *FileStore) Delete(ctx context.Context, path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.objectPath(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}
