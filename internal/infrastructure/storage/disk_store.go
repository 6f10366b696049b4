// Package storage is the local object store for uploaded merchant documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
)

// ErrObjectNotFound is returned when reading a key that was never uploaded
var ErrObjectNotFound = fmt.Errorf("object %w", port.ErrNotFound)

// ErrInvalidKey is returned for keys that resolve outside the store
var ErrInvalidKey = errors.New("invalid object key")

// tempPattern names in-progress writes; CleanKey refuses keys shaped like it
const tempPattern = ".upload-*"

// DiskStore keeps objects as files below a base directory, one file per key
type DiskStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewDiskStore creates a store rooted at baseDir
func NewDiskStore(baseDir string, logger *zap.Logger) *DiskStore {
	return &DiskStore{baseDir: baseDir, logger: logger}
}

// Put streams body to a temp file next to the target and renames it into place
func (s *DiskStore) Put(ctx context.Context, key string, body io.Reader) (int64, error) {
	target, err := s.resolve(key)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: body})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write object: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		s.logger.Error("Failed to move object into place",
			zap.String("key", key),
			zap.Error(err))
		return 0, fmt.Errorf("failed to write object: %w", err)
	}

	s.logger.Debug("Object written", zap.String("key", key), zap.Int64("size", n))
	return n, nil
}

// Get reads the whole object under key
func (s *DiskStore) Get(ctx context.Context, key string) ([]byte, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(target)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, ErrObjectNotFound
	case err != nil:
		s.logger.Error("Failed to read object", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return content, nil
}

func (s *DiskStore) Exists(ctx context.Context, key string) bool {
	target, err := s.resolve(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && info.Mode().IsRegular()
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// resolve maps key to a file path, refusing anything that leaves baseDir
func (s *DiskStore) resolve(key string) (string, error) {
	clean, ok := CleanKey(key)
	if !ok || clean != key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	target := filepath.Join(base, filepath.FromSlash(clean))
	if !strings.HasPrefix(target, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return target, nil
}

// ctxReader stops a copy once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ port.ObjectStore = (*DiskStore)(nil)
