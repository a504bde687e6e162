package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/pkg/apierror"
)

// DefaultChunkSize bounds the buffer used for one overwrite pass.
const DefaultChunkSize = 1 << 20

// FillFunc fills p with the next bytes of an overwrite pass.
type FillFunc func(p []byte) error

// Storage is the platform I/O layer for document files under one root.
type Storage struct {
	validator *PathValidator
	realRoot  string
	chunkSize int
}

func New(root string) (*Storage, error) {
	validator, err := NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	realRoot, err := filepath.EvalSymlinks(validator.RootAbs())
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	return &Storage{validator: validator, realRoot: realRoot, chunkSize: DefaultChunkSize}, nil
}

func (s *Storage) RootAbs() string {
	return s.validator.RootAbs()
}

func (s *Storage) SetChunkSize(size int) {
	if size > 0 {
		s.chunkSize = size
	}
}

func (s *Storage) Resolve(storagePath string) (string, error) {
	return s.validator.ResolveFile(storagePath)
}

// Size returns the current byte length of a regular file.
func (s *Storage) Size(storagePath string) (int64, error) {
	_, info, err := s.resolveRegular(storagePath)
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// contained resolves storagePath and follows symlinks in its parent
// directories. The real parent must still be inside the storage root.
func (s *Storage) contained(storagePath string) (string, error) {
	resolved, err := s.Resolve(storagePath)
	if err != nil {
		return "", err
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(resolved))
	if err != nil {
		return "", err
	}

	if !isWithinRoot(s.realRoot, parent) {
		return "", apierror.Wrap(model.ErrForbidden, "PATH_TRAVERSAL", "resolved path is outside storage root", storagePath, http.StatusForbidden)
	}

	return filepath.Join(parent, filepath.Base(resolved)), nil
}

// resolveRegular is contained plus an lstat of the leaf. Symlinks are refused
// so destructive passes never follow a link out of the root.
func (s *Storage) resolveRegular(storagePath string) (string, os.FileInfo, error) {
	target, err := s.contained(storagePath)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Lstat(target)
	if err != nil {
		return "", nil, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return "", nil, apierror.Wrap(model.ErrForbidden, "SYMLINK_REFUSED", "storage path is a symbolic link", storagePath, http.StatusForbidden)
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("stat %q: not a regular file", storagePath)
	}

	return target, info, nil
}

// OverwriteDurable writes size bytes produced by fill over the existing file
// starting at offset zero, then fsyncs and closes the descriptor. The file is
// never created or truncated, so a missing file surfaces as os.ErrNotExist.
func (s *Storage) OverwriteDurable(storagePath string, size int64, fill FillFunc) error {
	resolved, expected, err := s.resolveRegular(storagePath)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(resolved, os.O_WRONLY, 0)
	if err != nil {
		return err
	}

	// The leaf may have been swapped for a link between lstat and open.
	opened, err := file.Stat()
	if err != nil || !os.SameFile(expected, opened) {
		_ = file.Close()
		return apierror.Wrap(model.ErrForbidden, "SYMLINK_REFUSED", "storage path changed during overwrite", storagePath, http.StatusForbidden)
	}

	writeErr := writeChunks(file, size, s.chunkSize, fill)
	if writeErr == nil {
		writeErr = file.Sync()
	}

	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("overwrite %q: %w", storagePath, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %q: %w", storagePath, closeErr)
	}

	return nil
}

// Remove deletes a single file. A missing file is reported as os.ErrNotExist.
func (s *Storage) Remove(storagePath string) error {
	resolved, err := s.contained(storagePath)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil {
		return fmt.Errorf("remove %q: %w", storagePath, err)
	}

	return nil
}

// WriteFile stores content at storagePath, creating parent directories.
func (s *Storage) WriteFile(storagePath string, content io.Reader) (int64, error) {
	resolved, err := s.Resolve(storagePath)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return 0, fmt.Errorf("create parent directory: %w", err)
	}

	resolved, err = s.contained(storagePath)
	if err != nil {
		return 0, err
	}
	if info, err := os.Lstat(resolved); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return 0, apierror.Wrap(model.ErrForbidden, "SYMLINK_REFUSED", "storage path is a symbolic link", storagePath, http.StatusForbidden)
	}

	file, err := os.OpenFile(resolved, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}

	written, copyErr := io.Copy(file, content)
	closeErr := file.Close()
	if copyErr != nil {
		return written, copyErr
	}

	return written, closeErr
}

func writeChunks(w io.Writer, size int64, chunkSize int, fill FillFunc) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if size < int64(chunkSize) {
		chunkSize = int(size)
	}
	if chunkSize == 0 {
		return nil
	}

	buf := make([]byte, chunkSize)
	remaining := size
	for remaining > 0 {
		n := len(buf)
		if remaining < int64(n) {
			n = int(remaining)
		}

		if err := fill(buf[:n]); err != nil {
			return err
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}

		remaining -= int64(n)
	}

	return nil
}
