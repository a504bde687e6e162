package erasure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go-doc-lifecycle/internal/storage"
)

// FileStore is the platform I/O the engine needs. *storage.Storage satisfies it.
type FileStore interface {
	Size(storagePath string) (int64, error)
	OverwriteDurable(storagePath string, size int64, fill storage.FillFunc) error
	Remove(storagePath string) error
}

// Result reports what an overwrite actually did.
type Result struct {
	Method Method
	Passes int
	Size   int64
	// Missing is set when the file was already gone; nothing was written.
	Missing bool
}

// Engine performs multi-pass secure overwrites followed by removal.
type Engine struct {
	store         FileStore
	defaultMethod Method
	logger        *slog.Logger
}

func NewEngine(store FileStore, defaultMethod Method) *Engine {
	if defaultMethod == "" {
		defaultMethod = MethodSimple
	}

	return &Engine{
		store:         store,
		defaultMethod: defaultMethod,
		logger:        slog.Default().With("component", "erasure.engine"),
	}
}

func (e *Engine) DefaultMethod() Method {
	return e.defaultMethod
}

// SecureOverwriteFile overwrites every byte of the file passes times, forcing
// each pass to stable storage, then removes it. A file that is already absent
// counts as erased.
func (e *Engine) SecureOverwriteFile(ctx context.Context, storagePath string, opts Options) (Result, error) {
	resolved, err := opts.Resolve(e.defaultMethod)
	if err != nil {
		return Result{}, err
	}

	result := Result{Method: resolved.Method, Passes: resolved.Passes}

	size, err := e.store.Size(storagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return e.missing(storagePath, result), nil
		}
		return result, fmt.Errorf("stat %q: %w", storagePath, err)
	}
	result.Size = size

	for pass := 0; pass < resolved.Passes; pass++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("overwrite %q interrupted after %d passes: %w", storagePath, pass, err)
		}

		pattern := PatternFor(resolved.Method, pass, resolved.Passes)
		fill, err := newFill(pattern)
		if err != nil {
			return result, err
		}

		if err := e.store.OverwriteDurable(storagePath, size, fill); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return e.missing(storagePath, result), nil
			}
			return result, fmt.Errorf("overwrite pass %d/%d on %q: %w", pass+1, resolved.Passes, storagePath, err)
		}

		e.logger.Debug("overwrite pass complete",
			"path", storagePath,
			"pass", pass+1,
			"of", resolved.Passes,
			"pattern", pattern.String(),
		)
	}

	if err := e.store.Remove(storagePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return e.missing(storagePath, result), nil
		}
		return result, fmt.Errorf("remove %q after overwrite: %w", storagePath, err)
	}

	e.logger.Info("file securely erased",
		"path", storagePath,
		"method", resolved.Method,
		"passes", resolved.Passes,
		"bytes", size,
	)

	return result, nil
}

func (e *Engine) missing(storagePath string, result Result) Result {
	e.logger.Warn("file already absent, treating erase as complete", "path", storagePath)
	result.Missing = true
	return result
}
