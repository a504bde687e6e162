package storage

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/pkg/apierror"
)

// PathValidator maps document storage paths onto the storage root and refuses
// anything that would escape it.
type PathValidator struct {
	rootAbs string
}

func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	return &PathValidator{rootAbs: rootAbs}, nil
}

func (v *PathValidator) RootAbs() string {
	return v.rootAbs
}

// ResolveFile resolves a document storage path to an absolute file path.
// The storage root itself is never a valid target.
func (v *PathValidator) ResolveFile(storagePath string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(storagePath), `\`, "/")
	if normalized == "" || normalized == "/" {
		return "", apierror.Wrap(model.ErrInvalidInput, "INVALID_PATH", "storage path must name a file", storagePath, http.StatusBadRequest)
	}

	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", apierror.Wrap(model.ErrInvalidInput, "INVALID_PATH", "path contains invalid characters", storagePath, http.StatusBadRequest)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", apierror.Wrap(model.ErrForbidden, "PATH_TRAVERSAL", "path traversal attempt detected", storagePath, http.StatusForbidden)
		}
	}

	cleanRel := filepath.Clean(strings.TrimPrefix(normalized, "/"))
	if cleanRel == "." {
		return "", apierror.Wrap(model.ErrInvalidInput, "INVALID_PATH", "storage path must name a file", storagePath, http.StatusBadRequest)
	}

	resolvedAbs, err := filepath.Abs(filepath.Join(v.rootAbs, cleanRel))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if !isWithinRoot(v.rootAbs, resolvedAbs) || resolvedAbs == v.rootAbs {
		return "", apierror.Wrap(model.ErrForbidden, "PATH_TRAVERSAL", "resolved path is outside storage root", storagePath, http.StatusForbidden)
	}

	return resolvedAbs, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return true
	}

	rootWithSeparator := rootAbs + string(filepath.Separator)
	return strings.HasPrefix(candidateAbs, rootWithSeparator)
}
