package model

import "errors"

var (
	// Document lifecycle errors
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidState     = errors.New("invalid document state")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Erasure errors
	ErrOverwriteFailed        = errors.New("secure overwrite failed")
	ErrInvalidOverwriteMethod = errors.New("invalid overwrite method")

	// Audit errors
	ErrAuditEntryNotFound = errors.New("audit entry not found")

	// Collaborator errors
	ErrPersistence = errors.New("persistence failure")
	ErrIndexing    = errors.New("indexing failure")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
