package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeJSON(w http.ResponseWriter, status int, body model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps service errors to HTTP responses by kind, never by message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	// Erase failures may wrap storage errors that carry their own status.
	var apiErr *apierror.APIError
	if errors.Is(err, model.ErrOverwriteFailed) {
		body.Code = "OVERWRITE_FAILED"
		body.Message = "Secure erase failed; the document remains in trash"
		slog.Error("secure erase failed", "error", err)
	} else if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrDocumentNotFound) {
		status = http.StatusNotFound
		body.Code = "DOCUMENT_NOT_FOUND"
		body.Message = "Document not found"
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	} else if errors.Is(err, model.ErrInvalidState) {
		status = http.StatusBadRequest
		body.Code = "INVALID_STATE"
		body.Message = "Document is not in a state that allows this action"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrInvalidOverwriteMethod) {
		status = http.StatusBadRequest
		body.Code = "INVALID_OVERWRITE_METHOD"
		body.Message = "Unknown overwrite method"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	} else if errors.Is(err, model.ErrPersistence) {
		body.Code = "PERSISTENCE_FAILURE"
		body.Message = "Could not persist the change"
		slog.Error("persistence failure", "error", err)
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// decodeOptionalJSON decodes the request body into dst. An empty body leaves
// dst untouched.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST", "invalid JSON body", err.Error(), http.StatusBadRequest)
	}

	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
