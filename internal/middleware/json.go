package middleware

import (
	"encoding/json"
	"net/http"

	"go-doc-lifecycle/internal/model"
)

// writeErrorJSON writes the same error envelope the handlers use, so clients
// parse middleware rejections and handler errors alike.
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope(code, message))
}

func errorEnvelope(code string, message string) model.APIResponse {
	return model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: code, Message: message},
	}
}
