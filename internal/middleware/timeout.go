package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Timeout bounds quick routes. Erase routes are mounted outside it.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	message, _ := json.Marshal(errorEnvelope("REQUEST_TIMEOUT", "request timed out"))

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(message))
	}
}
