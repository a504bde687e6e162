package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-doc-lifecycle/internal/model"
)

type stubValidator struct {
	claims *model.AuthClaims
}

func (s stubValidator) ValidateToken(token string, expectedType string) (*model.AuthClaims, error) {
	if token != "good" || expectedType != "access" {
		return nil, errors.New("bad token")
	}
	return s.claims, nil
}

func TestRequireAuthAndRoles(t *testing.T) {
	t.Parallel()

	auth := NewAuthMiddleware(stubValidator{claims: &model.AuthClaims{UserID: "u1", Role: "viewer"}})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, found := ClaimsFromContext(r.Context())
		require.True(t, found)
		require.Equal(t, "u1", claims.UserID)
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		auth.RequireAuth(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		auth.RequireAuth(ok).ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("role mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		auth.RequireAuth(auth.RequireRoles("admin")(ok)).ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)

		var body model.APIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "FORBIDDEN", body.Error.Code)
	})
}

func TestRecoveryAndLogging(t *testing.T) {
	t.Parallel()

	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Logging(Recovery(panicking)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/trash", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}

func TestLoggingKeepsRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	require.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestTimeoutWritesErrorEnvelope(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	rec := httptest.NewRecorder()
	Timeout(10*time.Millisecond)(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/trash", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "REQUEST_TIMEOUT", body.Error.Code)
}
