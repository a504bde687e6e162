package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"go-doc-lifecycle/internal/erasure"
	"go-doc-lifecycle/internal/middleware"
	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/internal/repository"
	"go-doc-lifecycle/internal/service"
	"go-doc-lifecycle/internal/storage"
)

type stubRunner struct {
	deleted int
	err     error
}

func (s *stubRunner) RunNow(context.Context) (int, error) { return s.deleted, s.err }
func (s *stubRunner) Schedule() string                    { return "0 2 * * *" }
func (s *stubRunner) IsRunning() bool                     { return true }
func (s *stubRunner) LastRun() time.Time                  { return time.Time{} }

func (s *stubRunner) NextRun() *time.Time {
	next := time.Now().Add(time.Hour)
	return &next
}

type testServer struct {
	router http.Handler
	docs   *repository.MemoryDocumentRepository
	store  *storage.Storage
	runner *stubRunner
}

// withTestClaims stands in for RequireAuth: X-User and X-Role become claims.
func withTestClaims(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := r.Header.Get("X-User"); user != "" {
			claims := &model.AuthClaims{UserID: user, Role: r.Header.Get("X-Role"), OrganizationID: r.Header.Get("X-Org")}
			r = r.WithContext(middleware.WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestServer(t *testing.T, docs ...model.Document) *testServer {
	t.Helper()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	docRepo := repository.NewMemoryDocumentRepository()
	for _, doc := range docs {
		written, err := store.WriteFile(doc.StoragePath, strings.NewReader("payload "+doc.ID))
		require.NoError(t, err)
		doc.Size = written
		require.NoError(t, docRepo.Save(context.Background(), doc))
	}

	audit := service.NewAuditService(repository.NewMemoryAuditRepository())
	lifecycle := service.NewLifecycleService(docRepo, audit, nil, erasure.NewEngine(store, erasure.MethodSimple))
	runner := &stubRunner{deleted: 2}

	documents := NewDocumentHandler(lifecycle)
	audits := NewAuditHandler(audit, lifecycle)
	retention := NewRetentionHandler(runner, 30)

	r := chi.NewRouter()
	r.Use(withTestClaims)
	r.Get("/documents/trash", documents.ListTrash)
	r.Post("/documents/trash/empty", documents.EmptyTrash)
	r.Post("/documents/{id}/trash", documents.Trash)
	r.Post("/documents/{id}/restore", documents.Restore)
	r.Delete("/documents/{id}/permanent", documents.PermanentDelete)
	r.Get("/documents/{id}/deletion-history", documents.DeletionHistory)
	r.Get("/organizations/{id}/deletion-audit", audits.Organization)
	r.Get("/admin/deletion-audit", audits.List)
	r.Post("/admin/retention/run", retention.Run)
	r.Get("/admin/retention", retention.Status)

	return &testServer{router: r, docs: docRepo, store: store, runner: runner}
}

func (s *testServer) do(t *testing.T, method string, path string, user string, body any) (*httptest.ResponseRecorder, model.APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("User-Agent", "handler-test")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	if user == "admin" {
		req.Header.Set("X-Role", "admin")
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var parsed model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed), rec.Body.String())
	return rec, parsed
}

func document(id string, owner string) model.Document {
	return model.Document{ID: id, OwnerID: owner, OrganizationID: "org-1", Filename: id + ".txt", StoragePath: "docs/" + id + ".txt"}
}

func TestDocumentLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, document("doc-1", "u1"))

	rec, body := srv.do(t, http.MethodPost, "/documents/doc-1/trash", "u1", model.TrashRequest{Reason: "obsolete"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, body.Success)

	rec, body = srv.do(t, http.MethodGet, "/documents/trash", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, fmt.Sprint(body.Data), "doc-1")

	rec, body = srv.do(t, http.MethodPost, "/documents/doc-1/trash", "u1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_STATE", body.Error.Code)

	rec, _ = srv.do(t, http.MethodDelete, "/documents/doc-1/permanent", "u1", model.PermanentDeleteRequest{Method: "dod"})
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := srv.docs.FindByID(context.Background(), "doc-1")
	require.ErrorIs(t, err, model.ErrDocumentNotFound)

	rec, body = srv.do(t, http.MethodGet, "/documents/doc-1/deletion-history", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := body.Data.(map[string]any)["items"].([]any)
	require.Len(t, items, 2)
	latest := items[0].(map[string]any)
	require.Equal(t, "PERMANENT_DELETE", latest["action"])
	require.Equal(t, "COMPLETED", latest["status"])
	require.Equal(t, "DoD 5220.22-M", latest["overwrite_method"])
	require.Equal(t, "handler-test", latest["user_agent"])

	rec, body = srv.do(t, http.MethodGet, "/documents/doc-1/deletion-history", "u2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, body.Data.(map[string]any)["items"])
}

func TestDocumentErrorsMapToStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, document("doc-1", "u1"), document("doc-2", "u1"))

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		status int
		code   string
	}{
		{name: "not found", method: http.MethodPost, path: "/documents/missing/trash", user: "u1", status: http.StatusNotFound, code: "DOCUMENT_NOT_FOUND"},
		{name: "forbidden", method: http.MethodPost, path: "/documents/doc-1/trash", user: "u2", status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "not trashed", method: http.MethodDelete, path: "/documents/doc-1/permanent", user: "u1", status: http.StatusBadRequest, code: "INVALID_STATE"},
		{name: "restore active", method: http.MethodPost, path: "/documents/doc-2/restore", user: "u1", status: http.StatusBadRequest, code: "INVALID_STATE"},
		{name: "unauthenticated trash list", method: http.MethodGet, path: "/documents/trash", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "unknown field", method: http.MethodPost, path: "/documents/doc-1/trash", user: "u1", body: map[string]string{"why": "x"}, status: http.StatusBadRequest, code: "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := srv.do(t, tt.method, tt.path, tt.user, tt.body)
			require.Equal(t, tt.status, rec.Code)
			require.False(t, body.Success)
			require.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestPermanentDeleteRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, document("doc-1", "u1"))
	rec, _ := srv.do(t, http.MethodPost, "/documents/doc-1/trash", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := srv.do(t, http.MethodDelete, "/documents/doc-1/permanent", "u1", model.PermanentDeleteRequest{Method: "magnet"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_OVERWRITE_METHOD", body.Error.Code)
}

func TestEmptyTrashOverHTTP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, document("doc-1", "u1"), document("doc-2", "u1"))
	for _, id := range []string{"doc-1", "doc-2"} {
		rec, _ := srv.do(t, http.MethodPost, "/documents/"+id+"/trash", "u1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := srv.do(t, http.MethodPost, "/documents/trash/empty", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, body.Data.(map[string]any)["deleted_count"])
	require.Equal(t, 0, srv.docs.Len())
}

func TestAuditAndRetentionEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, document("doc-1", "u1"))
	rec, _ := srv.do(t, http.MethodPost, "/documents/doc-1/trash", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := srv.do(t, http.MethodGet, "/organizations/org-1/deletion-audit?limit=5", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Data.(map[string]any)["items"], 1)

	rec, body = srv.do(t, http.MethodGet, "/admin/deletion-audit?action=soft_delete", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, body.Meta.Total)

	rec, body = srv.do(t, http.MethodPost, "/admin/retention/run", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, body.Data.(map[string]any)["deleted_count"])

	rec, body = srv.do(t, http.MethodGet, "/admin/retention", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0 2 * * *", body.Data.(map[string]any)["schedule"])

	srv.runner.err = fmt.Errorf("retention sweep: %w", errors.Join(model.ErrPersistence, errors.New("db down")))
	rec, body = srv.do(t, http.MethodPost, "/admin/retention/run", "admin", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "PERSISTENCE_FAILURE", body.Error.Code)
}

func (s *testServer) doAs(t *testing.T, method string, path string, claims model.AuthClaims) (*httptest.ResponseRecorder, model.APIResponse) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-User", claims.UserID)
	req.Header.Set("X-Role", claims.Role)
	req.Header.Set("X-Org", claims.OrganizationID)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestOrganizationAdminsStayInTheirOrganization(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, document("doc-1", "u1"))
	rec, _ := srv.do(t, http.MethodPost, "/documents/doc-1/trash", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	own := model.AuthClaims{UserID: "admin-1", Role: "admin", OrganizationID: "org-1"}
	other := model.AuthClaims{UserID: "admin-2", Role: "admin", OrganizationID: "org-2"}

	rec, body := srv.doAs(t, http.MethodGet, "/organizations/org-1/deletion-audit", own)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Data.(map[string]any)["items"], 1)

	rec, body = srv.doAs(t, http.MethodGet, "/organizations/org-1/deletion-audit", other)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "FORBIDDEN", body.Error.Code)

	rec, _ = srv.doAs(t, http.MethodGet, "/admin/deletion-audit?organization_id=org-1", other)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = srv.doAs(t, http.MethodGet, "/admin/deletion-audit", other)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, body.Meta.Total)

	rec, body = srv.doAs(t, http.MethodGet, "/documents/doc-1/deletion-history", other)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, body.Data.(map[string]any)["items"])

	rec, body = srv.doAs(t, http.MethodGet, "/documents/doc-1/deletion-history", own)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Data.(map[string]any)["items"], 1)
}

func TestAuditListRejectsOutOfRangePage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec, body := srv.do(t, http.MethodGet, fmt.Sprintf("/admin/deletion-audit?page=%d&limit=200", math.MaxInt/50), "admin", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_PAGE", body.Error.Code)
}
