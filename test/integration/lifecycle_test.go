//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-doc-lifecycle/internal/model"
)

func TestDocumentLifecycleEndToEnd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ownerID := userID("owner")
	owner := env.token(t, ownerID, "editor")
	doc := env.seedDocument(t, ownerID, strings.Repeat("secret ", 2048), nil)

	res := env.call(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/trash", owner, model.TrashRequest{Reason: "superseded"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))

	data := res.Body.Data.(map[string]any)
	require.Equal(t, true, data["is_deleted"])
	deletedAt, err := time.Parse(time.RFC3339Nano, data["deleted_at"].(string))
	require.NoError(t, err)
	scheduled, err := time.Parse(time.RFC3339Nano, data["scheduled_deletion_date"].(string))
	require.NoError(t, err)
	require.WithinDuration(t, deletedAt.AddDate(0, 0, 30), scheduled, time.Second)

	res = env.call(t, http.MethodGet, "/api/v1/documents/trash", owner, nil)
	require.Equal(t, http.StatusOK, res.Status)
	require.Len(t, items(t, res), 1)

	res = env.call(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/restore", owner, nil)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, false, res.Body.Data.(map[string]any)["is_deleted"])
	require.Nil(t, res.Body.Data.(map[string]any)["scheduled_deletion_date"])

	res = env.call(t, http.MethodDelete, "/api/v1/documents/"+doc.ID+"/permanent", owner, nil)
	require.Equal(t, http.StatusBadRequest, res.Status)
	require.Equal(t, "INVALID_STATE", res.Body.Error.Code)
	require.True(t, env.fileExists(t, doc.StoragePath))

	res = env.call(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/trash", owner, nil)
	require.Equal(t, http.StatusOK, res.Status)

	stranger := env.token(t, userID("stranger"), "editor")
	res = env.call(t, http.MethodDelete, "/api/v1/documents/"+doc.ID+"/permanent", stranger, nil)
	require.Equal(t, http.StatusForbidden, res.Status)
	require.True(t, env.fileExists(t, doc.StoragePath))

	res = env.call(t, http.MethodDelete, "/api/v1/documents/"+doc.ID+"/permanent", owner, model.PermanentDeleteRequest{Method: "DoD 5220.22-M"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
	require.False(t, env.fileExists(t, doc.StoragePath))

	res = env.call(t, http.MethodDelete, "/api/v1/documents/"+doc.ID+"/permanent", owner, nil)
	require.Equal(t, http.StatusNotFound, res.Status)
	require.Equal(t, "DOCUMENT_NOT_FOUND", res.Body.Error.Code)

	res = env.call(t, http.MethodGet, "/api/v1/documents/"+doc.ID+"/deletion-history", owner, nil)
	require.Equal(t, http.StatusOK, res.Status)
	history := items(t, res)
	require.Len(t, history, 4)
	require.Equal(t, "PERMANENT_DELETE", history[0]["action"])
	require.Equal(t, "COMPLETED", history[0]["status"])
	require.EqualValues(t, 3, history[0]["overwrite_passes"])
	require.Equal(t, "integration-suite", history[0]["user_agent"])
	snapshot := history[0]["document_snapshot"].(map[string]any)
	require.Equal(t, "report.txt", snapshot["original_name"])
	require.EqualValues(t, doc.Size, snapshot["size"])
	require.Equal(t, "SOFT_DELETE", history[3]["action"])
	require.Equal(t, "superseded", history[3]["reason"])
}

func TestEmptyTrashEndToEnd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ownerID := userID("owner")
	owner := env.token(t, ownerID, "editor")

	var paths []string
	for i := 0; i < 3; i++ {
		doc := env.seedDocument(t, ownerID, "quarterly numbers", nil)
		paths = append(paths, doc.StoragePath)
		res := env.call(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/trash", owner, nil)
		require.Equal(t, http.StatusOK, res.Status)
	}
	active := env.seedDocument(t, ownerID, "keep me", nil)

	res := env.call(t, http.MethodPost, "/api/v1/documents/trash/empty", owner, model.PermanentDeleteRequest{Method: "gutmann", Passes: 5})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
	require.EqualValues(t, 3, res.Body.Data.(map[string]any)["deleted_count"])

	for _, path := range paths {
		require.False(t, env.fileExists(t, path))
	}
	require.True(t, env.fileExists(t, active.StoragePath))

	res = env.call(t, http.MethodGet, "/api/v1/documents/trash", owner, nil)
	require.Empty(t, items(t, res))
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	res := env.call(t, http.MethodGet, "/api/v1/documents/trash", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.Status)

	res = env.call(t, http.MethodGet, "/api/v1/documents/trash", "forged.token.value", nil)
	require.Equal(t, http.StatusUnauthorized, res.Status)
}
