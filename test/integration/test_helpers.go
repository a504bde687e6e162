//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-doc-lifecycle/internal/app"
	"go-doc-lifecycle/internal/auth"
	"go-doc-lifecycle/internal/config"
	"go-doc-lifecycle/internal/handler"
	"go-doc-lifecycle/internal/middleware"
	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/internal/router"
)

const testSecret = "integration-secret"

// buildMu serializes migrations when parallel tests share one database.
var buildMu sync.Mutex

type testEnv struct {
	server     *httptest.Server
	components *app.Components
	tokens     *auth.TokenValidator
}

// newTestEnv wires the real components behind an httptest server. Set
// TEST_DATABASE_URL to run against PostgreSQL instead of the in-memory
// repositories.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		ServerPort:                "0",
		RequestTimeout:            30 * time.Second,
		DatabaseURL:               os.Getenv("TEST_DATABASE_URL"),
		DBMaxConns:                4,
		DBMinConns:                0,
		StorageRoot:               t.TempDir(),
		OverwriteChunkSize:        4096,
		JWTSecret:                 testSecret,
		CORSOrigins:               []string{"*"},
		RateLimitRPM:              0,
		RetentionDays:             30,
		DefaultOverwriteMethod:    "simple",
		RetentionSchedule:         "02:00",
		RetentionSchedulerEnabled: false,
	}
	require.NoError(t, cfg.Validate())

	buildMu.Lock()
	components, err := app.Build(context.Background(), cfg)
	buildMu.Unlock()
	require.NoError(t, err)
	t.Cleanup(components.Close)

	tokens, err := auth.NewTokenValidator(testSecret)
	require.NoError(t, err)

	events, unsubscribe := components.Bus.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	go components.Metrics.Consume(ctx, events)
	t.Cleanup(func() {
		cancel()
		unsubscribe()
	})

	checks := map[string]handler.HealthChecker{}
	if components.DB != nil {
		checks["database"] = components.DB
	}

	server := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(tokens), router.Handlers{
		Document:  handler.NewDocumentHandler(components.Lifecycle),
		Audit:     handler.NewAuditHandler(components.Audit, components.Lifecycle),
		Retention: handler.NewRetentionHandler(components.Scheduler, cfg.RetentionDays),
		Health:    handler.NewHealthHandler(checks),
		Metrics:   components.Metrics.Handler(),
	}))
	t.Cleanup(server.Close)

	return &testEnv{server: server, components: components, tokens: tokens}
}

// userID returns a fresh user ID so suites sharing a database never see each
// other's documents.
func userID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func (e *testEnv) token(t *testing.T, userID string, role string) string {
	t.Helper()

	token, err := e.tokens.IssueToken(model.AuthClaims{UserID: userID, Username: userID, Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

// seedDocument stores a file and its record. Each call gets a fresh ID so
// tests can share a database.
func (e *testEnv) seedDocument(t *testing.T, ownerID string, content string, mutate func(doc *model.Document)) model.Document {
	t.Helper()

	id := uuid.NewString()
	doc := model.Document{
		ID:           id,
		OwnerID:      ownerID,
		Filename:     id + ".txt",
		OriginalName: "report.txt",
		StoragePath:  "documents/" + ownerID + "/" + id + ".txt",
		ContentType:  "text/plain",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if mutate != nil {
		mutate(&doc)
	}

	written, err := e.components.Storage.WriteFile(doc.StoragePath, strings.NewReader(content))
	require.NoError(t, err)
	doc.Size = written

	require.NoError(t, e.components.Documents.Save(context.Background(), doc))
	return doc
}

func (e *testEnv) fileExists(t *testing.T, storagePath string) bool {
	t.Helper()

	resolved, err := e.components.Storage.Resolve(storagePath)
	require.NoError(t, err)
	_, err = os.Stat(resolved)
	return err == nil
}

type apiResult struct {
	Status int
	Body   model.APIResponse
	Raw    []byte
}

func (e *testEnv) call(t *testing.T, method string, path string, token string, payload any) apiResult {
	t.Helper()

	var reader io.Reader = bytes.NewReader(nil)
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "integration-suite")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	result := apiResult{Status: resp.StatusCode, Raw: raw}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &result.Body), string(raw))
	}
	return result
}

func items(t *testing.T, result apiResult) []map[string]any {
	t.Helper()

	data, ok := result.Body.Data.(map[string]any)
	require.True(t, ok, string(result.Raw))

	rawItems, _ := data["items"].([]any)
	out := make([]map[string]any, 0, len(rawItems))
	for _, item := range rawItems {
		out = append(out, item.(map[string]any))
	}
	return out
}
