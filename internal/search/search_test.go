package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-doc-lifecycle/internal/model"
)

func TestClient_IndexAndRemove(t *testing.T) {
	var mu sync.Mutex
	calls := make([]string, 0)
	var indexed indexPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)

		if r.Method == http.MethodPut {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&indexed))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second)
	ctx := context.Background()

	require.NoError(t, client.IndexDocument(ctx, model.Document{ID: "doc 1", OwnerID: "u1", Filename: "a.pdf"}))
	require.NoError(t, client.RemoveDocument(ctx, "doc 1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PUT /documents/doc 1", "DELETE /documents/doc 1"}, calls)
	assert.Equal(t, "u1", indexed.OwnerID)
	assert.Equal(t, "a.pdf", indexed.Filename)
}

func TestClient_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	ctx := context.Background()

	err := client.IndexDocument(ctx, model.Document{ID: "d1"})
	require.ErrorIs(t, err, model.ErrIndexing)
	assert.Contains(t, err.Error(), "503")

	require.NoError(t, client.RemoveDocument(ctx, "d1"))
}

func TestNewFallsBackToNoop(t *testing.T) {
	indexer := New("  ", time.Second)
	_, ok := indexer.(Noop)
	require.True(t, ok)

	require.NoError(t, indexer.IndexDocument(context.Background(), model.Document{}))
	require.NoError(t, indexer.RemoveDocument(context.Background(), "x"))

	_, ok = New("http://search.internal", time.Second).(*Client)
	require.True(t, ok)
}
