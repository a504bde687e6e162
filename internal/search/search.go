package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-doc-lifecycle/internal/model"
)

// Indexer is the contract the lifecycle service expects from the external
// search index.
type Indexer interface {
	IndexDocument(ctx context.Context, doc model.Document) error
	RemoveDocument(ctx context.Context, documentID string) error
}

// Noop is used when no search index is configured.
type Noop struct{}

func (Noop) IndexDocument(context.Context, model.Document) error { return nil }
func (Noop) RemoveDocument(context.Context, string) error { return nil }

// Client talks to an external index service over HTTP:
//
//	PUT    {base}/documents/{id}   index or re-index a document
//	DELETE {base}/documents/{id}   drop a document from the index
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type indexPayload struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	Filename       string `json:"filename"`
	OriginalName   string `json:"original_name"`
	ContentType    string `json:"content_type"`
	StoragePath    string `json:"storage_path"`
	Size           int64  `json:"size"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "search.client"),
	}
}

// New returns an HTTP client when baseURL is set and a no-op indexer otherwise.
func New(baseURL string, timeout time.Duration) Indexer {
	if strings.TrimSpace(baseURL) == "" {
		return Noop{}
	}
	return NewClient(baseURL, timeout)
}

func (c *Client) IndexDocument(ctx context.Context, doc model.Document) error {
	body, err := json.Marshal(indexPayload{
		ID:             doc.ID,
		OwnerID:        doc.OwnerID,
		OrganizationID: doc.OrganizationID,
		Filename:       doc.Filename,
		OriginalName:   doc.OriginalName,
		ContentType:    doc.ContentType,
		StoragePath:    doc.StoragePath,
		Size:           doc.Size,
	})
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", model.ErrIndexing, err)
	}

	return c.do(ctx, http.MethodPut, doc.ID, body)
}

func (c *Client) RemoveDocument(ctx context.Context, documentID string) error {
	return c.do(ctx, http.MethodDelete, documentID, nil)
}

func (c *Client) do(ctx context.Context, method string, documentID string, body []byte) error {
	endpoint := c.baseURL + "/documents/" + url.PathEscape(documentID)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", model.ErrIndexing, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", model.ErrIndexing, method, endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	// A document the index never had is already removed.
	if method == http.MethodDelete && resp.StatusCode == http.StatusNotFound {
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned %d", model.ErrIndexing, method, endpoint, resp.StatusCode)
	}

	c.logger.Debug("search index updated", "method", method, "document_id", documentID)
	return nil
}
