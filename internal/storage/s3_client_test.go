package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), S3Config{
		Region:     "us-east-1",
		Bucket:     "attachments",
		AccessKey:  "test",
		SecretKey:  "test",
		Endpoint:   srv.URL,
		PublicBase: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBucket(t *testing.T) {
	_, err := NewClient(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestFileURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, "https://cdn.example.com/uploads/a.png", client.FileURL("/uploads/a.png"))
	assert.Empty(t, client.FileURL(""))

	var nilClient *Client
	assert.Empty(t, nilClient.FileURL("uploads/a.png"))
}

func TestExists(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/attachments/uploads/present.pdf":
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusOK)
		case "/attachments/uploads/locked.pdf":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	ok, err := client.Exists(ctx, "uploads/present.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Exists(ctx, "uploads/missing.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.Exists(ctx, "uploads/locked.pdf")
	assert.Error(t, err)

	_, err = client.Exists(ctx, "")
	assert.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, paths, "HEAD /attachments/uploads/present.pdf")
}
