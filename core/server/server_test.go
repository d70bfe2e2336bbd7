package server_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediavault/core/server"
	"mediavault/core/storage"
	"mediavault/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testResolved(t *testing.T, endpoint string) *storage.Resolved {
	t.Helper()
	cfg := storage.Config{
		Endpoint:       endpoint,
		AccessKey:      "test-access",
		SecretKey:      "test-secret",
		PrivateBuckets: []string{"docs"},
		PublicBuckets:  []string{"images"},
	}
	r, err := cfg.Resolve()
	require.NoError(t, err)
	return r
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestHandleHealth_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store := testResolved(t, strings.TrimPrefix(srv.URL, "http://"))
	h := server.NewHandler(server.Config{}, store, new(mocks.Client), storage.NewProber(store), zap.NewNop())
	app := h.App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["available"])
	assert.Equal(t, float64(http.StatusForbidden), body["status_code"])
}

func TestHandleHealth_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	store := testResolved(t, endpoint)
	h := server.NewHandler(server.Config{}, store, new(mocks.Client), storage.NewProber(store), zap.NewNop())
	app := h.App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["available"])
	assert.Contains(t, body["details"], "could not open connection")
}

func TestHandleBuckets(t *testing.T) {
	store := testResolved(t, "minio.local:9000")
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "docs").Return(true, nil)
	client.On("BucketExists", mock.Anything, "images").Return(false, nil)
	client.On("BucketExists", mock.Anything, storage.DefaultMediaBucket).
		Return(false, errors.New("connection refused"))

	h := server.NewHandler(server.Config{}, store, client, storage.NewProber(store), zap.NewNop())
	app := h.App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/buckets", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	buckets, ok := body["buckets"].([]any)
	require.True(t, ok)
	require.Len(t, buckets, len(store.Buckets()))

	byName := make(map[string]map[string]any)
	for _, raw := range buckets {
		b := raw.(map[string]any)
		byName[b["name"].(string)] = b
	}

	assert.Equal(t, "private", byName["docs"]["visibility"])
	assert.Equal(t, true, byName["docs"]["exists"])
	assert.Equal(t, "public", byName["images"]["visibility"])
	assert.Equal(t, false, byName["images"]["exists"])
	assert.Contains(t, byName[storage.DefaultMediaBucket]["error"], "connection refused")
}

func TestAPIKeyGuard(t *testing.T) {
	store := testResolved(t, "minio.local:9000")
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, mock.Anything).Return(true, nil)

	h := server.NewHandler(server.Config{ApiKey: "s3cret"}, store, client, storage.NewProber(store), zap.NewNop())
	app := h.App()

	t.Run("MissingKey", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/buckets", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("WrongKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/buckets", nil)
		req.Header.Set("X-API-Key", "nope")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("ValidKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/buckets", nil)
		req.Header.Set("X-API-Key", "s3cret")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestRequestIDPropagation(t *testing.T) {
	store := testResolved(t, "minio.local:9000")
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, mock.Anything).Return(true, nil)

	h := server.NewHandler(server.Config{}, store, client, storage.NewProber(store), zap.NewNop())
	app := h.App()

	req := httptest.NewRequest(http.MethodGet, "/buckets", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", resp.Header.Get("X-Request-ID"))
}
