package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("key", value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandlePut(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "valid put",
			key:            "testkey",
			body:           "hello world",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"data":{"message":"Key-value pair stored successfully"}}`,
		},
		{
			name:           "missing key",
			key:            "",
			body:           "some data",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"error":"Key is required"}`,
		},
		{
			name:           "url encoded key",
			key:            "user%2F123",
			body:           "data for user/123",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"data":{"message":"Key-value pair stored successfully"}}`,
		},
		{
			name:           "empty body",
			key:            "emptykey",
			body:           "",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"data":{"message":"Key-value pair stored successfully"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, cleanup := setupTestServer(t)
			defer cleanup()

			req := httptest.NewRequest(http.MethodPut, "/kv/"+tt.key, strings.NewReader(tt.body))
			req = withURLParam(req, "key", tt.key)

			w := httptest.NewRecorder()
			server.handlePut(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestHandlePut_ExceedsMaxRecordSize(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()
	server.config.MaxRecordSize = 4

	req := httptest.NewRequest(http.MethodPut, "/kv/bigkey", strings.NewReader("this value is too long"))
	req = withURLParam(req, "key", "bigkey")

	w := httptest.NewRecorder()
	server.handlePut(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandleGet(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()
	require.NoError(t, server.engine.Set([]byte("testkey"), []byte("testvalue")))

	t.Run("existing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/kv/testkey", nil)
		req = withURLParam(req, "key", "testkey")

		w := httptest.NewRecorder()
		server.handleGet(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "testvalue", w.Body.String())
	})

	t.Run("missing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/kv/nosuchkey", nil)
		req = withURLParam(req, "key", "nosuchkey")

		w := httptest.NewRecorder()
		server.handleGet(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/kv/", nil)
		req = withURLParam(req, "key", "")

		w := httptest.NewRecorder()
		server.handleGet(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleDelete(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()
	require.NoError(t, server.engine.Set([]byte("testkey"), []byte("testvalue")))

	req := httptest.NewRequest(http.MethodDelete, "/kv/testkey", nil)
	req = withURLParam(req, "key", "testkey")

	w := httptest.NewRecorder()
	server.handleDelete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	_, err := server.engine.Get([]byte("testkey"))
	assert.Error(t, err)
}

func TestHandleListKeys(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()
	require.NoError(t, server.engine.Set([]byte("user:1"), []byte("a")))
	require.NoError(t, server.engine.Set([]byte("user:2"), []byte("b")))
	require.NoError(t, server.engine.Set([]byte("item:1"), []byte("c")))

	req := httptest.NewRequest(http.MethodGet, "/kv?prefix=user:", nil)
	w := httptest.NewRecorder()
	server.handleListKeys(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user:1")
	assert.Contains(t, w.Body.String(), "user:2")
	assert.NotContains(t, w.Body.String(), "item:1")
}

func TestHandleStats(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()
	require.NoError(t, server.engine.Set([]byte("a"), []byte("1")))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	server.handleStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Keys":1`)
}

func TestHandleHealth(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"healthy"}}`, w.Body.String())
}
