package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemasmith/schemasmith/internal/artifact"
	"github.com/schemasmith/schemasmith/internal/logger"
)

// memStore keeps artifacts in memory so handler tests need no live backend.
type memStore struct {
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Ping(context.Context) error { return nil }
func (s *memStore) Close() error               { return nil }

func (s *memStore) Put(_ context.Context, key, contentType string, content []byte) (*artifact.Info, error) {
	if s.putErr != nil {
		return nil, s.putErr
	}
	s.objects[key] = content
	return &artifact.Info{Key: key, Size: int64(len(content)), ContentType: contentType}, nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, *artifact.Info, error) {
	data := s.objects[key]
	return data, &artifact.Info{Key: key, Size: int64(len(data))}, nil
}

func (s *memStore) PresignURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.local/" + key, nil
}

func postGenerate(t *testing.T, handler http.Handler, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) generateResponse {
	t.Helper()
	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	router := NewRouter(logger.Nop(), nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGenerateEndpoint(t *testing.T) {
	router := NewRouter(logger.Nop(), nil)
	rec := postGenerate(t, router, "/api/v1/schema/generate", map[string]string{
		"input_data": "CREATE TABLE users (id INT PRIMARY KEY, email VARCHAR(120) NOT NULL);",
		"input_type": "sql",
		"target_db":  "mysql",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.NotEmpty(t, resp.RequestID)
	assert.Contains(t, resp.OutputDDL, "CREATE TABLE `users`")
	assert.Equal(t, "schema generated", resp.Message)
}

func TestGenerateEndpointFormats(t *testing.T) {
	tests := []struct {
		name   string
		target string
		format string
		marker string
	}{
		{"postgres ddl", "postgres", "", `CREATE TABLE "users"`},
		{"canonical json", "mysql", "json", `"schemaName"`},
		{"document schema", "document", "document", `"collections"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(logger.Nop(), nil)
			rec := postGenerate(t, router, "/api/v1/schema/generate", map[string]string{
				"input_data": "CREATE TABLE users (id INT PRIMARY KEY);",
				"input_type": "sql",
				"target_db":  tt.target,
				"format":     tt.format,
			})

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, decodeResponse(t, rec).OutputDDL, tt.marker)
		})
	}
}

func TestGenerateBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{
			"unknown input type",
			map[string]string{"input_data": "x", "input_type": "cobol", "target_db": "mysql"},
		},
		{
			"unknown target db",
			map[string]string{"input_data": "x", "input_type": "sql", "target_db": "oracle"},
		},
		{
			"malformed sql",
			map[string]string{"input_data": "CREATE TABLE broken (", "input_type": "sql", "target_db": "mysql"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(logger.Nop(), nil)
			rec := postGenerate(t, router, "/api/v1/schema/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestGenerateMalformedBody(t *testing.T) {
	router := NewRouter(logger.Nop(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schema/generate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Validation failures return 422 together with the diagnostics that explain
// what is wrong.
func TestGenerateValidationFailure(t *testing.T) {
	router := NewRouter(logger.Nop(), nil)
	rec := postGenerate(t, router, "/api/v1/schema/generate", map[string]string{
		"input_data": "CREATE TABLE `order details` (id INT PRIMARY KEY);",
		"input_type": "sql",
		"target_db":  "mysql",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Empty(t, resp.OutputDDL)
	require.NotEmpty(t, resp.Diagnostics)

	var hasError bool
	for _, d := range resp.Diagnostics {
		if d.Severity == "error" {
			hasError = true
		}
	}
	assert.True(t, hasError)
}

func TestGenerateStoresArtifact(t *testing.T) {
	store := newMemStore()
	router := NewRouter(logger.Nop(), store)
	rec := postGenerate(t, router, "/api/v1/schema/generate?store=1", map[string]string{
		"input_data": "CREATE TABLE users (id INT PRIMARY KEY);",
		"input_type": "sql",
		"target_db":  "mysql",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotEmpty(t, resp.ArtifactURL)
	assert.True(t, strings.HasPrefix(resp.ArtifactURL, "https://store.local/schemas/mysql/"))
	assert.True(t, strings.HasSuffix(resp.ArtifactURL, ".sql"))
	require.Len(t, store.objects, 1)
}

// A storage failure must not fail the request; the schema is still returned.
func TestGenerateStoreFailureIsNonFatal(t *testing.T) {
	store := newMemStore()
	store.putErr = assert.AnError
	router := NewRouter(logger.Nop(), store)
	rec := postGenerate(t, router, "/api/v1/schema/generate?store=1", map[string]string{
		"input_data": "CREATE TABLE users (id INT PRIMARY KEY);",
		"input_type": "sql",
		"target_db":  "mysql",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Empty(t, resp.ArtifactURL)
	assert.NotEmpty(t, resp.OutputDDL)
}

func TestGenerateWithoutStoreIgnoresStoreFlag(t *testing.T) {
	router := NewRouter(logger.Nop(), nil)
	rec := postGenerate(t, router, "/api/v1/schema/generate?store=1", map[string]string{
		"input_data": "CREATE TABLE users (id INT PRIMARY KEY);",
		"input_type": "sql",
		"target_db":  "mysql",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeResponse(t, rec).ArtifactURL)
}
