package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khryptorgraphics/rcpspga/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Auth.Enabled = false
	cfg.API.RateLimit.Enabled = false

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(cfg, nil, logger)
	require.NoError(t, err)
	return srv
}

func chainProjectBody() map[string]any {
	return map[string]any{
		"durations":    []int{0, 3, 5, 0},
		"requirements": [][]int{{0}, {1}, {1}, {0}},
		"capacities":   []int{1},
		"precedences":  [][2]int{{0, 1}, {1, 2}, {2, 3}},
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler_WithoutStoreReportsHealthy(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["overall"])
}

func TestMetricsHandler_ReportsProjectCount(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["projects_held"])
}

func TestCreateProjectHandler_ValidProjectReturnsID(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/projects", chainProjectBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["project_id"])
	assert.Equal(t, float64(4), body["num_tasks"])
}

func TestCreateProjectHandler_RejectsOverCapacityRequirement(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	body := map[string]any{
		"durations":    []int{0, 3, 0},
		"requirements": [][]int{{0}, {5}, {0}},
		"capacities":   []int{1},
		"precedences":  [][2]int{{0, 1}, {1, 2}},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/projects", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDecodeHandler_ReturnsMakespanForChainProject(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	createRec := doJSON(t, router, http.MethodPost, "/api/v1/projects", chainProjectBody())
	require.Equal(t, http.StatusCreated, createRec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))
	projectID := created["project_id"].(string)

	decodeRec := doJSON(t, router, http.MethodPost, "/api/v1/projects/"+projectID+"/decode",
		map[string]any{"priority_list": []int{0, 1, 2, 3}})
	require.Equal(t, http.StatusOK, decodeRec.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(decodeRec.Body.Bytes(), &result))
	assert.Equal(t, float64(8), result["makespan"])
}

func TestDecodeHandler_UnknownProjectReturns404(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/projects/does-not-exist/decode",
		map[string]any{"priority_list": []int{0, 1}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvolveHandler_WithoutStoreReturns503(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	createRec := doJSON(t, router, http.MethodPost, "/api/v1/projects", chainProjectBody())
	require.Equal(t, http.StatusCreated, createRec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))
	projectID := created["project_id"].(string)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/projects/"+projectID+"/evolve", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSetupRouter_RejectsUnauthenticatedWhenAuthEnabled(t *testing.T) {
	srv := testServer(t)
	srv.config.Auth.Enabled = true
	router := srv.setupRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/projects", chainProjectBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
