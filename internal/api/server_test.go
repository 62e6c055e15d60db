package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scentlog/scentlog-server/internal/metrics"
	"github.com/scentlog/scentlog-server/internal/search"
	"github.com/scentlog/scentlog-server/internal/service"
	"github.com/scentlog/scentlog-server/internal/store"
)

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api     humatest.TestAPI
	mem     *store.Memory
	index   *search.Index
	cleanup func()
}

// setupTestServer creates a server backed by an in-memory store and index.
func setupTestServer(t *testing.T, opts ...func(*Options)) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	index, err := search.New(logger)
	require.NoError(t, err)

	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	var rec metrics.Recorder
	if o.Metrics != nil {
		rec = o.Metrics
	}

	mem := store.NewMemory(nil)
	collection := service.NewCollectionService(mem, index, rec, nil, nil, service.Options{})
	require.NoError(t, collection.Load(context.Background()))

	s := NewServer(collection, index, o, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		mem:    mem,
		index:  index,
		cleanup: func() {
			_ = index.Close() //nolint:errcheck // Test cleanup
		},
	}
}

// envelope is the decoded response body.
type envelope struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

// decodeData unwraps a successful envelope into T.
func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, resp)
	require.True(t, env.Success, resp.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestServer_UnknownRouteUsesEnvelope(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/nope")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	ts := setupTestServer(t, func(o *Options) { o.Metrics = m })
	defer ts.cleanup()

	ts.api.Post("/api/v1/perfumes", map[string]any{"name": "Aventus", "brand": "Creed"})
	ts.api.Get("/api/v1/perfumes")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, "scentlog_mutations_total")
	assert.Contains(t, body, `route="/api/v1/perfumes"`)
	assert.Contains(t, body, "scentlog_perfumes 1")
}

func TestServer_NoMetricsEndpointWhenDisabled(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/metrics")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_CORS(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.AllowedOrigins = []string{"http://localhost:5173"} })
	defer ts.cleanup()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/perfumes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
