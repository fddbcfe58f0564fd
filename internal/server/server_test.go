package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgalign/kgalign/internal/core/matching"
	"github.com/kgalign/kgalign/internal/core/model"
	"github.com/kgalign/kgalign/internal/core/pipeline"
	"github.com/kgalign/kgalign/internal/llm"
)

type staticLLM struct {
	response string
}

func (s *staticLLM) Generate(ctx context.Context, prompt string, gen llm.GenerationConfig) (string, error) {
	return s.response, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	files := map[string]string{
		"KG1_entity_attributes.json": `{"0": {"name": "Berlin", "type": "City"}}`,
		"KG2_entity_attributes.json": `{"408": {"name": "Berlin", "type": "City"}}`,
		"alignment_candidates.txt":   "0\t408\t0.95\t1\n",
		"ref_pairs":                  "0\t408\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	client := &staticLLM{response: "Best match: 0\nConfidence: 0.95\nReasoning: Same name."}
	matcher := matching.NewMatcher(client, llm.GenerationConfig{MaxNewTokens: 256}, 0.3)
	p := pipeline.New(matcher, pipeline.Options{DataDir: dir})
	require.NoError(t, p.Load(context.Background()))

	return NewServer(p)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	r := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAlignEntity(t *testing.T) {
	srv := newTestServer(t)
	r := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/align", strings.NewReader(`{"source_id": "0"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result model.MatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "0", result.SourceID)
	assert.Equal(t, "408", result.BestMatchID)
	assert.Equal(t, 0.95, result.Confidence)
}

func TestAlignEntityNotFound(t *testing.T) {
	srv := newTestServer(t)
	r := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/align", strings.NewReader(`{"source_id": "999"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlignEntityMissingID(t *testing.T) {
	srv := newTestServer(t)
	r := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/align", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunAlignment(t *testing.T) {
	srv := newTestServer(t)
	r := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var metrics model.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, 1.0, metrics.Precision)
	assert.Equal(t, 1.0, metrics.Recall)
}

func TestGetState(t *testing.T) {
	srv := newTestServer(t)
	r := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["run_id"])
	assert.NotEmpty(t, body["state"])
}
