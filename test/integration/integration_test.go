//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgalign/kgalign/internal/config"
	"github.com/kgalign/kgalign/internal/core/matching"
	"github.com/kgalign/kgalign/internal/core/pipeline"
	"github.com/kgalign/kgalign/internal/llm"
)

// loadTestConfig pulls the LLM endpoint from config/config.toml plus env
// overrides, falling back to a local Ollama default when neither exists.
func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	_ = godotenv.Load("../../.env")

	cfg, err := config.Load("../../config/config.toml")
	if err != nil {
		t.Logf("Config not found, using default: %v", err)
		cfg = config.Default()
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	cfg.ApplyEnv()
	return cfg
}

func writeFixtureData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"KG1_entity_attributes.json": `{
			"0": {"name": "Berlin", "type": "City", "country": "Germany", "population": "3850000"},
			"1": {"name": "University of Tokyo", "type": "University", "country": "Japan"}
		}`,
		"KG2_entity_attributes.json": `{
			"408": {"name": "Berlin", "type": "City", "country": "Germany"},
			"409": {"name": "Munich", "type": "City", "country": "Germany"},
			"512": {"name": "Tokyo University", "type": "University", "country": "Japan"},
			"513": {"name": "Kyoto University", "type": "University", "country": "Japan"}
		}`,
		"alignment_candidates.txt": "0\t408\t0.95\t1\n0\t409\t0.60\t2\n1\t512\t0.88\t1\n1\t513\t0.70\t2\n",
		"ref_pairs":                "0\t408\n1\t512\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// TestAlignmentAgainstLiveLLM runs the full pipeline on a tiny fixture
// against whatever backend the config points at. Requires a reachable LLM.
func TestAlignmentAgainstLiveLLM(t *testing.T) {
	cfg := loadTestConfig(t)
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" && cfg.LLM.Provider != "vllm" {
		t.Skip("LLM_API_KEY not set, skipping live LLM test")
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, cfg.LLM)
	require.NoError(t, err)

	matcher := matching.NewMatcher(client, llm.GenerationConfig{
		MaxNewTokens: cfg.Generation.MaxNewTokens,
		Temperature:  cfg.Generation.Temperature,
		TopP:         cfg.Generation.TopP,
		DoSample:     cfg.Generation.DoSample,
	}, cfg.Pipeline.NoMatchThreshold)

	dataDir := writeFixtureData(t)
	outDir := t.TempDir()

	p := pipeline.New(matcher, pipeline.Options{
		DataDir:       dataDir,
		OutputDir:     outDir,
		NumCandidates: 5,
		Timeout:       2 * time.Minute,
	})

	results, metrics, err := p.Run(ctx)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 2, metrics.TotalEntities)
	assert.Equal(t, pipeline.StateDone, p.State())

	for _, r := range results {
		t.Logf("entity %s -> %q (confidence %.2f): %s", r.SourceID, r.BestMatchID, r.Confidence, r.Reasoning)
		if r.Matched() {
			assert.GreaterOrEqual(t, r.Confidence, 0.0)
			assert.LessOrEqual(t, r.Confidence, 1.0)
		}
	}

	// Outputs land on disk regardless of how the model scored.
	_, err = os.Stat(filepath.Join(outDir, "alignment_results.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "evaluation_metrics.json"))
	assert.NoError(t, err)
}

// TestSingleEntityAlignment exercises the on-demand path against a live LLM.
func TestSingleEntityAlignment(t *testing.T) {
	cfg := loadTestConfig(t)
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" && cfg.LLM.Provider != "vllm" {
		t.Skip("LLM_API_KEY not set, skipping live LLM test")
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, cfg.LLM)
	require.NoError(t, err)

	matcher := matching.NewMatcher(client, llm.GenerationConfig{MaxNewTokens: 512}, cfg.Pipeline.NoMatchThreshold)
	p := pipeline.New(matcher, pipeline.Options{
		DataDir: writeFixtureData(t),
		Timeout: 2 * time.Minute,
	})
	require.NoError(t, p.Load(ctx))

	res, err := p.AlignEntity(ctx, "0")
	require.NoError(t, err)
	assert.Equal(t, "0", res.SourceID)
	assert.NotEmpty(t, res.RawResponse)
}
