package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgalign/kgalign/internal/config"
)

func TestFactoryOpenAICompatibleProviders(t *testing.T) {
	for _, provider := range []string{"openai", "vllm", "ollama"} {
		client, err := NewClient(context.Background(), config.LLMConfig{
			Provider: provider,
			Model:    "test-model",
			APIKey:   "key",
			BaseURL:  "http://localhost:1444/v1",
		})
		require.NoError(t, err, provider)
		assert.IsType(t, &OpenAIClient{}, client, provider)
	}
}

func TestFactoryClaude(t *testing.T) {
	client, err := NewClient(context.Background(), config.LLMConfig{
		Provider: "claude",
		Model:    "claude-sonnet-4-20250514",
		APIKey:   "key",
	})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, client)
}

func TestFactoryUnsupportedProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Provider: "palm"})
	assert.Error(t, err)
}
