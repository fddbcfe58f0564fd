package matching

import (
	"context"

	"github.com/kgalign/kgalign/internal/llm"
)

type MockLLMClient struct {
	Response      string
	ResponseQueue []string
	Err           error
	Calls         int
	LastPrompt    string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, gen llm.GenerationConfig) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}
