package service

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is a canned completion for the MockLLM.
type MockResponse struct {
	Content string
	Err     error
}

// MockCall records one Complete invocation.
type MockCall struct {
	Prompt      string
	Temperature float32
}

// MockLLM is a deterministic LLM for testing. It returns canned responses
// in FIFO order and records all calls.
type MockLLM struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []MockCall
}

func NewMockLLM(responses ...MockResponse) *MockLLM {
	return &MockLLM{responses: responses}
}

func (m *MockLLM) Complete(_ context.Context, prompt string, temperature float32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Prompt: prompt, Temperature: temperature})

	if len(m.responses) == 0 {
		return "", errors.New("mock llm: no responses left")
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Content, nil
}
