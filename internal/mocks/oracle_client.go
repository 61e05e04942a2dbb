package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/tempo/internal/oracle"
)

// MockOracleClient implements oracle.Client for testing
type MockOracleClient struct {
	// CompleteFn allows test cases to mock the Complete behavior
	CompleteFn func(ctx context.Context, prompt string) (string, error)

	// Default response values
	Reply string
	Err   error

	// Call tracking for verification
	CompleteCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times Complete was called
		Count int

		// Prompts contains every prompt passed to Complete
		Prompts []string
	}
}

var _ oracle.Client = (*MockOracleClient)(nil)

// Complete implements the oracle.Client interface
func (m *MockOracleClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.CompleteCalls.mu.Lock()
	m.CompleteCalls.Count++
	m.CompleteCalls.Prompts = append(m.CompleteCalls.Prompts, prompt)
	m.CompleteCalls.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, prompt)
	}
	return m.Reply, m.Err
}

// CallCount returns how many times Complete was called.
func (m *MockOracleClient) CallCount() int {
	m.CompleteCalls.mu.Lock()
	defer m.CompleteCalls.mu.Unlock()
	return m.CompleteCalls.Count
}

// LastPrompt returns the most recent prompt, or "" if none.
func (m *MockOracleClient) LastPrompt() string {
	m.CompleteCalls.mu.Lock()
	defer m.CompleteCalls.mu.Unlock()
	if len(m.CompleteCalls.Prompts) == 0 {
		return ""
	}
	return m.CompleteCalls.Prompts[len(m.CompleteCalls.Prompts)-1]
}

// NewMockOracleClientWithReply creates a MockOracleClient that always returns reply
func NewMockOracleClientWithReply(reply string) *MockOracleClient {
	return &MockOracleClient{Reply: reply}
}

// NewMockOracleClientWithError creates a MockOracleClient that always fails with err
func NewMockOracleClientWithError(err error) *MockOracleClient {
	return &MockOracleClient{Err: err}
}

// MockOracleClientThatHangs creates a MockOracleClient that blocks until its
// context is done, simulating a service that never answers
func MockOracleClientThatHangs() *MockOracleClient {
	return &MockOracleClient{
		CompleteFn: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}
