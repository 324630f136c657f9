package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mhuss/foresight/internal/config"
	"github.com/mhuss/foresight/internal/research"
)

// fakeCompletion replays scripted responses in call order. A nil entry
// in errs means the matching response is returned successfully.
type fakeCompletion struct {
	mu        sync.Mutex
	requests  []research.CompletionRequest
	responses []string
	errs      []error
}

func (f *fakeCompletion) Complete(_ context.Context, req research.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.requests)
	f.requests = append(f.requests, req)

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func (f *fakeCompletion) calls() []research.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]research.CompletionRequest(nil), f.requests...)
}

// fakeSearch answers every request through a single function.
type fakeSearch struct {
	mu       sync.Mutex
	requests []research.SearchRequest
	respond  func(req research.SearchRequest) []research.SearchResult
}

func (f *fakeSearch) Search(_ context.Context, req research.SearchRequest) ([]research.SearchResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.respond == nil {
		return nil, nil
	}
	return f.respond(req), nil
}

func (f *fakeSearch) calls() []research.SearchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]research.SearchRequest(nil), f.requests...)
}

// newTestGateway wires fakes into a real gateway with retries and rate
// limiting tuned so tests run instantly.
func newTestGateway(completion research.CompletionClient, search research.SearchClient) *research.Gateway {
	return research.NewGateway(completion, search, research.Options{
		ResearchModel:     "research-model",
		ReasoningModel:    "reasoning-model",
		RetryAttempts:     1,
		RetryDelay:        time.Millisecond,
		SearchesPerMinute: 6000000,
	})
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.API.OpenRouterKey = "test-key"
	return cfg
}
