package research

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type scriptedCompletion struct {
	mu       sync.Mutex
	requests []CompletionRequest
	respond  func(req CompletionRequest) (string, error)
}

func (c *scriptedCompletion) Complete(_ context.Context, req CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	return c.respond(req)
}

type scriptedSearch struct {
	mu       sync.Mutex
	requests []SearchRequest
	respond  func(req SearchRequest) ([]SearchResult, error)
}

func (s *scriptedSearch) Search(_ context.Context, req SearchRequest) ([]SearchResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(req)
}

func testOptions() Options {
	return Options{
		ResearchModel:     "research-model",
		ReasoningModel:    "reasoning-model",
		RetryAttempts:     2,
		RetryDelay:        time.Millisecond,
		SearchesPerMinute: 600000,
	}
}

func TestGateway_ResearchSelectsModel(t *testing.T) {
	completion := &scriptedCompletion{respond: func(req CompletionRequest) (string, error) {
		return "ok", nil
	}}
	gw := NewGateway(completion, &scriptedSearch{}, testOptions())

	if _, err := gw.Research(context.Background(), "prompt", "", 0.9, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := gw.Reason(context.Background(), "prompt", "", 0.3, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if completion.requests[0].Model != "research-model" {
		t.Errorf("Research used model %q", completion.requests[0].Model)
	}
	if completion.requests[1].Model != "reasoning-model" {
		t.Errorf("Reason used model %q", completion.requests[1].Model)
	}
	if completion.requests[0].SystemPrompt == "" || completion.requests[1].SystemPrompt == "" {
		t.Error("expected default system prompts to be filled in")
	}
}

func TestGateway_CompletionRetriesThenFails(t *testing.T) {
	completion := &scriptedCompletion{respond: func(CompletionRequest) (string, error) {
		return "", errors.New("service down")
	}}
	gw := NewGateway(completion, &scriptedSearch{}, testOptions())

	if _, err := gw.Research(context.Background(), "prompt", "", 0.7, 100); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if len(completion.requests) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(completion.requests))
	}
}

func TestGateway_SearchFailureReturnsEmpty(t *testing.T) {
	search := &scriptedSearch{respond: func(SearchRequest) ([]SearchResult, error) {
		return nil, errors.New("service down")
	}}
	gw := NewGateway(&scriptedCompletion{}, search, testOptions())

	results := gw.Search(context.Background(), SearchRequest{Query: "q", MaxResults: 3})
	if len(results) != 0 {
		t.Errorf("expected empty results on failure, got %d", len(results))
	}
	if len(search.requests) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(search.requests))
	}
}

func TestGateway_SearchCachesIdenticalRequests(t *testing.T) {
	search := &scriptedSearch{respond: func(SearchRequest) ([]SearchResult, error) {
		return []SearchResult{{Title: "t", URL: "https://example.com"}}, nil
	}}
	gw := NewGateway(&scriptedCompletion{}, search, testOptions())

	req := SearchRequest{Query: "fed decision", StartDate: "2024-09-01", EndDate: "2024-09-30", MaxResults: 5}
	first := gw.Search(context.Background(), req)
	second := gw.Search(context.Background(), req)

	if len(search.requests) != 1 {
		t.Errorf("expected 1 outbound call, got %d", len(search.requests))
	}
	if len(first) != 1 || len(second) != 1 || first[0].URL != second[0].URL {
		t.Error("cached result differs from original")
	}

	// A different request misses the cache.
	gw.Search(context.Background(), SearchRequest{Query: "other", MaxResults: 5})
	if len(search.requests) != 2 {
		t.Errorf("expected cache miss for different request, got %d calls", len(search.requests))
	}
}
