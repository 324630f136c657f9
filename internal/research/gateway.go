package research

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	defaultSystemResearch  = "You are a helpful research assistant."
	defaultSystemReasoning = "You are a reasoning assistant that thinks step-by-step."
)

// Options configures a Gateway.
type Options struct {
	// ResearchModel is the higher-creativity model used for
	// brainstorming and counterfactual generation.
	ResearchModel string

	// ReasoningModel is the lower-temperature model used for factual
	// extraction from search evidence.
	ReasoningModel string

	// RetryAttempts and RetryDelay bound the retry loop around every
	// outbound call.
	RetryAttempts int
	RetryDelay    time.Duration

	// SearchesPerMinute caps the outbound search rate.
	SearchesPerMinute int

	// CacheTTL controls how long search results are kept in the
	// in-process cache. Zero disables expiry within the run.
	CacheTTL time.Duration
}

// Gateway is the single point of contact with the completion and
// search services. It owns retry, rate limiting and response
// normalization so the agents never talk to raw clients.
type Gateway struct {
	completion CompletionClient
	search     SearchClient
	cache      *gocache.Cache
	limiter    *rate.Limiter
	opts       Options
}

// NewGateway builds a gateway around explicit clients. Passing fakes
// here is how tests run the agents without network access.
func NewGateway(completion CompletionClient, search SearchClient, opts Options) *Gateway {
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.SearchesPerMinute == 0 {
		opts.SearchesPerMinute = 60
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}

	return &Gateway{
		completion: completion,
		search:     search,
		cache:      gocache.New(ttl, 10*time.Minute),
		limiter:    rate.NewLimiter(rate.Limit(float64(opts.SearchesPerMinute)/60.0), 1),
		opts:       opts,
	}
}

// Research calls the creative model. An empty system prompt gets the
// research default.
func (g *Gateway) Research(ctx context.Context, prompt, systemPrompt string, temperature float32, maxTokens int) (string, error) {
	if systemPrompt == "" {
		systemPrompt = defaultSystemResearch
	}
	return g.complete(ctx, g.opts.ResearchModel, prompt, systemPrompt, temperature, maxTokens)
}

// Reason calls the factual model. An empty system prompt gets the
// reasoning default.
func (g *Gateway) Reason(ctx context.Context, prompt, systemPrompt string, temperature float32, maxTokens int) (string, error) {
	if systemPrompt == "" {
		systemPrompt = defaultSystemReasoning
	}
	return g.complete(ctx, g.opts.ReasoningModel, prompt, systemPrompt, temperature, maxTokens)
}

func (g *Gateway) complete(ctx context.Context, model, prompt, systemPrompt string, temperature float32, maxTokens int) (string, error) {
	var out string
	err := Retry(ctx, g.opts.RetryAttempts, g.opts.RetryDelay, "LLM call", func() error {
		text, err := g.completion.Complete(ctx, CompletionRequest{
			Model:        model,
			Prompt:       prompt,
			SystemPrompt: systemPrompt,
			Temperature:  temperature,
			MaxTokens:    maxTokens,
		})
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// Search runs a rate-limited, cached search. Failures after retries
// degrade to an empty result list: downstream logic treats "no
// evidence found" as a legitimate, common outcome, never an error.
func (g *Gateway) Search(ctx context.Context, req SearchRequest) []SearchResult {
	key := searchKey(req)
	if cached, ok := g.cache.Get(key); ok {
		return cached.([]SearchResult)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil
	}

	var results []SearchResult
	err := Retry(ctx, g.opts.RetryAttempts, g.opts.RetryDelay, "search", func() error {
		r, err := g.search.Search(ctx, req)
		if err != nil {
			return err
		}
		results = r
		return nil
	})
	if err != nil {
		fmt.Printf("Warning: search gave up after retries: %v\n", err)
		return nil
	}

	g.cache.Set(key, results, gocache.DefaultExpiration)
	return results
}

// searchKey hashes the full request so identical re-searches on resume
// hit the cache instead of re-billing the provider.
func searchKey(req SearchRequest) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(data)
	return "foresight:search:v1:" + hex.EncodeToString(hash[:])
}
