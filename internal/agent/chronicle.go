package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mhuss/foresight/internal/checkpoint"
	"github.com/mhuss/foresight/internal/config"
	"github.com/mhuss/foresight/internal/model"
	"github.com/mhuss/foresight/internal/research"
)

const (
	// chronicleBatchSize is how often the sequential runner checkpoints.
	chronicleBatchSize = 5

	// outcomeSearchResults bounds the evidence handed to the extractor.
	outcomeSearchResults = 8

	// snippetLimit truncates each result's content in the prompt.
	snippetLimit = 500
)

const chroniclePrompt = `You are researching what happened AFTER this historical event:

SEED EVENT:
Event: %s
Date: %s

CURRENT PATH:
%s

TASK: Find what actually happened %d months after "%s".

SEARCH RESULTS:
%s

Based on the search results, identify ONE specific event that:
1. Happened approximately %d months after the parent event
2. Was a DIRECT consequence of the parent event
3. Is specific, measurable, and well-documented
4. Has a clear date

OUTPUT FORMAT (JSON):
{
  "event": "30-year mortgage rates exceed 7%% for first time in 20 years",
  "date": "2022-10-27",
  "timeframe_months": 1,
  "research_summary": "Multiple sources confirm the threshold was crossed in late October 2022, a direct result of the rate hikes."
}

If no clear event is supported by the provided evidence, return:
{
  "event": null,
  "reason": "Could not find documented outcome at this timeframe"
}`

// chainState tracks a seed's progress through outcome discovery.
type chainState int

const (
	stateSearching chainState = iota
	stateFound
	stateBroken
	stateComplete
)

func (s chainState) String() string {
	switch s {
	case stateSearching:
		return "searching"
	case stateFound:
		return "found"
	case stateBroken:
		return "broken"
	case stateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// outcome is the extractor's answer for one depth. A null Event means
// the evidence did not support any outcome.
type outcome struct {
	Event           *string `json:"event"`
	Date            string  `json:"date"`
	TimeframeMonths int     `json:"timeframe_months"`
	ResearchSummary string  `json:"research_summary"`
	Reason          string  `json:"reason"`
}

// Chronicler walks forward from verified seeds through fixed monthly
// horizons, discovering what actually happened at each one.
type Chronicler struct {
	gw    *research.Gateway
	store checkpoint.Store
	cfg   *config.Config
}

// NewChronicler wires the chronicler to its gateway and store.
func NewChronicler(gw *research.Gateway, store checkpoint.Store, cfg *config.Config) *Chronicler {
	return &Chronicler{gw: gw, store: store, cfg: cfg}
}

// searchWindow computes the ±14-day window centered on the seed date
// plus 30 days per timeframe month.
func searchWindow(seedDate time.Time, timeframeMonths int) (string, string) {
	target := seedDate.AddDate(0, 0, 30*timeframeMonths)
	start := target.AddDate(0, 0, -14)
	end := target.AddDate(0, 0, 14)
	return start.Format(model.DateLayout), end.Format(model.DateLayout)
}

// searchForOutcome searches around the target horizon and asks the
// reasoning model for exactly one directly-caused, dated outcome. A
// false return means the chain breaks at this depth: no results, a
// null answer or an unparseable response all land here.
func (c *Chronicler) searchForOutcome(ctx context.Context, seed model.Seed, parentEvent string, path []string, timeframeMonths int) (*outcome, bool) {
	seedDate, err := seed.ParseDate()
	if err != nil {
		fmt.Printf("   Cannot chronicle seed with invalid date: %v\n", err)
		return nil, false
	}

	start, end := searchWindow(seedDate, timeframeMonths)

	results := c.gw.Search(ctx, research.SearchRequest{
		Query:      fmt.Sprintf("%s outcome consequence result %s", parentEvent, start),
		StartDate:  start,
		EndDate:    end,
		MaxResults: outcomeSearchResults,
	})
	if len(results) == 0 {
		fmt.Println("   No search results found")
		return nil, false
	}

	var snippets strings.Builder
	for i, r := range results {
		fmt.Fprintf(&snippets, "[%d] %s\nURL: %s\n%s\n\n", i+1, r.Title, r.URL, truncate(r.Content, snippetLimit))
	}

	prompt := fmt.Sprintf(chroniclePrompt,
		seed.Event, seed.Date,
		strings.Join(path, " -> "),
		timeframeMonths, parentEvent,
		snippets.String(),
		timeframeMonths)

	response, err := c.gw.Reason(ctx, prompt,
		"You are a factual historical researcher. Only report events that are clearly documented in the sources.",
		0.3, 8000)
	if err != nil {
		fmt.Printf("   Extraction failed: %v\n", err)
		return nil, false
	}

	raw, ok := research.ExtractJSON(response)
	if !ok {
		return nil, false
	}

	var out outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		fmt.Printf("   Unexpected extraction shape: %v\n", err)
		return nil, false
	}
	if out.Event == nil || *out.Event == "" {
		if out.Reason != "" {
			fmt.Printf("   No outcome found: %s\n", out.Reason)
		}
		return nil, false
	}

	fmt.Printf("   ✓ Found: %s\n", truncate(*out.Event, 60))
	return &out, true
}

// ChronicleSeed runs the per-seed state machine up to MaxDepth. A
// break at depth 1 discards the seed entirely; a break deeper than
// that completes with a partial chain.
func (c *Chronicler) ChronicleSeed(ctx context.Context, seed model.Seed) (*model.Case, bool) {
	fmt.Printf("Chronicling: %s (%s, %s)\n", truncate(seed.Event, 70), seed.Date, seed.Domain)

	cse := model.NewCase(seed)
	path := []string{seed.Event}
	currentEvent := seed.Event

	state := stateSearching
	for depth := 1; depth <= c.cfg.Chain.MaxDepth && state != stateBroken; depth++ {
		timeframe := depth // months
		fmt.Printf("  Depth %d (t+%d months)...\n", depth, timeframe)

		state = stateSearching
		out, found := c.searchForOutcome(ctx, seed, currentEvent, path, timeframe)
		if !found {
			state = stateBroken
			fmt.Printf("  Chain broken at depth %d\n", depth)
			continue
		}
		state = stateFound

		path = append(path, *out.Event)
		currentEvent = *out.Event

		cse.Levels = append(cse.Levels, model.Level{
			Depth:           depth,
			ParentEvent:     path[len(path)-2],
			Path:            append([]string(nil), path...),
			TimeframeMonths: timeframe,
			Date:            out.Date,
			ResearchSummary: out.ResearchSummary,
			Candidates:      []model.Candidate{{Event: *out.Event, Label: 1}},
		})
	}

	if len(cse.Levels) == 0 {
		// Broke at depth 1: a chain with no resolved level is useless.
		return nil, false
	}

	// A break past depth 1 still completes, with a partial chain.
	state = stateComplete
	fmt.Printf("  ✓ Chronicle %v: %d levels\n", state, len(cse.Levels))
	return cse, true
}

// Run chronicles each seed sequentially, resuming from the partial
// checkpoint and saving every few completed cases.
func (c *Chronicler) Run(ctx context.Context, seeds []model.Seed) ([]model.Case, error) {
	var cases []model.Case
	if found, err := c.store.Load(checkpoint.NameCasesPartial, &cases); err != nil {
		return nil, err
	} else if found {
		fmt.Printf("✓ Resuming from checkpoint: %d cases complete\n", len(cases))
	}

	done := make(map[string]bool, len(cases))
	for _, cse := range cases {
		done[cse.CaseID] = true
	}

	for i, seed := range seeds {
		if done[model.CaseID(seed)] {
			fmt.Printf("[%d/%d] Skipping (already done): %s\n", i+1, len(seeds), truncate(seed.Event, 50))
			continue
		}

		fmt.Printf("\n[%d/%d] ", i+1, len(seeds))
		cse, ok := c.chronicleOne(ctx, seed)
		if !ok {
			fmt.Println("  Skipping seed (could not chronicle)")
			continue
		}

		cases = append(cases, *cse)
		done[cse.CaseID] = true

		if len(cases)%chronicleBatchSize == 0 {
			if err := c.store.Save(checkpoint.NameCasesPartial, cases); err != nil {
				return nil, err
			}
		}
	}

	if err := c.store.Save(checkpoint.NameCasesChronicle, cases); err != nil {
		return nil, err
	}

	fmt.Printf("\n✓ Chronicle complete: %d cases\n", len(cases))
	return cases, nil
}

// chronicleOne isolates per-seed panics; a failing seed is recorded as
// skipped and never aborts its siblings.
func (c *Chronicler) chronicleOne(ctx context.Context, seed model.Seed) (cse *model.Case, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("  Seed failed: %v\n", r)
			cse, ok = nil, false
		}
	}()
	return c.ChronicleSeed(ctx, seed)
}
