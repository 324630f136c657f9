package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mhuss/foresight/internal/checkpoint"
	"github.com/mhuss/foresight/internal/config"
	"github.com/mhuss/foresight/internal/model"
	"github.com/mhuss/foresight/internal/research"
)

// alternativesBatchSize is how often enriched cases are checkpointed.
const alternativesBatchSize = 10

const alternativePrompt = `You are generating counterfactual events that COULD have happened but DIDN'T.

CONTEXT:
Seed Event: %s (%s)
Current Path: %s
What Actually Happened: %s (label=1)
Timeframe: %d months

TASK: Generate %d plausible ALTERNATIVE events that:
1. COULD have happened at this timeframe
2. Are similar in magnitude/impact to the actual event
3. Are specific and measurable
4. Did NOT actually happen
5. Are diverse (different types of outcomes)

REQUIREMENTS:
- Be realistic given the context
- Similar timeframe as actual event
- Match the domain/theme
- NOT repeat the actual event

OUTPUT FORMAT (JSON array):
[
  {"event": "Fed announces pause in rate hikes citing recession concerns", "label": 0},
  {"event": "Mortgage rates stabilize at 6.5%% as investors flee to bonds", "label": 0},
  {"event": "Housing market crashes 30%% triggering emergency Fed action", "label": 0}
]

Generate EXACTLY %d alternatives.`

// AlternativeGenerator synthesizes plausible-but-false counterfactual
// candidates for every level of every case.
type AlternativeGenerator struct {
	gw    *research.Gateway
	store checkpoint.Store
	cfg   *config.Config
}

// NewAlternativeGenerator wires the generator to its gateway and store.
func NewAlternativeGenerator(gw *research.Gateway, store checkpoint.Store, cfg *config.Config) *AlternativeGenerator {
	return &AlternativeGenerator{gw: gw, store: store, cfg: cfg}
}

// EnrichCase appends up to AlternativesPerLevel negative candidates to
// each level. Partial sets are tolerated: a level that keeps fewer
// alternatives than requested never blocks the pipeline.
func (g *AlternativeGenerator) EnrichCase(ctx context.Context, cse *model.Case) {
	fmt.Printf("Generating alternatives for: %s\n", truncate(cse.CaseID, 50))

	want := g.cfg.Chain.AlternativesPerLevel
	for i := range cse.Levels {
		level := &cse.Levels[i]
		positive, ok := level.Positive()
		if !ok {
			fmt.Printf("  Depth %d has no positive candidate, skipping\n", level.Depth)
			continue
		}

		fmt.Printf("  Depth %d: generating %d alternatives...\n", level.Depth, want)

		prompt := fmt.Sprintf(alternativePrompt,
			cse.Seed.Event, cse.Seed.Date,
			strings.Join(level.Path, " -> "),
			positive.Event,
			level.TimeframeMonths,
			want, want)

		alternatives := g.request(ctx, prompt, 0.9)
		if len(alternatives) < want {
			fmt.Printf("  Only got %d alternatives, retrying at higher temperature...\n", len(alternatives))
			// One retry favoring diversity; accept whatever it yields.
			if retried := g.request(ctx, prompt, 0.95); len(retried) > len(alternatives) {
				alternatives = retried
			}
		}
		if len(alternatives) == 0 {
			fmt.Println("  Failed to generate alternatives")
			continue
		}

		added := appendDistinct(level, alternatives, want)
		fmt.Printf("  ✓ Added %d alternatives\n", added)
	}
}

// request asks the research model for counterfactuals and parses the
// response. A parse failure returns an empty slice, never an error.
func (g *AlternativeGenerator) request(ctx context.Context, prompt string, temperature float32) []model.Candidate {
	response, err := g.gw.Research(ctx, prompt, "", temperature, 1000)
	if err != nil {
		fmt.Printf("  Alternative generation failed: %v\n", err)
		return nil
	}

	raw, ok := research.ExtractJSON(response)
	if !ok {
		return nil
	}

	var candidates []model.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		fmt.Printf("  Unexpected alternatives shape: %v\n", err)
		return nil
	}
	return candidates
}

// appendDistinct adds counterfactuals to the level, forcing label=0,
// dropping restatements of existing candidates (case-insensitive) and
// truncating to limit if the model over-produced.
func appendDistinct(level *model.Level, candidates []model.Candidate, limit int) int {
	seen := make(map[string]bool, len(level.Candidates)+limit)
	for _, c := range level.Candidates {
		seen[strings.ToLower(strings.TrimSpace(c.Event))] = true
	}

	added := 0
	for _, c := range candidates {
		if added >= limit {
			break
		}
		key := strings.ToLower(strings.TrimSpace(c.Event))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		level.Candidates = append(level.Candidates, model.Candidate{Event: c.Event, Label: 0})
		added++
	}
	return added
}

// Run enriches every case, checkpointing in batches plus a final save.
// A case whose generation fails entirely is logged and proceeds to
// export with whatever candidates it has.
func (g *AlternativeGenerator) Run(ctx context.Context, cases []model.Case) ([]model.Case, error) {
	for i := range cases {
		fmt.Printf("\n[%d/%d] ", i+1, len(cases))
		g.enrichOne(ctx, &cases[i])

		if (i+1)%alternativesBatchSize == 0 {
			if err := g.store.Save(checkpoint.NameCasesComplete, cases); err != nil {
				return nil, err
			}
		}
	}

	if err := g.store.Save(checkpoint.NameCasesComplete, cases); err != nil {
		return nil, err
	}

	fmt.Printf("\n✓ Alternatives complete: %d cases\n", len(cases))
	return cases, nil
}

func (g *AlternativeGenerator) enrichOne(ctx context.Context, cse *model.Case) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("  Case %s failed: %v\n", cse.CaseID, r)
		}
	}()
	g.EnrichCase(ctx, cse)
}
