// Package agent implements the pipeline stages: seed brainstorming,
// verification, chronicling and counterfactual generation.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mhuss/foresight/internal/checkpoint"
	"github.com/mhuss/foresight/internal/config"
	"github.com/mhuss/foresight/internal/model"
	"github.com/mhuss/foresight/internal/research"
)

// seedBatchSize is the number of seeds requested per completion call.
const seedBatchSize = 10

const postCutoffPrompt = `You are generating RECENT historical events (%s to %s) for a forecasting AI training dataset.

CRITICAL CONSTRAINTS:
- Events from %s to %s ONLY
- These are AFTER the forecasting model's %s knowledge cutoff
- Seed must allow a %d-month outcome chain to complete
- Focus on well-documented events with clear causal chains

REQUIREMENTS:
1. **Specific & Measurable**: Exact date, concrete description
2. **Causal**: Must have clear downstream consequences
3. **Well-Documented**: Multiple reliable news sources
4. **Non-Deterministic**: Multiple plausible outcomes were possible

DOMAINS (distribute evenly): %s

AVOID:
- Events outside the date window
- Natural disasters
- Celebrity/sports news
- Overly deterministic outcomes

OUTPUT FORMAT (JSON array):
[
  {
    "event": "Central bank raises interest rates by 75 basis points",
    "date": "2024-09-18",
    "context": "Largest single hike in the cycle, markets split on the decision beforehand.",
    "domain": "Economics",
    "why_significant": "Drives mortgage rates, housing activity and recession odds",
    "post_cutoff": true
  }
]

Generate EXACTLY %d events from %s to %s.`

const inDistPrompt = `You are generating historical events (%d-%d) for a forecasting AI training dataset.

These events are IN the model's training data, but teach probability calibration skills.

REQUIREMENTS:
1. **Specific & Measurable**: Exact date, concrete description
2. **Causal**: Clear downstream consequences
3. **Well-Documented**: Multiple sources
4. **Complex**: Not obvious outcomes

DOMAINS (distribute evenly): %s

OUTPUT FORMAT (JSON array - same fields as above, with "post_cutoff": false):
[
  {
    "event": "WHO declares a global pandemic",
    "date": "2020-03-11",
    "context": "Cases surging globally across more than 100 countries.",
    "domain": "Geopolitics",
    "why_significant": "Triggers lockdowns, recession, vaccine development race",
    "post_cutoff": false
  }
]

Generate EXACTLY %d events from %d to %d.`

// Brainstormer produces seed events across the two sampling regimes.
type Brainstormer struct {
	gw    *research.Gateway
	store checkpoint.Store
	cfg   *config.Config
}

// NewBrainstormer wires the seed generator to its gateway and store.
func NewBrainstormer(gw *research.Gateway, store checkpoint.Store, cfg *config.Config) *Brainstormer {
	return &Brainstormer{gw: gw, store: store, cfg: cfg}
}

// GeneratePostCutoff generates seeds strictly within the post-cutoff
// window, tagged post_cutoff=true.
func (b *Brainstormer) GeneratePostCutoff(ctx context.Context, count int) []model.Seed {
	fmt.Printf("\nGenerating %d post-cutoff seeds (%s to %s)...\n",
		count, b.cfg.Seeds.PostCutoffStart, b.cfg.Seeds.PostCutoffEnd)

	prompt := func(n int) string {
		return fmt.Sprintf(postCutoffPrompt,
			b.cfg.Seeds.PostCutoffStart, b.cfg.Seeds.PostCutoffEnd,
			b.cfg.Seeds.PostCutoffStart, b.cfg.Seeds.PostCutoffEnd,
			b.cfg.Models.Cutoff, b.cfg.Chain.MaxDepth,
			domainList(b.cfg.Domains),
			n, b.cfg.Seeds.PostCutoffStart, b.cfg.Seeds.PostCutoffEnd)
	}
	return b.generateBatches(ctx, count, true, prompt,
		"You are a current events researcher focused on recent events.")
}

// GenerateInDistribution generates seeds inside the historical year
// range, tagged post_cutoff=false.
func (b *Brainstormer) GenerateInDistribution(ctx context.Context, count int) []model.Seed {
	fmt.Printf("\nGenerating %d in-distribution seeds (%d-%d)...\n",
		count, b.cfg.Seeds.InDistStartYear, b.cfg.Seeds.InDistEndYear)

	prompt := func(n int) string {
		return fmt.Sprintf(inDistPrompt,
			b.cfg.Seeds.InDistStartYear, b.cfg.Seeds.InDistEndYear,
			domainList(b.cfg.Domains),
			n, b.cfg.Seeds.InDistStartYear, b.cfg.Seeds.InDistEndYear)
	}
	return b.generateBatches(ctx, count, false, prompt, "")
}

// generateBatches requests seeds in fixed-size batches. A batch whose
// response fails to parse is retried once at a higher temperature; a
// batch that still fails is given up on, so the total may fall short
// of the target but generation never blocks indefinitely.
func (b *Brainstormer) generateBatches(ctx context.Context, count int, postCutoff bool, prompt func(n int) string, systemPrompt string) []model.Seed {
	var seeds []model.Seed

	for len(seeds) < count {
		batchCount := seedBatchSize
		if remaining := count - len(seeds); remaining < batchCount {
			batchCount = remaining
		}

		fmt.Printf("  Batch: generating %d seeds...\n", batchCount)

		batch, ok := b.generateBatch(ctx, batchCount, prompt(batchCount), systemPrompt, 0.9)
		if !ok {
			fmt.Println("  Parse failed, retrying batch at higher temperature...")
			batch, ok = b.generateBatch(ctx, batchCount, prompt(batchCount), systemPrompt, 0.95)
		}
		if !ok {
			fmt.Println("  Batch failed, giving up on it")
			break
		}

		for i := range batch {
			batch[i].PostCutoff = postCutoff
		}
		seeds = append(seeds, batch...)
		fmt.Printf("  ✓ %d seeds generated (%d/%d)\n", len(batch), len(seeds), count)
	}

	return seeds
}

func (b *Brainstormer) generateBatch(ctx context.Context, count int, prompt, systemPrompt string, temperature float32) ([]model.Seed, bool) {
	response, err := b.gw.Research(ctx, prompt, systemPrompt, temperature, 4000)
	if err != nil {
		fmt.Printf("  Batch failed: %v\n", err)
		return nil, false
	}

	raw, ok := research.ExtractJSON(response)
	if !ok {
		return nil, false
	}

	var seeds []model.Seed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		fmt.Printf("  Unexpected seed batch shape: %v\n", err)
		return nil, false
	}
	if len(seeds) == 0 {
		return nil, false
	}
	_ = count // the model may over- or under-produce; both are accepted
	return seeds, true
}

// Generate runs both regimes, sorts the combined list by date (stable,
// ties keep generation order) and checkpoints the result. If the
// checkpoint already holds at least the combined target, it is
// returned untouched.
func (b *Brainstormer) Generate(ctx context.Context, postCutoffTarget, inDistTarget int) ([]model.Seed, error) {
	var existing []model.Seed
	found, err := b.store.Load(checkpoint.NameSeeds, &existing)
	if err != nil {
		return nil, err
	}
	if found && len(existing) >= postCutoffTarget+inDistTarget {
		fmt.Printf("✓ Checkpoint found: %d seeds already generated\n", len(existing))
		return existing, nil
	}

	postCutoff := b.GeneratePostCutoff(ctx, postCutoffTarget)
	inDist := b.GenerateInDistribution(ctx, inDistTarget)

	seeds := append(postCutoff, inDist...)
	sort.SliceStable(seeds, func(i, j int) bool {
		return seeds[i].Date < seeds[j].Date
	})

	fmt.Printf("\nFinal distribution: %d post-cutoff, %d in-distribution, %d total\n",
		len(postCutoff), len(inDist), len(seeds))

	if err := b.store.Save(checkpoint.NameSeeds, seeds); err != nil {
		return nil, err
	}
	return seeds, nil
}

func domainList(domains []string) string {
	out := ""
	for i, d := range domains {
		if i > 0 {
			out += ", "
		}
		out += d
	}
	return out
}
