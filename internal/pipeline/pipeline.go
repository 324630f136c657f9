// Package pipeline sequences the collection stages with stage-level
// idempotency via the checkpoint store. Any stage can run in isolation
// so a crash in a later stage never repeats earlier, API-metered work.
package pipeline

import (
	"context"
	"fmt"

	"github.com/mhuss/foresight/internal/agent"
	"github.com/mhuss/foresight/internal/checkpoint"
	"github.com/mhuss/foresight/internal/config"
	"github.com/mhuss/foresight/internal/export"
	"github.com/mhuss/foresight/internal/model"
	"github.com/mhuss/foresight/internal/research"
)

// Stage names accepted by Run.
const (
	StageBrainstorm   = "brainstorm"
	StageVerify       = "verify"
	StageChronicle    = "chronicle"
	StageAlternatives = "alternatives"
	StageExport       = "export"
	StageAll          = "all"
)

// Pipeline owns the stage sequence and the shared collaborators.
type Pipeline struct {
	gw    *research.Gateway
	store checkpoint.Store
	cfg   *config.Config

	// Parallel selects the concurrent chronicler variant.
	Parallel bool
}

// New builds a pipeline around an explicit gateway and store.
func New(gw *research.Gateway, store checkpoint.Store, cfg *config.Config) *Pipeline {
	return &Pipeline{gw: gw, store: store, cfg: cfg}
}

// Run executes one stage, or all of them in order. Errors carry the
// name of the failed stage; checkpoints written by earlier stages are
// never touched by a later failure.
func (p *Pipeline) Run(ctx context.Context, stage string) error {
	stages := []string{stage}
	if stage == StageAll {
		stages = []string{StageBrainstorm, StageVerify, StageChronicle, StageAlternatives, StageExport}
	}

	for _, name := range stages {
		banner(name)
		var err error
		switch name {
		case StageBrainstorm:
			err = p.runBrainstorm(ctx)
		case StageVerify:
			err = p.runVerify(ctx)
		case StageChronicle:
			err = p.runChronicle(ctx)
		case StageAlternatives:
			err = p.runAlternatives(ctx)
		case StageExport:
			err = p.runExport()
		default:
			return fmt.Errorf("unknown stage %q", name)
		}
		if err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
	}
	return nil
}

func (p *Pipeline) runBrainstorm(ctx context.Context) error {
	b := agent.NewBrainstormer(p.gw, p.store, p.cfg)
	seeds, err := b.Generate(ctx, p.cfg.Seeds.PostCutoffCount, p.cfg.Seeds.InDistCount)
	if err != nil {
		return err
	}
	fmt.Printf("\n✓ %d seeds ready\n", len(seeds))
	return nil
}

func (p *Pipeline) runVerify(ctx context.Context) error {
	var seeds []model.Seed
	found, err := p.store.Load(checkpoint.NameSeeds, &seeds)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no seeds checkpoint; run the brainstorm stage first")
	}

	v := agent.NewVerifier(p.gw, p.store, p.cfg)
	_, _, err = v.Verify(ctx, seeds)
	return err
}

func (p *Pipeline) runChronicle(ctx context.Context) error {
	var seeds []model.Seed
	found, err := p.store.Load(checkpoint.NameSeedsVerified, &seeds)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no verified seeds checkpoint; run the verify stage first")
	}

	// Hallucinated and errored seeds never reach chronicling.
	usable := agent.FilterByStatus(seeds, model.StatusVerified, model.StatusQuestionable)
	fmt.Printf("%d of %d seeds usable for chronicling\n", len(usable), len(seeds))

	c := agent.NewChronicler(p.gw, p.store, p.cfg)
	if p.Parallel {
		_, err = c.RunParallel(ctx, usable, p.cfg.Chronicle.Concurrency)
	} else {
		_, err = c.Run(ctx, usable)
	}
	return err
}

func (p *Pipeline) runAlternatives(ctx context.Context) error {
	var cases []model.Case
	found, err := p.store.Load(checkpoint.NameCasesChronicle, &cases)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no chronicled cases checkpoint; run the chronicle stage first")
	}

	g := agent.NewAlternativeGenerator(p.gw, p.store, p.cfg)
	_, err = g.Run(ctx, cases)
	return err
}

func (p *Pipeline) runExport() error {
	var cases []model.Case
	found, err := p.store.Load(checkpoint.NameCasesComplete, &cases)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no completed cases checkpoint; run the alternatives stage first")
	}

	_, err = export.WriteJSONL(cases, p.cfg.Paths.Output)
	return err
}

func banner(stage string) {
	fmt.Println("\n================================================================================")
	fmt.Printf("STAGE: %s\n", stage)
	fmt.Println("================================================================================")
}
