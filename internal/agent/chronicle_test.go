package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/mhuss/foresight/internal/checkpoint"
	"github.com/mhuss/foresight/internal/model"
	"github.com/mhuss/foresight/internal/research"
)

func outcomeJSON(event, date string, months int) string {
	return fmt.Sprintf("```json\n{\"event\": %q, \"date\": %q, \"timeframe_months\": %d, \"research_summary\": \"documented\"}\n```",
		event, date, months)
}

func evidence(req research.SearchRequest) []research.SearchResult {
	return []research.SearchResult{
		{Title: "report", URL: "https://example.com/" + req.StartDate, Content: "details"},
	}
}

func testSeed() model.Seed {
	return model.Seed{
		Event:   "Central bank raises rates",
		Date:    "2024-09-18",
		Context: "largest hike of the cycle",
		Domain:  "Economics",
	}
}

func TestChronicleSeed_FullChain(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		outcomeJSON("Mortgage rates spike above 7%", "2024-10-20", 1),
		outcomeJSON("Housing starts fall 10%", "2024-11-15", 2),
		outcomeJSON("Homebuilder index hits yearly low", "2024-12-18", 3),
	}}
	search := &fakeSearch{respond: evidence}
	c := NewChronicler(newTestGateway(completion, search), checkpoint.NewMemoryStore(), testConfig())

	cse, ok := c.ChronicleSeed(context.Background(), testSeed())
	if !ok {
		t.Fatal("expected a case")
	}
	if len(cse.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(cse.Levels))
	}
	if err := cse.Validate(); err != nil {
		t.Errorf("chronicled case invalid: %v", err)
	}

	// Depths strictly increasing from 1; each level's parent is the
	// previous level's event; path grows by one.
	if cse.Levels[0].ParentEvent != "Central bank raises rates" {
		t.Errorf("depth 1 parent = %q", cse.Levels[0].ParentEvent)
	}
	if cse.Levels[1].ParentEvent != "Mortgage rates spike above 7%" {
		t.Errorf("depth 2 parent = %q", cse.Levels[1].ParentEvent)
	}
	if len(cse.Levels[2].Path) != 4 {
		t.Errorf("depth 3 path length = %d, want 4", len(cse.Levels[2].Path))
	}
	if cse.KnowledgeCutoff != "2024-09-18" {
		t.Errorf("knowledge cutoff = %q", cse.KnowledgeCutoff)
	}

	// Search windows are centered on seed date + 30d per month, ±14d.
	calls := search.calls()
	if calls[0].StartDate != "2024-10-04" || calls[0].EndDate != "2024-11-01" {
		t.Errorf("depth 1 window: %s..%s", calls[0].StartDate, calls[0].EndDate)
	}
}

func TestChronicleSeed_BreakAtDepthOneDiscardsSeed(t *testing.T) {
	// Scenario B: depth-1 search returns nothing, the seed yields no case.
	search := &fakeSearch{} // always empty
	c := NewChronicler(newTestGateway(&fakeCompletion{}, search), checkpoint.NewMemoryStore(), testConfig())

	if cse, ok := c.ChronicleSeed(context.Background(), testSeed()); ok {
		t.Fatalf("expected no case, got %+v", cse)
	}
	if len(search.calls()) != 1 {
		t.Errorf("expected chronicling to stop after depth 1, got %d searches", len(search.calls()))
	}
}

func TestChronicleSeed_PartialChainAccepted(t *testing.T) {
	// Scenario C: depth 1 resolves, depth 2 extraction says null.
	completion := &fakeCompletion{responses: []string{
		outcomeJSON("Mortgage rates spike above 7%", "2024-10-20", 1),
		"```json\n{\"event\": null, \"reason\": \"no documented outcome\"}\n```",
	}}
	search := &fakeSearch{respond: evidence}
	c := NewChronicler(newTestGateway(completion, search), checkpoint.NewMemoryStore(), testConfig())

	cse, ok := c.ChronicleSeed(context.Background(), testSeed())
	if !ok {
		t.Fatal("expected a partial case")
	}
	if len(cse.Levels) != 1 {
		t.Fatalf("expected exactly 1 level, got %d", len(cse.Levels))
	}
	if err := cse.Validate(); err != nil {
		t.Errorf("partial case invalid: %v", err)
	}
}

func TestChronicleSeed_UnparseableExtractionBreaks(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		"I am not sure what happened next.",
	}}
	search := &fakeSearch{respond: evidence}
	c := NewChronicler(newTestGateway(completion, search), checkpoint.NewMemoryStore(), testConfig())

	if _, ok := c.ChronicleSeed(context.Background(), testSeed()); ok {
		t.Fatal("expected no case when extraction never parses")
	}
}

func TestRun_ResumeSkipsCompletedCases(t *testing.T) {
	store := checkpoint.NewMemoryStore()

	seedA := testSeed()
	seedB := model.Seed{Event: "Major merger announced", Date: "2024-10-02", Domain: "Business"}

	// Prior run already chronicled seedA.
	prior := model.NewCase(seedA)
	prior.Levels = []model.Level{{
		Depth: 1, ParentEvent: seedA.Event, Path: []string{seedA.Event, "x"},
		TimeframeMonths: 1, Date: "2024-10-20",
		Candidates: []model.Candidate{{Event: "x", Label: 1}},
	}}
	if err := store.Save(checkpoint.NameCasesPartial, []model.Case{*prior}); err != nil {
		t.Fatal(err)
	}

	completion := &fakeCompletion{responses: []string{
		outcomeJSON("Regulator opens review", "2024-11-05", 1),
		"```json\n{\"event\": null}\n```",
	}}
	search := &fakeSearch{respond: evidence}
	c := NewChronicler(newTestGateway(completion, search), store, testConfig())

	cases, err := c.Run(context.Background(), []model.Seed{seedA, seedB})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}

	ids := map[string]bool{}
	for _, cse := range cases {
		ids[cse.CaseID] = true
	}
	if !ids[model.CaseID(seedA)] || !ids[model.CaseID(seedB)] {
		t.Errorf("resumed result set incomplete: %v", ids)
	}

	// The final checkpoint must match the returned set.
	var persisted []model.Case
	if found, err := store.Load(checkpoint.NameCasesChronicle, &persisted); err != nil || !found {
		t.Fatalf("missing final checkpoint: %v", err)
	}
	if len(persisted) != 2 {
		t.Errorf("persisted %d cases, want 2", len(persisted))
	}
}

func TestRunParallel_GathersAllCases(t *testing.T) {
	store := checkpoint.NewMemoryStore()

	var seeds []model.Seed
	for i := 0; i < 6; i++ {
		seeds = append(seeds, model.Seed{
			Event:  fmt.Sprintf("Event number %d occurs", i),
			Date:   fmt.Sprintf("2024-07-%02d", i+1),
			Domain: "Politics",
		})
	}

	// Every extraction call resolves depth 1 then breaks at depth 2.
	completion := &fakeCompletion{}
	completion.responses = make([]string, 0, len(seeds)*2)
	for i := 0; i < len(seeds)*2; i++ {
		completion.responses = append(completion.responses,
			outcomeJSON(fmt.Sprintf("Consequence %d", i), "2024-08-15", 1))
	}
	search := &fakeSearch{respond: func(req research.SearchRequest) []research.SearchResult {
		// Depth 2 windows start in September or later; starve them so
		// every chain stops after one level.
		if req.StartDate >= "2024-08-10" {
			return nil
		}
		return evidence(req)
	}}
	c := NewChronicler(newTestGateway(completion, search), store, testConfig())

	cases, err := c.RunParallel(context.Background(), seeds, 3)
	if err != nil {
		t.Fatalf("run parallel: %v", err)
	}
	if len(cases) != len(seeds) {
		t.Fatalf("expected %d cases, got %d", len(seeds), len(cases))
	}

	// Completion order is nondeterministic; the set of case IDs is not.
	ids := map[string]bool{}
	for _, cse := range cases {
		ids[cse.CaseID] = true
	}
	for _, seed := range seeds {
		if !ids[model.CaseID(seed)] {
			t.Errorf("missing case for seed %q", seed.Event)
		}
	}
}
