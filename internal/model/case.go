package model

import (
	"fmt"
	"strings"
)

// Candidate is one member of a level's outcome comparison set.
// Label 1 marks the event that actually occurred; 0 marks a counterfactual.
type Candidate struct {
	Event string `json:"event"`
	Label int    `json:"label"`
}

// Level is one depth step in a case's outcome chain.
type Level struct {
	Depth           int         `json:"depth"`
	ParentEvent     string      `json:"parent_event"`
	Path            []string    `json:"path"`
	TimeframeMonths int         `json:"timeframe_months"`
	Date            string      `json:"date"`
	ResearchSummary string      `json:"research_summary,omitempty"`
	Candidates      []Candidate `json:"candidates"`
}

// Positive returns the level's label=1 candidate.
func (l *Level) Positive() (Candidate, bool) {
	for _, c := range l.Candidates {
		if c.Label == 1 {
			return c, true
		}
	}
	return Candidate{}, false
}

// SeedRef is the subset of the originating seed a case carries.
type SeedRef struct {
	Event   string `json:"event"`
	Date    string `json:"date"`
	Context string `json:"context,omitempty"`
}

// Case is the unit of training data: one chronicled seed with its
// outcome chain and candidate sets.
type Case struct {
	CaseID          string  `json:"case_id"`
	Seed            SeedRef `json:"seed"`
	Domain          string  `json:"domain"`
	KnowledgeCutoff string  `json:"knowledge_cutoff"`
	Levels          []Level `json:"levels"`
}

// CaseID derives the stable case identifier from a seed. The scheme is
// deterministic: seed date plus the first 30 characters of the event
// text, lowercased with spaces replaced by underscores.
func CaseID(seed Seed) string {
	event := seed.Event
	if len(event) > 30 {
		event = event[:30]
	}
	event = strings.ReplaceAll(strings.ToLower(event), " ", "_")
	return seed.Date + "_" + event
}

// NewCase creates an empty case for a seed. Levels are appended as
// chain depths resolve.
func NewCase(seed Seed) *Case {
	return &Case{
		CaseID: CaseID(seed),
		Seed: SeedRef{
			Event:   seed.Event,
			Date:    seed.Date,
			Context: seed.Context,
		},
		Domain:          seed.Domain,
		KnowledgeCutoff: seed.Date,
	}
}

// Validate checks the chain invariants: at least one level, depths
// strictly increasing from 1 with no gaps, exactly one positive
// candidate per level matching the resolved outcome, and pairwise
// distinct candidate texts (case-insensitive) within each level.
func (c *Case) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("case %s: no levels", c.CaseID)
	}
	for i, level := range c.Levels {
		if level.Depth != i+1 {
			return fmt.Errorf("case %s: level %d has depth %d, want %d", c.CaseID, i, level.Depth, i+1)
		}
		positives := 0
		seen := make(map[string]bool, len(level.Candidates))
		for _, cand := range level.Candidates {
			if cand.Label == 1 {
				positives++
			}
			key := strings.ToLower(strings.TrimSpace(cand.Event))
			if seen[key] {
				return fmt.Errorf("case %s depth %d: duplicate candidate %q", c.CaseID, level.Depth, cand.Event)
			}
			seen[key] = true
		}
		if positives != 1 {
			return fmt.Errorf("case %s depth %d: %d positive candidates, want exactly 1", c.CaseID, level.Depth, positives)
		}
	}
	return nil
}
