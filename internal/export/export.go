// Package export serializes assembled cases to the line-delimited
// training corpus and computes aggregate statistics.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mhuss/foresight/internal/model"
)

// Stats summarizes an exported corpus.
type Stats struct {
	Cases            int     `json:"cases"`
	Levels           int     `json:"levels"`
	Candidates       int     `json:"candidates"`
	Positives        int     `json:"positives"`
	Negatives        int     `json:"negatives"`
	AvgLevelsPerCase float64 `json:"avg_levels_per_case"`
}

// Compute tallies corpus statistics without touching the filesystem.
func Compute(cases []model.Case) Stats {
	var s Stats
	s.Cases = len(cases)
	for _, cse := range cases {
		s.Levels += len(cse.Levels)
		for _, level := range cse.Levels {
			s.Candidates += len(level.Candidates)
			for _, cand := range level.Candidates {
				if cand.Label == 1 {
					s.Positives++
				}
			}
		}
	}
	s.Negatives = s.Candidates - s.Positives
	if s.Cases > 0 {
		s.AvgLevelsPerCase = float64(s.Levels) / float64(s.Cases)
	}
	return s
}

// WriteJSONL writes one compact JSON object per case line to path,
// creating missing directories, and returns the corpus statistics.
func WriteJSONL(cases []model.Case, path string) (Stats, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Stats{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return Stats{}, fmt.Errorf("create corpus file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, cse := range cases {
		// Encode appends the newline that delimits records.
		if err := enc.Encode(cse); err != nil {
			return Stats{}, fmt.Errorf("encode case %s: %w", cse.CaseID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return Stats{}, fmt.Errorf("flush corpus file: %w", err)
	}

	stats := Compute(cases)
	fmt.Printf("✓ Exported %d cases to %s\n", stats.Cases, path)
	printStats(stats)
	return stats, nil
}

func printStats(s Stats) {
	fmt.Println("\nStatistics:")
	fmt.Printf("  Cases: %d\n", s.Cases)
	fmt.Printf("  Total levels: %d\n", s.Levels)
	fmt.Printf("  Total candidates: %d\n", s.Candidates)
	fmt.Printf("  Positive examples (label=1): %d\n", s.Positives)
	fmt.Printf("  Negative examples (label=0): %d\n", s.Negatives)
	if s.Cases > 0 {
		fmt.Printf("  Avg depth per case: %.1f\n", s.AvgLevelsPerCase)
	}
}
