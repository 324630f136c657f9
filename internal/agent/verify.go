package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mhuss/foresight/internal/checkpoint"
	"github.com/mhuss/foresight/internal/config"
	"github.com/mhuss/foresight/internal/model"
	"github.com/mhuss/foresight/internal/research"
)

// ReputableDomains is the allow-list of news outlets that counts toward
// the stronger verification threshold. The list and the 2-vs-3 source
// thresholds below are calibration choices kept as named values.
var ReputableDomains = []string{
	"reuters.com", "bbc.com", "apnews.com", "bloomberg.com",
	"nytimes.com", "wsj.com", "ft.com", "economist.com",
	"theguardian.com", "washingtonpost.com", "cnbc.com",
	"aljazeera.com", "npr.org", "pbs.org",
}

const (
	// verifyBatchSize is how often intermediate results are checkpointed.
	verifyBatchSize = 10

	// maxSourcesKept caps the sources retained on a seed's record.
	maxSourcesKept = 5
)

// Verifier fact-checks seeds against search evidence. It never touches
// a seed's core fields, only appends the verification record.
type Verifier struct {
	gw    *research.Gateway
	store checkpoint.Store
	cfg   *config.Config
}

// NewVerifier wires the verifier to its gateway and store.
func NewVerifier(gw *research.Gateway, store checkpoint.Store, cfg *config.Config) *Verifier {
	return &Verifier{gw: gw, store: store, cfg: cfg}
}

// VerifySeed classifies one seed. A malformed date is terminal: the
// seed is marked ERROR with an empty source list and no search runs.
func (v *Verifier) VerifySeed(ctx context.Context, seed model.Seed) model.Seed {
	fmt.Printf("Verifying: %s (%s)\n", truncate(seed.Event, 70), seed.Date)

	eventDate, err := seed.ParseDate()
	if err != nil {
		seed.VerificationStatus = model.StatusError
		seed.SourcesFound = []model.Source{}
		seed.VerificationNotes = fmt.Sprintf("Invalid date format: %s", seed.Date)
		return seed
	}

	// Symmetric window around the claimed date, plus a broadened pass
	// for events reported with delay.
	start := eventDate.AddDate(0, 0, -7).Format(model.DateLayout)
	end := eventDate.AddDate(0, 0, 7).Format(model.DateLayout)
	extendedEnd := eventDate.AddDate(0, 0, 90).Format(model.DateLayout)

	dateQuery := seed.Event + " " + seed.Date
	contextQuery := seed.Event + " " + truncate(seed.Context, 100)

	var results []research.SearchResult
	for _, req := range []research.SearchRequest{
		{Query: dateQuery, StartDate: start, EndDate: end, MaxResults: 3},
		{Query: contextQuery, StartDate: start, EndDate: end, MaxResults: 3},
		{Query: dateQuery, StartDate: start, EndDate: extendedEnd, MaxResults: 2},
	} {
		results = append(results, v.gw.Search(ctx, req)...)
	}

	sources := uniqueSources(results)
	reputable := countReputable(sources)

	status, notes := Classify(len(sources), reputable)

	if len(sources) > maxSourcesKept {
		sources = sources[:maxSourcesKept]
	}

	seed.VerificationStatus = status
	seed.SourcesFound = sources
	seed.VerificationNotes = notes

	fmt.Printf("   %s: %s\n", status, notes)
	return seed
}

// Classify maps (unique source count, reputable source count) to a
// verification status. It is deterministic and side-effect free.
func Classify(numSources, reputableCount int) (model.VerificationStatus, string) {
	switch {
	case numSources >= 2 && reputableCount >= 2:
		return model.StatusVerified,
			fmt.Sprintf("Found %d sources confirming event, including %d from reliable news outlets.", numSources, reputableCount)
	case numSources >= 3:
		return model.StatusVerified,
			fmt.Sprintf("Found %d sources confirming event.", numSources)
	case numSources >= 2:
		return model.StatusQuestionable,
			fmt.Sprintf("Found %d sources but only %d from reliable outlets. Needs manual review.", numSources, reputableCount)
	case numSources == 1:
		return model.StatusQuestionable,
			"Only found 1 source. Event may be real but needs additional verification."
	default:
		return model.StatusHallucination,
			"No credible sources found confirming this event occurred on this date."
	}
}

// Summary aggregates per-status counts over a verification run.
type Summary struct {
	Total  int
	Counts map[model.VerificationStatus]int
}

// Percentage returns a status share of the processed set.
func (s Summary) Percentage(status model.VerificationStatus) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Counts[status]) / float64(s.Total) * 100
}

// Verify classifies every seed, checkpointing incrementally so a crash
// mid-run loses at most one batch. Returns the annotated seeds and a
// summary; the summary is advisory, downstream stages filter by status
// themselves.
func (v *Verifier) Verify(ctx context.Context, seeds []model.Seed) ([]model.Seed, Summary, error) {
	summary := Summary{Counts: make(map[model.VerificationStatus]int)}

	var verified []model.Seed
	if found, err := v.store.Load(checkpoint.NameSeedsVerified, &verified); err != nil {
		return nil, summary, err
	} else if found {
		fmt.Printf("✓ Resuming verification: %d seeds already done\n", len(verified))
	}

	done := make(map[string]bool, len(verified))
	for _, s := range verified {
		done[model.CaseID(s)] = true
		summary.Counts[s.VerificationStatus]++
	}

	for i, seed := range seeds {
		if done[model.CaseID(seed)] {
			continue
		}

		fmt.Printf("\n[%d/%d] ", i+1, len(seeds))
		result := v.verifyOne(ctx, seed)
		verified = append(verified, result)
		summary.Counts[result.VerificationStatus]++

		if len(verified)%verifyBatchSize == 0 {
			if err := v.store.Save(checkpoint.NameSeedsVerified, verified); err != nil {
				return nil, summary, err
			}
		}
	}

	summary.Total = len(verified)
	if err := v.store.Save(checkpoint.NameSeedsVerified, verified); err != nil {
		return nil, summary, err
	}

	printSummary(summary)
	return verified, summary, nil
}

// verifyOne isolates per-seed panics so one bad seed cannot take down
// the batch.
func (v *Verifier) verifyOne(ctx context.Context, seed model.Seed) (out model.Seed) {
	defer func() {
		if r := recover(); r != nil {
			out = seed
			out.VerificationStatus = model.StatusError
			out.SourcesFound = []model.Source{}
			out.VerificationNotes = fmt.Sprintf("Error during verification: %v", r)
		}
	}()
	return v.VerifySeed(ctx, seed)
}

// FilterByStatus returns the seeds whose status is in keep.
func FilterByStatus(seeds []model.Seed, keep ...model.VerificationStatus) []model.Seed {
	var out []model.Seed
	for _, s := range seeds {
		for _, status := range keep {
			if s.VerificationStatus == status {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func printSummary(s Summary) {
	fmt.Println("\nVerification summary:")
	for _, status := range []model.VerificationStatus{
		model.StatusVerified, model.StatusQuestionable, model.StatusHallucination, model.StatusError,
	} {
		fmt.Printf("  %-13s %3d / %d (%.1f%%)\n", status, s.Counts[status], s.Total, s.Percentage(status))
	}
}

// uniqueSources merges search results into sources, de-duplicating by
// URL with first occurrence winning.
func uniqueSources(results []research.SearchResult) []model.Source {
	seen := make(map[string]bool, len(results))
	var sources []model.Source
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		sources = append(sources, model.Source{
			URL:           r.URL,
			Title:         r.Title,
			PublishedDate: r.PublishedDate,
		})
	}
	return sources
}

func countReputable(sources []model.Source) int {
	count := 0
	for _, s := range sources {
		for _, domain := range ReputableDomains {
			if strings.Contains(s.URL, domain) {
				count++
				break
			}
		}
	}
	return count
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
