package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used everywhere in the pipeline.
const DateLayout = "2006-01-02"

// Domains is the fixed set of event categories seeds are drawn from.
var Domains = []string{
	"Politics",
	"Economics",
	"Technology",
	"Geopolitics",
	"Business",
}

// VerificationStatus classifies how well a seed is grounded in search evidence.
type VerificationStatus string

const (
	StatusUnverified    VerificationStatus = ""
	StatusVerified      VerificationStatus = "VERIFIED"
	StatusQuestionable  VerificationStatus = "QUESTIONABLE"
	StatusHallucination VerificationStatus = "HALLUCINATION"
	StatusError         VerificationStatus = "ERROR"
)

// Source is a supporting document found during verification.
type Source struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	PublishedDate string `json:"published_date,omitempty"`
}

// Seed is an atomic historical event proposed as a forecasting root.
// Core fields are immutable once chronicling starts; verification only
// appends the status, sources and notes.
type Seed struct {
	Event          string `json:"event"`
	Date           string `json:"date"` // YYYY-MM-DD
	Context        string `json:"context,omitempty"`
	Domain         string `json:"domain"`
	WhySignificant string `json:"why_significant,omitempty"`
	PostCutoff     bool   `json:"post_cutoff"`

	VerificationStatus VerificationStatus `json:"verification_status,omitempty"`
	SourcesFound       []Source           `json:"sources_found,omitempty"`
	VerificationNotes  string             `json:"verification_notes,omitempty"`
}

// ParseDate parses the seed date, rejecting anything that is not a valid
// calendar date.
func (s *Seed) ParseDate() (time.Time, error) {
	t, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid seed date %q: %w", s.Date, err)
	}
	return t, nil
}

// Validate checks the seed invariants: a parseable date and a known domain.
func (s *Seed) Validate() error {
	if _, err := s.ParseDate(); err != nil {
		return err
	}
	for _, d := range Domains {
		if s.Domain == d {
			return nil
		}
	}
	return fmt.Errorf("unknown domain %q", s.Domain)
}
