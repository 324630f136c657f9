package research

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	raw, ok := ExtractJSON(`{"event": "rate hike", "label": 1}`)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("extracted value does not parse: %v", err)
	}
	if parsed["event"] != "rate hike" {
		t.Errorf("expected event 'rate hike', got %v", parsed["event"])
	}
}

func TestExtractJSON_MarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"fence with language tag", "```json\n[{\"event\": \"a\"}]\n```"},
		{"fence without tag", "```\n[{\"event\": \"a\"}]\n```"},
		{"prose before fence", "Here is the result you asked for:\n```json\n[{\"event\": \"a\"}]\n```\nLet me know if you need more."},
		{"prose without fence", "The answer is [{\"event\": \"a\"}] as requested."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := ExtractJSON(tt.raw)
			if !ok {
				t.Fatal("expected extraction to succeed")
			}

			var parsed []map[string]any
			if err := json.Unmarshal(raw, &parsed); err != nil {
				t.Fatalf("extracted value does not parse: %v", err)
			}
			if len(parsed) != 1 || parsed[0]["event"] != "a" {
				t.Errorf("unexpected parsed value: %v", parsed)
			}
		})
	}
}

func TestExtractJSON_Idempotent(t *testing.T) {
	first, ok := ExtractJSON("```json\n{\"event\": \"summit {announced}\", \"nested\": [1, 2]}\n```")
	if !ok {
		t.Fatal("expected first extraction to succeed")
	}

	second, ok := ExtractJSON(string(first))
	if !ok {
		t.Fatal("expected second extraction to succeed")
	}
	if string(first) != string(second) {
		t.Errorf("re-extraction changed the value:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestExtractJSON_BracketsInsideStrings(t *testing.T) {
	raw, ok := ExtractJSON(`{"event": "markets fall [sharply] after {decision}"}`)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	var parsed map[string]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("extracted value does not parse: %v", err)
	}
	if parsed["event"] != "markets fall [sharply] after {decision}" {
		t.Errorf("string content mangled: %q", parsed["event"])
	}
}

func TestExtractJSON_Failure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no JSON at all", "I could not find any outcome for this event."},
		{"unbalanced braces", "result: {\"event\": \"a\""},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if raw, ok := ExtractJSON(tt.raw); ok {
				t.Errorf("expected failure, got %s", raw)
			}
		})
	}
}

func TestExtractJSON_SkipsInvalidCandidates(t *testing.T) {
	// The first "{" opens an invalid fragment; extraction must move on
	// to the valid array that follows.
	raw, ok := ExtractJSON(`broken {oops and then ["ok"]`)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if string(raw) != `["ok"]` {
		t.Errorf("expected [\"ok\"], got %s", raw)
	}
}
