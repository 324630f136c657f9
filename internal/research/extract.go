package research

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON locates the first balanced JSON object or array in raw
// model output. The text may wrap the value in markdown code fences
// (with or without a language tag) and surround it with prose; all of
// that is skipped. Returns the value and true on success, or nil and
// false if no valid JSON value is present.
//
// The function is pure and idempotent: extracting from its own output
// returns the same bytes unchanged.
func ExtractJSON(raw string) (json.RawMessage, bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		if end, ok := scanBalanced(raw, i); ok {
			candidate := raw[i:end]
			if json.Valid([]byte(candidate)) {
				return json.RawMessage(candidate), true
			}
		}
	}

	sample := strings.TrimSpace(raw)
	if len(sample) > 200 {
		sample = sample[:200] + "..."
	}
	fmt.Printf("Warning: no JSON value found in response: %s\n", sample)
	return nil, false
}

// scanBalanced walks raw from the opening bracket at start and returns
// the index just past the matching close bracket. String literals and
// escape sequences are honored so brackets inside strings do not count.
func scanBalanced(raw string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
