package normalize

import (
	"encoding/json"
	"strings"
)

// Output is the normalized result of a command: either a decoded JSON
// value or the cleaned lines of the raw text. Callers discriminate with
// Structured before reading the corresponding field.
type Output struct {
	// Structured reports which variant this Output holds.
	Structured bool

	// Value is the decoded JSON value. Only meaningful when Structured
	// is true. May be nil for a literal JSON null.
	Value any

	// Lines holds the trimmed, non-empty lines of the raw output.
	// Only meaningful when Structured is false.
	Lines []string
}

// Normalize attempts a strict JSON decode of raw and falls back to a
// line split on any decode failure. The fallback trims the input,
// splits on newlines, trims each line and drops empty ones; it is lossy
// but always succeeds, so Normalize itself never fails.
func Normalize(raw string) Output {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return Output{Structured: true, Value: v}
	}
	return Output{Lines: CleanLines(raw)}
}

// CleanLines splits raw into trimmed, non-empty lines. Empty input
// yields an empty (non-nil) slice.
func CleanLines(raw string) []string {
	lines := []string{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// MarshalJSON emits whichever variant the Output holds, so normalized
// results embed directly into the report document.
func (o Output) MarshalJSON() ([]byte, error) {
	if o.Structured {
		return json.Marshal(o.Value)
	}
	return json.Marshal(o.Lines)
}
