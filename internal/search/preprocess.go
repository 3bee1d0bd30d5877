package search

import (
	"encoding/json"
	"strings"
)

// FlattenIdea builds the searchable text for one idea document. The core
// fields are joined as-is; the JSON sections (analysis, trends, go-to-market,
// etc.) are walked and every string value is appended, so queries can match
// report prose, not just the headline.
//
// Notes:
//   - JSON keys are deliberately excluded ("whyNow", "cta", ... would match
//     every document).
//   - Invalid or empty sections are skipped silently.
func FlattenIdea(title, problem, solution, market string, sections ...[]byte) string {
	var b strings.Builder

	writePart := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}

	writePart(title)
	writePart(problem)
	writePart(solution)
	writePart(market)

	for _, raw := range sections {
		if len(raw) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		collectStrings(v, writePart)
	}

	return b.String()
}

// collectStrings walks decoded JSON and emits every string leaf.
func collectStrings(v any, emit func(string)) {
	switch t := v.(type) {
	case string:
		emit(t)
	case []any:
		for _, e := range t {
			collectStrings(e, emit)
		}
	case map[string]any:
		for _, e := range t {
			collectStrings(e, emit)
		}
	}
}
