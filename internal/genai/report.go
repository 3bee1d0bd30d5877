// Package genai implements the idea generator adapter: a small client for
// Google's Gemini generateContent endpoint that produces the structured
// seven-section startup idea report served and sold by the application.
package genai

import (
	"encoding/json"
	"errors"
	"strings"
)

// IdeaCore is the headline section of a report: what the startup is.
type IdeaCore struct {
	IdeaTitle string `json:"idea_title"`
	Problem   string `json:"problem"`
	Solution  string `json:"solution"`
	Market    string `json:"market"`
}

// IdeaReport is the full generated report. The idea section is typed because
// its fields are fanned out into owned-idea columns; the analysis sections
// are kept as raw JSON and stored verbatim, matching the original schemaless
// columns.
//
// Keys follow the upstream prompt contract exactly:
// idea, analysis, trends, goToMarket, idea_attributes, idea_health_metrics,
// value_ladder.
type IdeaReport struct {
	Idea          IdeaCore        `json:"idea"`
	Analysis      json.RawMessage `json:"analysis"`
	Trends        json.RawMessage `json:"trends"`
	GoToMarket    json.RawMessage `json:"goToMarket"`
	Attributes    json.RawMessage `json:"idea_attributes"`
	HealthMetrics json.RawMessage `json:"idea_health_metrics"`
	ValueLadder   json.RawMessage `json:"value_ladder"`
}

// ErrInvalidReport is returned when the model's output parses as JSON but is
// missing required sections.
var ErrInvalidReport = errors.New("generated report is missing required sections")

// ParseReport decodes raw model output into an IdeaReport and validates it.
func ParseReport(raw []byte) (*IdeaReport, error) {
	var r IdeaReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks that every section of the report is present and that the
// idea headline is usable. A bare JSON parse is not enough: the model can
// return valid JSON that omits sections, and downstream code (column fan-out
// on purchase, pro gating) relies on all seven keys existing.
func (r *IdeaReport) Validate() error {
	if strings.TrimSpace(r.Idea.IdeaTitle) == "" ||
		strings.TrimSpace(r.Idea.Problem) == "" ||
		strings.TrimSpace(r.Idea.Solution) == "" {
		return ErrInvalidReport
	}
	for _, section := range []json.RawMessage{
		r.Analysis, r.Trends, r.GoToMarket, r.Attributes, r.HealthMetrics, r.ValueLadder,
	} {
		if len(section) == 0 || string(section) == "null" {
			return ErrInvalidReport
		}
	}
	return nil
}
