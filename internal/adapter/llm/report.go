// Package llm contains the shared pieces of the LLM backend adapters:
// response parsing into the analysis report shape, and the transport
// helpers under llm/http.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bkyoung/reviewhook/internal/domain"
)

// fencedJSON matches a JSON payload wrapped in a markdown code block.
var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// issueKeys are the object fields accepted as an issue description, in
// preference order.
var issueKeys = []string{"message", "msg", "description", "issue"}

// reportPayload is the raw decoded shape of a model response. Pointers
// distinguish absent fields from empty ones: all three issue lists and the
// score must be present for the report to be accepted.
type reportPayload struct {
	Score                 *int       `json:"score"`
	SecurityIssues        *issueList `json:"securityIssues"`
	PerformanceIssues     *issueList `json:"performanceIssues"`
	MaintainabilityIssues *issueList `json:"maintainabilityIssues"`
	Summary               string     `json:"summary"`
}

// issueList decodes a JSON array whose entries are either plain strings or
// objects carrying a message-like field.
type issueList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *issueList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			out = append(out, s)
			continue
		}

		var obj map[string]interface{}
		if err := json.Unmarshal(entry, &obj); err != nil {
			return fmt.Errorf("issue entry is neither string nor object")
		}
		out = append(out, describeIssue(obj, entry))
	}

	*l = out
	return nil
}

// describeIssue extracts the human-readable description from an issue
// object, falling back to the compact JSON when no known field exists.
func describeIssue(obj map[string]interface{}, raw json.RawMessage) string {
	for _, key := range issueKeys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return string(raw)
}

// ParseReport deterministically parses free-form model output into an
// Analysis. The model is instructed to answer with a JSON object, possibly
// wrapped in a markdown code fence. Parsing is strict: the score must be
// present and within [0,100], and all three issue categories must be
// present (empty arrays are fine). Anything else fails with
// AnalysisParseError so that no partially-filled report is ever published.
func ParseReport(provider, text string) (domain.Analysis, error) {
	jsonText := strings.TrimSpace(text)
	if matches := fencedJSON.FindStringSubmatch(text); len(matches) > 1 {
		jsonText = strings.TrimSpace(matches[1])
	}

	var payload reportPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return domain.Analysis{}, &domain.AnalysisParseError{
			Provider: provider,
			Reason:   fmt.Sprintf("invalid JSON: %v", err),
		}
	}

	if payload.Score == nil {
		return domain.Analysis{}, &domain.AnalysisParseError{Provider: provider, Reason: "missing score"}
	}
	if *payload.Score < 0 || *payload.Score > 100 {
		return domain.Analysis{}, &domain.AnalysisParseError{
			Provider: provider,
			Reason:   fmt.Sprintf("score %d out of range [0,100]", *payload.Score),
		}
	}

	categories := map[string]*issueList{
		"securityIssues":        payload.SecurityIssues,
		"performanceIssues":     payload.PerformanceIssues,
		"maintainabilityIssues": payload.MaintainabilityIssues,
	}
	for name, list := range categories {
		if list == nil {
			return domain.Analysis{}, &domain.AnalysisParseError{
				Provider: provider,
				Reason:   fmt.Sprintf("missing %s", name),
			}
		}
	}

	return domain.Analysis{
		ProviderName:          provider,
		Score:                 *payload.Score,
		SecurityIssues:        []string(*payload.SecurityIssues),
		PerformanceIssues:     []string(*payload.PerformanceIssues),
		MaintainabilityIssues: []string(*payload.MaintainabilityIssues),
		Summary:               payload.Summary,
	}, nil
}
