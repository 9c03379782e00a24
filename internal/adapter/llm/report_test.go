package llm_test

import (
	"errors"
	"testing"

	"github.com/bkyoung/reviewhook/internal/adapter/llm"
	"github.com/bkyoung/reviewhook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReport = `{
	"score": 85,
	"securityIssues": [],
	"performanceIssues": ["O(n^2) loop in handler"],
	"maintainabilityIssues": ["Function too long"],
	"summary": "Good overall, one hot loop."
}`

func TestParseReport_PlainJSON(t *testing.T) {
	analysis, err := llm.ParseReport("openai", validReport)
	require.NoError(t, err)

	assert.Equal(t, "openai", analysis.ProviderName)
	assert.Equal(t, 85, analysis.Score)
	assert.Empty(t, analysis.SecurityIssues)
	assert.Equal(t, []string{"O(n^2) loop in handler"}, analysis.PerformanceIssues)
	assert.Equal(t, []string{"Function too long"}, analysis.MaintainabilityIssues)
	assert.Equal(t, "Good overall, one hot loop.", analysis.Summary)
}

func TestParseReport_FencedJSON(t *testing.T) {
	text := "Here is my review:\n```json\n" + validReport + "\n```\nHope that helps!"

	analysis, err := llm.ParseReport("mistral", text)
	require.NoError(t, err)
	assert.Equal(t, 85, analysis.Score)
}

func TestParseReport_FenceWithoutLanguageTag(t *testing.T) {
	text := "```\n" + validReport + "\n```"

	analysis, err := llm.ParseReport("mistral", text)
	require.NoError(t, err)
	assert.Equal(t, 85, analysis.Score)
}

func TestParseReport_ObjectIssueEntries(t *testing.T) {
	text := `{
		"score": 60,
		"securityIssues": [{"message": "SQL built by string concat", "severity": "high"}],
		"performanceIssues": [{"description": "N+1 query"}],
		"maintainabilityIssues": ["plain string"],
		"summary": "Needs work."
	}`

	analysis, err := llm.ParseReport("openai", text)
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL built by string concat"}, analysis.SecurityIssues)
	assert.Equal(t, []string{"N+1 query"}, analysis.PerformanceIssues)
	assert.Equal(t, []string{"plain string"}, analysis.MaintainabilityIssues)
}

func TestParseReport_ObjectIssueWithoutKnownKeyKeepsRawJSON(t *testing.T) {
	text := `{
		"score": 50,
		"securityIssues": [{"severity": "low"}],
		"performanceIssues": [],
		"maintainabilityIssues": [],
		"summary": ""
	}`

	analysis, err := llm.ParseReport("openai", text)
	require.NoError(t, err)
	require.Len(t, analysis.SecurityIssues, 1)
	assert.Contains(t, analysis.SecurityIssues[0], "severity")
}

func TestParseReport_InvalidJSON(t *testing.T) {
	_, err := llm.ParseReport("openai", "I could not produce JSON today, sorry.")
	require.Error(t, err)

	var parseErr *domain.AnalysisParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "openai", parseErr.Provider)
	assert.Contains(t, parseErr.Reason, "invalid JSON")
}

func TestParseReport_MissingScore(t *testing.T) {
	text := `{
		"securityIssues": [],
		"performanceIssues": [],
		"maintainabilityIssues": [],
		"summary": "fine"
	}`

	_, err := llm.ParseReport("openai", text)
	var parseErr *domain.AnalysisParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "missing score", parseErr.Reason)
}

func TestParseReport_ScoreOutOfRange(t *testing.T) {
	for _, score := range []string{"-1", "101"} {
		text := `{
			"score": ` + score + `,
			"securityIssues": [],
			"performanceIssues": [],
			"maintainabilityIssues": [],
			"summary": ""
		}`

		_, err := llm.ParseReport("openai", text)
		var parseErr *domain.AnalysisParseError
		require.True(t, errors.As(err, &parseErr), "score %s should be rejected", score)
		assert.Contains(t, parseErr.Reason, "out of range")
	}
}

func TestParseReport_ScoreBounds(t *testing.T) {
	for _, score := range []string{"0", "100"} {
		text := `{
			"score": ` + score + `,
			"securityIssues": [],
			"performanceIssues": [],
			"maintainabilityIssues": [],
			"summary": ""
		}`

		_, err := llm.ParseReport("openai", text)
		assert.NoError(t, err, "score %s should be accepted", score)
	}
}

func TestParseReport_MissingCategory(t *testing.T) {
	text := `{
		"score": 90,
		"securityIssues": [],
		"performanceIssues": [],
		"summary": "missing maintainability"
	}`

	_, err := llm.ParseReport("mistral", text)
	var parseErr *domain.AnalysisParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "missing maintainabilityIssues", parseErr.Reason)
}

func TestParseReport_IssueEntryWrongType(t *testing.T) {
	text := `{
		"score": 90,
		"securityIssues": [42],
		"performanceIssues": [],
		"maintainabilityIssues": [],
		"summary": ""
	}`

	_, err := llm.ParseReport("mistral", text)
	var parseErr *domain.AnalysisParseError
	require.True(t, errors.As(err, &parseErr))
}
