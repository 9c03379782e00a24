package analyze_test

import (
	"strings"
	"testing"

	"github.com/bkyoung/reviewhook/internal/domain"
	"github.com/bkyoung/reviewhook/internal/usecase/analyze"
	"github.com/stretchr/testify/assert"
)

func TestRenderComment_FullReport(t *testing.T) {
	body := analyze.RenderComment(domain.Analysis{
		Score:                 85,
		SecurityIssues:        []string{"Unvalidated redirect in login handler"},
		PerformanceIssues:     []string{"O(n^2) loop in diff walker", "Unbounded cache growth"},
		MaintainabilityIssues: []string{},
		Summary:               "Solid change with two hot spots.",
	})

	assert.True(t, strings.HasPrefix(body, "## AI Code Review"))
	assert.Contains(t, body, "**Score: 85/100**")
	assert.Contains(t, body, "### Security Issues")
	assert.Contains(t, body, "- Unvalidated redirect in login handler")
	assert.Contains(t, body, "### Performance Issues")
	assert.Contains(t, body, "- O(n^2) loop in diff walker")
	assert.Contains(t, body, "- Unbounded cache growth")
	assert.Contains(t, body, "### Maintainability Issues")
	assert.Contains(t, body, "_None found._")
	assert.Contains(t, body, "### Summary")
	assert.Contains(t, body, "Solid change with two hot spots.")
}

func TestRenderComment_EmptyCategoriesSayNoneFound(t *testing.T) {
	body := analyze.RenderComment(domain.Analysis{Score: 100, Summary: "Perfect."})

	assert.Equal(t, 3, strings.Count(body, "_None found._"))
}

func TestRenderComment_Deterministic(t *testing.T) {
	analysis := domain.Analysis{
		Score:          60,
		SecurityIssues: []string{"a", "b"},
		Summary:        "s",
	}

	assert.Equal(t, analyze.RenderComment(analysis), analyze.RenderComment(analysis))
}
