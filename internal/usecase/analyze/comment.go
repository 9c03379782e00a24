package analyze

import (
	"fmt"
	"strings"

	"github.com/bkyoung/reviewhook/internal/domain"
)

// RenderComment formats an analysis into the Markdown body posted as a PR
// comment. It is pure and backend-agnostic: both backends produce the same
// report shape, so they share one renderer.
func RenderComment(analysis domain.Analysis) string {
	var b strings.Builder

	b.WriteString("## AI Code Review\n\n")
	fmt.Fprintf(&b, "**Score: %d/100**\n\n", analysis.Score)

	writeIssueSection(&b, "Security Issues", analysis.SecurityIssues)
	writeIssueSection(&b, "Performance Issues", analysis.PerformanceIssues)
	writeIssueSection(&b, "Maintainability Issues", analysis.MaintainabilityIssues)

	b.WriteString("### Summary\n\n")
	b.WriteString(strings.TrimSpace(analysis.Summary))
	b.WriteString("\n")

	return b.String()
}

func writeIssueSection(b *strings.Builder, title string, issues []string) {
	fmt.Fprintf(b, "### %s\n\n", title)
	if len(issues) == 0 {
		b.WriteString("_None found._\n\n")
		return
	}
	for _, issue := range issues {
		fmt.Fprintf(b, "- %s\n", issue)
	}
	b.WriteString("\n")
}
