// Package static provides a canned analysis provider for local runs and
// tests, so the pipeline can be exercised without any backend credentials.
package static

import (
	"context"

	"github.com/bkyoung/reviewhook/internal/domain"
)

const providerName = "static"

// Provider implements the analyze Provider port with a fixed report.
type Provider struct {
	model string
}

// NewProvider constructs a static Provider.
func NewProvider(model string) *Provider {
	return &Provider{
		model: model,
	}
}

// Name returns the backend identifier used for selection and logging.
func (p *Provider) Name() string {
	return providerName
}

// Analyze returns a static, pre-determined analysis.
func (p *Provider) Analyze(ctx context.Context, diff string) (domain.Analysis, error) {
	return domain.Analysis{
		ProviderName:          providerName,
		ModelName:             p.model,
		Score:                 75,
		SecurityIssues:        []string{},
		PerformanceIssues:     []string{},
		MaintainabilityIssues: []string{"This is a static finding from a mock provider."},
		Summary:               "This is a static analysis from a mock provider.",
	}, nil
}
