package openai

import (
	"context"
	"errors"
	"fmt"

	llmhttp "github.com/bkyoung/reviewhook/internal/adapter/llm/http"
	"github.com/bkyoung/reviewhook/internal/domain"
)

const providerName = "openai"

// Client abstracts the OpenAI HTTP client behaviour we need.
type Client interface {
	CreateAnalysis(ctx context.Context, diff string) (domain.Analysis, error)
}

// Provider implements the analyze Provider port.
type Provider struct {
	model  string
	client Client
}

// NewProvider constructs a Provider for the supplied model.
func NewProvider(model string, client Client) *Provider {
	return &Provider{
		model:  model,
		client: client,
	}
}

// Name returns the backend identifier used for selection and logging.
func (p *Provider) Name() string {
	return providerName
}

// Analyze sends the diff to OpenAI and translates transport failures into
// the domain error taxonomy. Parse failures pass through unchanged.
func (p *Provider) Analyze(ctx context.Context, diff string) (domain.Analysis, error) {
	if p.client == nil {
		return domain.Analysis{}, fmt.Errorf("openai client missing")
	}

	analysis, err := p.client.CreateAnalysis(ctx, diff)
	if err != nil {
		var httpErr *llmhttp.Error
		if errors.As(err, &httpErr) {
			return domain.Analysis{}, &domain.UpstreamError{
				Service:    providerName,
				StatusCode: httpErr.StatusCode,
				Message:    httpErr.Message,
				Retryable:  httpErr.Retryable,
			}
		}
		return domain.Analysis{}, err
	}

	analysis.ProviderName = providerName
	if analysis.ModelName == "" {
		analysis.ModelName = p.model
	}
	return analysis, nil
}
