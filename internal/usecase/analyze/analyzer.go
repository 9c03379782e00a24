// Package analyze selects an LLM backend for diff analysis and falls back
// to the alternate backend when the first attempt fails.
package analyze

import (
	"context"
	"fmt"

	"github.com/bkyoung/reviewhook/internal/domain"
)

// Provider defines the outbound port for LLM diff analysis.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, diff string) (domain.Analysis, error)
}

// Logger is the optional structured logger used to surface fallback
// attempts.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// precedence fixes the deterministic primary selection order: a configured
// mistral backend wins over openai, and the static mock comes last.
var precedence = []string{"mistral", "openai", "static"}

// Select picks the primary and the single fallback backend from the set of
// configured providers. It fails when no provider is configured.
func Select(providers map[string]Provider) (primary, fallback Provider, err error) {
	for _, name := range precedence {
		p, ok := providers[name]
		if !ok || p == nil {
			continue
		}
		if primary == nil {
			primary = p
			continue
		}
		fallback = p
		break
	}

	if primary == nil {
		return nil, nil, fmt.Errorf("no analysis provider configured")
	}
	return primary, fallback, nil
}

// Analyzer runs diff analysis with at most one fallback attempt. It makes
// exactly one call per configured backend per run, which bounds the
// worst-case external call count at two.
type Analyzer struct {
	primary  Provider
	fallback Provider
	logger   Logger
}

// NewAnalyzer constructs an Analyzer. fallback may be nil when only one
// backend is configured.
func NewAnalyzer(primary, fallback Provider) *Analyzer {
	return &Analyzer{
		primary:  primary,
		fallback: fallback,
	}
}

// SetLogger wires a structured logger for fallback observability.
func (a *Analyzer) SetLogger(logger Logger) {
	a.logger = logger
}

// Analyze tries the primary backend once and, on any failure, the fallback
// backend once. When both fail (or no fallback exists) it returns an
// AllProvidersFailedError carrying the underlying errors.
func (a *Analyzer) Analyze(ctx context.Context, diff string) (domain.Analysis, error) {
	analysis, primaryErr := a.primary.Analyze(ctx, diff)
	if primaryErr == nil {
		return analysis, nil
	}

	if a.fallback == nil {
		return domain.Analysis{}, &domain.AllProvidersFailedError{
			PrimaryProvider: a.primary.Name(),
			PrimaryErr:      primaryErr,
		}
	}

	if a.logger != nil {
		a.logger.LogWarning(ctx, "primary analysis backend failed, trying fallback", map[string]interface{}{
			"primary":  a.primary.Name(),
			"fallback": a.fallback.Name(),
			"error":    primaryErr.Error(),
		})
	}

	analysis, fallbackErr := a.fallback.Analyze(ctx, diff)
	if fallbackErr == nil {
		return analysis, nil
	}

	return domain.Analysis{}, &domain.AllProvidersFailedError{
		PrimaryProvider:  a.primary.Name(),
		PrimaryErr:       primaryErr,
		FallbackProvider: a.fallback.Name(),
		FallbackErr:      fallbackErr,
	}
}
