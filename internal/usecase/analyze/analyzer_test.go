package analyze_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bkyoung/reviewhook/internal/domain"
	"github.com/bkyoung/reviewhook/internal/usecase/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name     string
	analysis domain.Analysis
	err      error
	calls    int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Analyze(ctx context.Context, diff string) (domain.Analysis, error) {
	s.calls++
	return s.analysis, s.err
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.warnings = append(l.warnings, message)
}

func TestSelect_MistralWinsOverOpenAI(t *testing.T) {
	mistral := &stubProvider{name: "mistral"}
	openai := &stubProvider{name: "openai"}

	primary, fallback, err := analyze.Select(map[string]analyze.Provider{
		"openai":  openai,
		"mistral": mistral,
	})

	require.NoError(t, err)
	assert.Equal(t, "mistral", primary.Name())
	assert.Equal(t, "openai", fallback.Name())
}

func TestSelect_SingleProviderHasNoFallback(t *testing.T) {
	openai := &stubProvider{name: "openai"}

	primary, fallback, err := analyze.Select(map[string]analyze.Provider{"openai": openai})

	require.NoError(t, err)
	assert.Equal(t, "openai", primary.Name())
	assert.Nil(t, fallback)
}

func TestSelect_StaticComesLast(t *testing.T) {
	primary, fallback, err := analyze.Select(map[string]analyze.Provider{
		"static": &stubProvider{name: "static"},
		"openai": &stubProvider{name: "openai"},
	})

	require.NoError(t, err)
	assert.Equal(t, "openai", primary.Name())
	assert.Equal(t, "static", fallback.Name())
}

func TestSelect_NoProviders(t *testing.T) {
	_, _, err := analyze.Select(map[string]analyze.Provider{})
	assert.Error(t, err)
}

func TestAnalyzer_PrimarySucceeds(t *testing.T) {
	primary := &stubProvider{name: "mistral", analysis: domain.Analysis{Score: 85}}
	fallback := &stubProvider{name: "openai"}

	analyzer := analyze.NewAnalyzer(primary, fallback)
	analysis, err := analyzer.Analyze(context.Background(), "diff")

	require.NoError(t, err)
	assert.Equal(t, 85, analysis.Score)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "fallback must not be called when primary succeeds")
}

func TestAnalyzer_FallbackCalledExactlyOnce(t *testing.T) {
	primary := &stubProvider{name: "mistral", err: &domain.UpstreamError{Service: "mistral", StatusCode: 503, Retryable: true}}
	fallback := &stubProvider{name: "openai", analysis: domain.Analysis{Score: 70}}
	logger := &recordingLogger{}

	analyzer := analyze.NewAnalyzer(primary, fallback)
	analyzer.SetLogger(logger)

	analysis, err := analyzer.Analyze(context.Background(), "diff")

	require.NoError(t, err)
	assert.Equal(t, 70, analysis.Score)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Len(t, logger.warnings, 1)
}

func TestAnalyzer_ParseErrorTriggersFallback(t *testing.T) {
	primary := &stubProvider{name: "mistral", err: &domain.AnalysisParseError{Provider: "mistral", Reason: "missing score"}}
	fallback := &stubProvider{name: "openai", analysis: domain.Analysis{Score: 65}}

	analyzer := analyze.NewAnalyzer(primary, fallback)
	analysis, err := analyzer.Analyze(context.Background(), "diff")

	require.NoError(t, err)
	assert.Equal(t, 65, analysis.Score)
}

func TestAnalyzer_BothFail(t *testing.T) {
	primaryErr := &domain.UpstreamError{Service: "mistral", StatusCode: 503}
	fallbackErr := &domain.UpstreamError{Service: "openai", StatusCode: 429}
	primary := &stubProvider{name: "mistral", err: primaryErr}
	fallback := &stubProvider{name: "openai", err: fallbackErr}

	analyzer := analyze.NewAnalyzer(primary, fallback)
	_, err := analyzer.Analyze(context.Background(), "diff")

	require.Error(t, err)
	var allFailed *domain.AllProvidersFailedError
	require.True(t, errors.As(err, &allFailed))
	assert.Equal(t, "mistral", allFailed.PrimaryProvider)
	assert.Equal(t, "openai", allFailed.FallbackProvider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestAnalyzer_NoFallbackConfigured(t *testing.T) {
	primary := &stubProvider{name: "openai", err: errors.New("boom")}

	analyzer := analyze.NewAnalyzer(primary, nil)
	_, err := analyzer.Analyze(context.Background(), "diff")

	require.Error(t, err)
	var allFailed *domain.AllProvidersFailedError
	require.True(t, errors.As(err, &allFailed))
	assert.Equal(t, "openai", allFailed.PrimaryProvider)
	assert.Empty(t, allFailed.FallbackProvider)
	assert.Nil(t, allFailed.FallbackErr)
}
