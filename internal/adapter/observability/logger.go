// Package observability bridges the structured LLM-call logger onto the
// narrower logging ports of the use case layer.
package observability

import (
	"context"

	llmhttp "github.com/bkyoung/reviewhook/internal/adapter/llm/http"
)

// PipelineLogger adapts llmhttp.Logger to the pipeline.Logger interface so
// the coordinator shares the same structured logging infrastructure as the
// LLM HTTP clients.
type PipelineLogger struct {
	logger llmhttp.Logger
}

// NewPipelineLogger creates a new pipeline logger adapter.
func NewPipelineLogger(logger llmhttp.Logger) *PipelineLogger {
	return &PipelineLogger{logger: logger}
}

// LogInfo logs an informational message with structured fields.
func (l *PipelineLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *PipelineLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}
