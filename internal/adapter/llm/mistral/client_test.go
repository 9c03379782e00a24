package mistral_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	llmhttp "github.com/bkyoung/reviewhook/internal/adapter/llm/http"
	"github.com/bkyoung/reviewhook/internal/adapter/llm/mistral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportJSON = `{"score": 72, "securityIssues": ["hardcoded credential"], "performanceIssues": [], "maintainabilityIssues": [], "summary": "One credential leak."}`

func completionResponse(content string) mistral.ChatCompletionResponse {
	return mistral.ChatCompletionResponse{
		ID:    "chatcmpl-groq-1",
		Model: "mixtral-8x7b-32768",
		Choices: []mistral.Choice{
			{Message: mistral.Message{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
		Usage: mistral.Usage{PromptTokens: 300, CompletionTokens: 80, TotalTokens: 380},
	}
}

func TestHTTPClient_Call_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer groq-key", r.Header.Get("Authorization"))

		var req mistral.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mixtral-8x7b-32768", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse(reportJSON))
	}))
	defer server.Close()

	client := mistral.NewHTTPClient("groq-key", "mixtral-8x7b-32768")
	client.SetBaseURL(server.URL)

	resp, err := client.Call(context.Background(), "diff")
	require.NoError(t, err)
	assert.Equal(t, reportJSON, resp.Text)
	assert.Equal(t, "mixtral-8x7b-32768", resp.Model)
	assert.Equal(t, 300, resp.TokensIn)
}

func TestHTTPClient_Call_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached for mixtral-8x7b-32768"}}`))
	}))
	defer server.Close()

	client := mistral.NewHTTPClient("groq-key", "mixtral-8x7b-32768")
	client.SetBaseURL(server.URL)

	_, err := client.Call(context.Background(), "diff")
	require.Error(t, err)

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeRateLimit, httpErr.Type)
	assert.True(t, httpErr.Retryable)
	assert.Contains(t, httpErr.Message, "Rate limit reached")
}

func TestHTTPClient_CreateAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse(reportJSON))
	}))
	defer server.Close()

	client := mistral.NewHTTPClient("groq-key", "mixtral-8x7b-32768")
	client.SetBaseURL(server.URL)

	analysis, err := client.CreateAnalysis(context.Background(), "diff")
	require.NoError(t, err)
	assert.Equal(t, 72, analysis.Score)
	assert.Equal(t, []string{"hardcoded credential"}, analysis.SecurityIssues)
	assert.Equal(t, "mixtral-8x7b-32768", analysis.ModelName)
}
