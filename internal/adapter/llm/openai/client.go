package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bkyoung/reviewhook/internal/adapter/llm"
	llmhttp "github.com/bkyoung/reviewhook/internal/adapter/llm/http"
	"github.com/bkyoung/reviewhook/internal/domain"
)

const (
	defaultBaseURL   = "https://api.openai.com"
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 2048
)

// HTTPClient is an HTTP client for the OpenAI Chat Completion API.
type HTTPClient struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
	retryConf llmhttp.RetryConfig
	logger    llmhttp.Logger
}

// NewHTTPClient creates a new OpenAI HTTP client.
func NewHTTPClient(apiKey, model string) *HTTPClient {
	return &HTTPClient{
		apiKey:    apiKey,
		model:     model,
		baseURL:   defaultBaseURL,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: defaultTimeout},
		retryConf: llmhttp.DefaultRetryConfig(),
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// SetRetryConfig overrides the transport retry behaviour.
func (c *HTTPClient) SetRetryConfig(conf llmhttp.RetryConfig) {
	c.retryConf = conf
}

// SetLogger wires a structured logger for API call observability.
func (c *HTTPClient) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text         string
	TokensIn     int
	TokensOut    int
	Model        string
	FinishReason string
}

// Call sends the diff to the Chat Completion API under the fixed review
// system instruction and returns the raw model output.
func (c *HTTPClient) Call(ctx context.Context, diff string) (*APIResponse, error) {
	reqBody := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: llm.SystemInstruction},
			{Role: "user", Content: diff},
		},
		MaxTokens: c.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    providerName,
			Model:       c.model,
			Timestamp:   time.Now(),
			PromptChars: len(diff),
			APIKey:      c.apiKey,
		})
	}

	start := time.Now()
	url := c.baseURL + "/v1/chat/completions"

	var resp *http.Response
	err = llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		var callErr error
		resp, callErr = c.client.Do(req)
		if callErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return mapErrorResponse(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)

	if err != nil {
		c.logCallError(ctx, err, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	apiResp := &APIResponse{
		Text:         chatResp.Choices[0].Message.Content,
		TokensIn:     chatResp.Usage.PromptTokens,
		TokensOut:    chatResp.Usage.CompletionTokens,
		Model:        chatResp.Model,
		FinishReason: chatResp.Choices[0].FinishReason,
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:     providerName,
			Model:        apiResp.Model,
			Timestamp:    time.Now(),
			Duration:     time.Since(start),
			TokensIn:     apiResp.TokensIn,
			TokensOut:    apiResp.TokensOut,
			StatusCode:   resp.StatusCode,
			FinishReason: apiResp.FinishReason,
		})
	}

	return apiResp, nil
}

// CreateAnalysis implements the Client interface for the Provider: one API
// call, then strict parsing of the model output into the report shape.
func (c *HTTPClient) CreateAnalysis(ctx context.Context, diff string) (domain.Analysis, error) {
	apiResp, err := c.Call(ctx, diff)
	if err != nil {
		return domain.Analysis{}, err
	}

	analysis, err := llm.ParseReport(providerName, apiResp.Text)
	if err != nil {
		return domain.Analysis{}, err
	}

	analysis.ModelName = apiResp.Model
	return analysis, nil
}

func (c *HTTPClient) logCallError(ctx context.Context, err error, duration time.Duration) {
	if c.logger == nil {
		return
	}

	errLog := llmhttp.ErrorLog{
		Provider:  providerName,
		Model:     c.model,
		Timestamp: time.Now(),
		Duration:  duration,
		Error:     err,
	}
	if httpErr, ok := err.(*llmhttp.Error); ok {
		errLog.ErrorType = httpErr.Type
		errLog.StatusCode = httpErr.StatusCode
		errLog.Retryable = httpErr.Retryable
	}
	c.logger.LogError(ctx, errLog)
}

// mapErrorResponse maps HTTP status codes to typed errors, preferring the
// backend's own error message when the body is parseable.
func mapErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return llmhttp.MapStatusCode(providerName, statusCode, message)
}
