// Package github adapts the GitHub REST API for the analysis pipeline:
// webhook signature verification, diff retrieval and comment publication.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/bkyoung/reviewhook/internal/domain"
)

const (
	serviceName    = "github"
	defaultTimeout = 30 * time.Second
)

// Client wraps the go-github client with the operations the pipeline
// needs. A client is bound to one token; construct a fresh one per webhook
// delivery so rotated tokens take effect immediately.
type Client struct {
	gh *gogithub.Client
}

// NewClient creates a GitHub API client authenticated with the given
// bearer token.
func NewClient(token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = defaultTimeout

	return &Client{gh: gogithub.NewClient(tc)}
}

// SetBaseURL points the client at a custom API root (for testing).
func (c *Client) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	c.gh.BaseURL = parsed
	return nil
}

// FetchDiff retrieves the unified diff for a pull request using GitHub's
// diff media type negotiation.
func (c *Client) FetchDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := c.gh.PullRequests.GetRaw(ctx, owner, repo, number,
		gogithub.RawOptions{Type: gogithub.Diff})
	if err != nil {
		return "", mapError("failed to get PR diff", err)
	}
	return diff, nil
}

// CreateComment posts a comment on a pull request and returns its id.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	comment, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number,
		&gogithub.IssueComment{Body: gogithub.Ptr(body)})
	if err != nil {
		return 0, mapError("failed to create PR comment", err)
	}
	return comment.GetID(), nil
}

// UpdateComment edits a previously posted comment. The webhook flow never
// edits; this exists for re-analysis of an already-commented PR.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	_, _, err := c.gh.Issues.EditComment(ctx, owner, repo, commentID,
		&gogithub.IssueComment{Body: gogithub.Ptr(body)})
	if err != nil {
		return mapError("failed to update PR comment", err)
	}
	return nil
}

// mapError translates go-github failures into the domain error taxonomy.
func mapError(operation string, err error) error {
	var errResp *gogithub.ErrorResponse
	if errors.As(err, &errResp) {
		status := 0
		if errResp.Response != nil {
			status = errResp.Response.StatusCode
		}
		message := errResp.Message
		if message == "" {
			message = operation
		}
		return &domain.UpstreamError{
			Service:    serviceName,
			StatusCode: status,
			Message:    fmt.Sprintf("%s: %s", operation, message),
			Retryable:  status >= 500,
		}
	}

	// Network-level failure: no HTTP status to report.
	return &domain.UpstreamError{
		Service:   serviceName,
		Message:   fmt.Sprintf("%s: %v", operation, err),
		Retryable: true,
	}
}
