package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bkyoung/reviewhook/internal/domain"
)

// EventPullRequest is the only webhook event type that triggers analysis.
// Everything else is acknowledged and ignored.
const EventPullRequest = "pull_request"

// WebhookEvent is one inbound delivery: the exact raw payload bytes, the
// declared event type, and the signature header value. It exists only for
// the duration of one request.
type WebhookEvent struct {
	Event     string
	Signature string
	Payload   []byte
}

// pullRequestPayload mirrors the fields of GitHub's pull_request event
// consumed by the pipeline.
type pullRequestPayload struct {
	Action      string `json:"action"`
	PullRequest struct {
		ID        int64     `json:"id"`
		Number    int       `json:"number"`
		Title     string    `json:"title"`
		Body      string    `json:"body"`
		State     string    `json:"state"`
		Merged    bool      `json:"merged"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

func parsePullRequestPayload(payload []byte) (pullRequestPayload, error) {
	var parsed pullRequestPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return pullRequestPayload{}, fmt.Errorf("invalid pull_request payload: %w", err)
	}
	if parsed.PullRequest.Number == 0 || parsed.Repository.FullName == "" {
		return pullRequestPayload{}, fmt.Errorf("pull_request payload missing required fields")
	}
	return parsed, nil
}

// status maps the payload's state and merged flag onto the record
// lifecycle states.
func (p pullRequestPayload) status() string {
	if p.PullRequest.State == domain.PRStatusClosed && p.PullRequest.Merged {
		return domain.PRStatusMerged
	}
	return p.PullRequest.State
}

func (p pullRequestPayload) recordInput() domain.PullRequestInput {
	return domain.PullRequestInput{
		GitHubID:    p.PullRequest.ID,
		Title:       p.PullRequest.Title,
		Description: p.PullRequest.Body,
		Author:      p.PullRequest.User.Login,
		Repository:  p.Repository.FullName,
		Status:      p.status(),
		CreatedAt:   p.PullRequest.CreatedAt,
		UpdatedAt:   p.PullRequest.UpdatedAt,
	}
}
