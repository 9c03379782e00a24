package domain

import "time"

// Pull request lifecycle states as reported by GitHub.
const (
	PRStatusOpen   = "open"
	PRStatusClosed = "closed"
	PRStatusMerged = "merged"
)

// PullRequest is the persisted record of a pull request seen by the webhook.
type PullRequest struct {
	ID          int64     `json:"id"`
	GitHubID    int64     `json:"githubId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Repository  string    `json:"repository"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// CommentID is the id of the review comment posted by this service,
	// zero until the comment has been published.
	CommentID int64 `json:"commentId"`
}

// PullRequestInput captures the fields required to create a PullRequest.
type PullRequestInput struct {
	GitHubID    int64
	Title       string
	Description string
	Author      string
	Repository  string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Analysis is the structured quality report produced by an LLM backend.
// It is immutable once created; one analysis belongs to exactly one
// pull request record.
type Analysis struct {
	ProviderName          string   `json:"providerName"`
	ModelName             string   `json:"modelName"`
	Score                 int      `json:"score"`
	SecurityIssues        []string `json:"securityIssues"`
	PerformanceIssues     []string `json:"performanceIssues"`
	MaintainabilityIssues []string `json:"maintainabilityIssues"`
	Summary               string   `json:"summary"`
}

// AnalysisRecord is a persisted Analysis linked to its pull request.
type AnalysisRecord struct {
	ID        int64     `json:"id"`
	PRID      int64     `json:"prId"`
	Analysis  Analysis  `json:"analysis"`
	CreatedAt time.Time `json:"createdAt"`
}

// Settings holds the externally managed credential material and the list
// of repositories being monitored. Consumers must fetch it fresh per
// request so secret rotation takes effect immediately.
type Settings struct {
	ID            int64    `json:"id"`
	GitHubToken   string   `json:"githubToken"`
	WebhookSecret string   `json:"webhookSecret"`
	Repositories  []string `json:"repositories"`
}
