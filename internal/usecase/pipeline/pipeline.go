// Package pipeline sequences one webhook delivery through signature
// verification, record persistence, diff retrieval, analysis, and comment
// publication.
package pipeline

import (
	"context"
	"time"

	"github.com/bkyoung/reviewhook/internal/domain"
)

// Stage identifies how far a pipeline run has progressed. A run that
// aborts reports the last stage it completed.
type Stage string

const (
	StageReceived         Stage = "received"
	StageVerified         Stage = "verified"
	StagePRRecorded       Stage = "pr_recorded"
	StageDiffFetched      Stage = "diff_fetched"
	StageAnalyzed         Stage = "analyzed"
	StageAnalysisRecorded Stage = "analysis_recorded"
	StageCommentPublished Stage = "comment_published"
	StageLinked           Stage = "linked"
	StageDone             Stage = "done"
)

// Store is the persistence collaborator consumed by the pipeline.
type Store interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	CreatePullRequest(ctx context.Context, input domain.PullRequestInput) (domain.PullRequest, error)
	CreateAnalysis(ctx context.Context, prID int64, analysis domain.Analysis) (domain.AnalysisRecord, error)
	SetPullRequestComment(ctx context.Context, id, commentID int64) error
}

// GitHubClient covers the hosting API operations of one run.
type GitHubClient interface {
	FetchDiff(ctx context.Context, owner, repo string, number int) (string, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error)
}

// GitHubClientFactory builds a client for the token currently stored in
// settings. A fresh client per run keeps rotated tokens effective without
// a restart.
type GitHubClientFactory func(token string) GitHubClient

// Analyzer produces a quality report for a diff.
type Analyzer interface {
	Analyze(ctx context.Context, diff string) (domain.Analysis, error)
}

// VerifyFunc checks the webhook signature over the raw payload bytes.
type VerifyFunc func(payload []byte, signatureHeader, secret string) bool

// RenderFunc formats an analysis into the PR comment body.
type RenderFunc func(analysis domain.Analysis) string

// Logger surfaces pipeline progress with structured fields.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// Timeouts bounds every external call the pipeline makes. Zero values fall
// back to the defaults.
type Timeouts struct {
	DiffFetch time.Duration
	Analysis  time.Duration
	Publish   time.Duration
}

const (
	defaultDiffFetchTimeout = 30 * time.Second
	defaultAnalysisTimeout  = 150 * time.Second
	defaultPublishTimeout   = 30 * time.Second
)

// Deps captures the collaborators of the Coordinator.
type Deps struct {
	Store           Store
	NewGitHubClient GitHubClientFactory
	Analyzer        Analyzer
	Verify          VerifyFunc
	Render          RenderFunc
	Logger          Logger
	Timeouts        Timeouts
}

// Coordinator runs the webhook analysis pipeline. It holds no per-run
// state, so one Coordinator serves concurrent deliveries.
type Coordinator struct {
	deps Deps
}

// NewCoordinator constructs a Coordinator, applying default timeouts.
func NewCoordinator(deps Deps) *Coordinator {
	if deps.Timeouts.DiffFetch <= 0 {
		deps.Timeouts.DiffFetch = defaultDiffFetchTimeout
	}
	if deps.Timeouts.Analysis <= 0 {
		deps.Timeouts.Analysis = defaultAnalysisTimeout
	}
	if deps.Timeouts.Publish <= 0 {
		deps.Timeouts.Publish = defaultPublishTimeout
	}
	return &Coordinator{deps: deps}
}

// Result reports the outcome of one pipeline run.
type Result struct {
	Stage   Stage
	Ignored bool

	PullRequestID int64
	AnalysisID    int64
	CommentID     int64
}

// Run processes one webhook delivery end to end. Settings are read fresh
// from the store each run. On error the returned Result carries the last
// completed stage; a record persisted before the abort stays persisted
// (the missing analysis makes the partial state observable).
func (c *Coordinator) Run(ctx context.Context, event WebhookEvent) (Result, error) {
	result := Result{Stage: StageReceived}

	settings, err := c.deps.Store.GetSettings(ctx)
	if err != nil {
		return result, &domain.PersistenceError{Op: "get settings", Err: err}
	}

	if !c.deps.Verify(event.Payload, event.Signature, settings.WebhookSecret) {
		c.logWarning(ctx, "webhook rejected", map[string]interface{}{
			"event":  event.Event,
			"reason": "invalid signature",
		})
		return result, domain.ErrInvalidSignature
	}
	result.Stage = StageVerified

	// Many irrelevant event types land on the same webhook URL. They are
	// acknowledged, not treated as errors, to avoid provider-side retry
	// storms.
	if event.Event != EventPullRequest {
		c.logInfo(ctx, "webhook ignored", map[string]interface{}{"event": event.Event})
		result.Stage = StageDone
		result.Ignored = true
		return result, nil
	}

	payload, err := parsePullRequestPayload(event.Payload)
	if err != nil {
		return result, err
	}

	pr, err := c.deps.Store.CreatePullRequest(ctx, payload.recordInput())
	if err != nil {
		return result, &domain.PersistenceError{Op: "create pull request", Err: err}
	}
	result.Stage = StagePRRecorded
	result.PullRequestID = pr.ID
	c.logInfo(ctx, "pull request recorded", map[string]interface{}{
		"pr_id":      pr.ID,
		"repository": pr.Repository,
		"number":     payload.PullRequest.Number,
	})

	gh := c.deps.NewGitHubClient(settings.GitHubToken)

	diffCtx, cancel := context.WithTimeout(ctx, c.deps.Timeouts.DiffFetch)
	diff, err := gh.FetchDiff(diffCtx, payload.Repository.Owner.Login, payload.Repository.Name, payload.PullRequest.Number)
	cancel()
	if err != nil {
		return result, err
	}
	result.Stage = StageDiffFetched

	analysisCtx, cancel := context.WithTimeout(ctx, c.deps.Timeouts.Analysis)
	analysis, err := c.deps.Analyzer.Analyze(analysisCtx, diff)
	cancel()
	if err != nil {
		return result, err
	}
	result.Stage = StageAnalyzed

	record, err := c.deps.Store.CreateAnalysis(ctx, pr.ID, analysis)
	if err != nil {
		return result, &domain.PersistenceError{Op: "create analysis", Err: err}
	}
	result.Stage = StageAnalysisRecorded
	result.AnalysisID = record.ID

	publishCtx, cancel := context.WithTimeout(ctx, c.deps.Timeouts.Publish)
	commentID, err := gh.CreateComment(publishCtx, payload.Repository.Owner.Login, payload.Repository.Name,
		payload.PullRequest.Number, c.deps.Render(analysis))
	cancel()
	if err != nil {
		return result, err
	}
	result.Stage = StageCommentPublished
	result.CommentID = commentID

	if err := c.deps.Store.SetPullRequestComment(ctx, pr.ID, commentID); err != nil {
		return result, &domain.PersistenceError{Op: "link comment", Err: err}
	}
	result.Stage = StageLinked

	c.logInfo(ctx, "webhook processed", map[string]interface{}{
		"pr_id":      pr.ID,
		"comment_id": commentID,
		"score":      analysis.Score,
		"provider":   analysis.ProviderName,
	})
	result.Stage = StageDone
	return result, nil
}

func (c *Coordinator) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if c.deps.Logger != nil {
		c.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (c *Coordinator) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if c.deps.Logger != nil {
		c.deps.Logger.LogWarning(ctx, message, fields)
	}
}
