// Package store defines the persistence layer interface consumed by the
// analysis pipeline and the HTTP read surface.
package store

import (
	"context"
	"errors"

	"github.com/bkyoung/reviewhook/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations for pull requests, analyses and
// settings. Implementations must be safe for concurrent use: each webhook
// delivery runs as an independent request-scoped task.
type Store interface {
	// Pull requests
	CreatePullRequest(ctx context.Context, input domain.PullRequestInput) (domain.PullRequest, error)
	GetPullRequest(ctx context.Context, id int64) (domain.PullRequest, error)
	ListPullRequests(ctx context.Context) ([]domain.PullRequest, error)
	SetPullRequestComment(ctx context.Context, id, commentID int64) error

	// Analyses
	CreateAnalysis(ctx context.Context, prID int64, analysis domain.Analysis) (domain.AnalysisRecord, error)
	GetAnalysisForPR(ctx context.Context, prID int64) (domain.AnalysisRecord, error)

	// Settings (read fresh per request; never cached)
	GetSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error)

	// Utility
	Ping(ctx context.Context) error
	Close() error
}
