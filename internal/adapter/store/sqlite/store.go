// Package sqlite implements the store.Store interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/reviewhook/internal/domain"
	"github.com/bkyoung/reviewhook/internal/store"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; cap the pool so every
	// query sees the same schema.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// CreatePullRequest inserts a new pull request record and returns it with
// its assigned id.
func (s *Store) CreatePullRequest(ctx context.Context, input domain.PullRequestInput) (domain.PullRequest, error) {
	query := `
		INSERT INTO pull_requests (github_id, title, description, author, repository, status, created_at, updated_at, comment_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`

	result, err := s.db.ExecContext(ctx, query,
		input.GitHubID,
		input.Title,
		input.Description,
		input.Author,
		input.Repository,
		input.Status,
		input.CreatedAt.Unix(),
		input.UpdatedAt.Unix(),
	)
	if err != nil {
		return domain.PullRequest{}, fmt.Errorf("insert pull request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.PullRequest{}, fmt.Errorf("pull request id: %w", err)
	}

	return domain.PullRequest{
		ID:          id,
		GitHubID:    input.GitHubID,
		Title:       input.Title,
		Description: input.Description,
		Author:      input.Author,
		Repository:  input.Repository,
		Status:      input.Status,
		CreatedAt:   input.CreatedAt,
		UpdatedAt:   input.UpdatedAt,
	}, nil
}

// GetPullRequest retrieves a pull request record by id.
func (s *Store) GetPullRequest(ctx context.Context, id int64) (domain.PullRequest, error) {
	query := `
		SELECT id, github_id, title, description, author, repository, status, created_at, updated_at, comment_id
		FROM pull_requests WHERE id = ?
	`
	return scanPullRequest(s.db.QueryRowContext(ctx, query, id))
}

// ListPullRequests returns all pull request records, most recent first.
func (s *Store) ListPullRequests(ctx context.Context) ([]domain.PullRequest, error) {
	query := `
		SELECT id, github_id, title, description, author, repository, status, created_at, updated_at, comment_id
		FROM pull_requests ORDER BY id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}
	defer rows.Close()

	var prs []domain.PullRequest
	for rows.Next() {
		pr, err := scanPullRequest(rows)
		if err != nil {
			return nil, err
		}
		prs = append(prs, pr)
	}
	return prs, rows.Err()
}

// SetPullRequestComment records the id of the review comment posted for a
// pull request.
func (s *Store) SetPullRequestComment(ctx context.Context, id, commentID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE pull_requests SET comment_id = ? WHERE id = ?`, commentID, id)
	if err != nil {
		return fmt.Errorf("update comment id: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment id: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateAnalysis persists an analysis linked to its pull request.
func (s *Store) CreateAnalysis(ctx context.Context, prID int64, analysis domain.Analysis) (domain.AnalysisRecord, error) {
	security, err := encodeIssues(analysis.SecurityIssues)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}
	performance, err := encodeIssues(analysis.PerformanceIssues)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}
	maintainability, err := encodeIssues(analysis.MaintainabilityIssues)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}

	createdAt := time.Now().UTC()
	query := `
		INSERT INTO code_analyses (pr_id, provider, model, score, security_issues, performance_issues, maintainability_issues, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		prID,
		analysis.ProviderName,
		analysis.ModelName,
		analysis.Score,
		security,
		performance,
		maintainability,
		analysis.Summary,
		createdAt.Unix(),
	)
	if err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("analysis id: %w", err)
	}

	return domain.AnalysisRecord{
		ID:        id,
		PRID:      prID,
		Analysis:  analysis,
		CreatedAt: createdAt,
	}, nil
}

// GetAnalysisForPR retrieves the analysis belonging to a pull request.
func (s *Store) GetAnalysisForPR(ctx context.Context, prID int64) (domain.AnalysisRecord, error) {
	query := `
		SELECT id, pr_id, provider, model, score, security_issues, performance_issues, maintainability_issues, summary, created_at
		FROM code_analyses WHERE pr_id = ? ORDER BY id LIMIT 1
	`

	var (
		record                                 domain.AnalysisRecord
		security, performance, maintainability string
		createdAt                              int64
	)
	err := s.db.QueryRowContext(ctx, query, prID).Scan(
		&record.ID,
		&record.PRID,
		&record.Analysis.ProviderName,
		&record.Analysis.ModelName,
		&record.Analysis.Score,
		&security,
		&performance,
		&maintainability,
		&record.Analysis.Summary,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnalysisRecord{}, store.ErrNotFound
	}
	if err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("get analysis: %w", err)
	}

	if record.Analysis.SecurityIssues, err = decodeIssues(security); err != nil {
		return domain.AnalysisRecord{}, err
	}
	if record.Analysis.PerformanceIssues, err = decodeIssues(performance); err != nil {
		return domain.AnalysisRecord{}, err
	}
	if record.Analysis.MaintainabilityIssues, err = decodeIssues(maintainability); err != nil {
		return domain.AnalysisRecord{}, err
	}
	record.CreatedAt = time.Unix(createdAt, 0).UTC()

	return record, nil
}

// GetSettings returns the current settings row. Callers must not cache the
// result: secret rotation has to take effect on the next request.
func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	query := `SELECT id, github_token, webhook_secret, repositories FROM settings ORDER BY id LIMIT 1`

	var (
		settings domain.Settings
		repos    string
	)
	err := s.db.QueryRowContext(ctx, query).Scan(
		&settings.ID,
		&settings.GitHubToken,
		&settings.WebhookSecret,
		&repos,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	if err := json.Unmarshal([]byte(repos), &settings.Repositories); err != nil {
		return domain.Settings{}, fmt.Errorf("decode repositories: %w", err)
	}
	return settings, nil
}

// SaveSettings creates or replaces the singleton settings row.
func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	repos, err := json.Marshal(settings.Repositories)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("encode repositories: %w", err)
	}
	if settings.Repositories == nil {
		repos = []byte("[]")
	}

	existing, err := s.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		result, err := s.db.ExecContext(ctx,
			`INSERT INTO settings (github_token, webhook_secret, repositories) VALUES (?, ?, ?)`,
			settings.GitHubToken, settings.WebhookSecret, string(repos))
		if err != nil {
			return domain.Settings{}, fmt.Errorf("insert settings: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.Settings{}, fmt.Errorf("settings id: %w", err)
		}
		settings.ID = id
		return settings, nil
	}
	if err != nil {
		return domain.Settings{}, err
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE settings SET github_token = ?, webhook_secret = ?, repositories = ? WHERE id = ?`,
		settings.GitHubToken, settings.WebhookSecret, string(repos), existing.ID); err != nil {
		return domain.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	settings.ID = existing.ID
	return settings, nil
}

// Ping checks database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPullRequest(row scanner) (domain.PullRequest, error) {
	var (
		pr                   domain.PullRequest
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&pr.ID,
		&pr.GitHubID,
		&pr.Title,
		&pr.Description,
		&pr.Author,
		&pr.Repository,
		&pr.Status,
		&createdAt,
		&updatedAt,
		&pr.CommentID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PullRequest{}, store.ErrNotFound
	}
	if err != nil {
		return domain.PullRequest{}, fmt.Errorf("scan pull request: %w", err)
	}

	pr.CreatedAt = time.Unix(createdAt, 0).UTC()
	pr.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return pr, nil
}

func encodeIssues(issues []string) (string, error) {
	if issues == nil {
		issues = []string{}
	}
	encoded, err := json.Marshal(issues)
	if err != nil {
		return "", fmt.Errorf("encode issues: %w", err)
	}
	return string(encoded), nil
}

func decodeIssues(encoded string) ([]string, error) {
	var issues []string
	if err := json.Unmarshal([]byte(encoded), &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	if issues == nil {
		issues = []string{}
	}
	return issues, nil
}
