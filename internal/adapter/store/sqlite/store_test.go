package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/bkyoung/reviewhook/internal/adapter/store/sqlite"
	"github.com/bkyoung/reviewhook/internal/domain"
	"github.com/bkyoung/reviewhook/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	// Use in-memory database for testing
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err, "failed to create test store")

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func testInput() domain.PullRequestInput {
	now := time.Now().Truncate(time.Second)
	return domain.PullRequestInput{
		GitHubID:    9001,
		Title:       "Fix bug",
		Description: "Fixes a crash on empty input",
		Author:      "octocat",
		Repository:  "acme/widgets",
		Status:      "open",
		CreatedAt:   now.Add(-time.Hour),
		UpdatedAt:   now,
	}
}

func testAnalysis() domain.Analysis {
	return domain.Analysis{
		ProviderName:          "mistral",
		ModelName:             "mixtral-8x7b-32768",
		Score:                 85,
		SecurityIssues:        []string{"hardcoded credential"},
		PerformanceIssues:     []string{},
		MaintainabilityIssues: []string{"long function", "magic numbers"},
		Summary:               "Two maintainability issues.",
	}
}

func TestStore_CreatePullRequest_GetPullRequest(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	input := testInput()
	created, err := s.CreatePullRequest(ctx, input)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	retrieved, err := s.GetPullRequest(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, input.GitHubID, retrieved.GitHubID)
	assert.Equal(t, input.Title, retrieved.Title)
	assert.Equal(t, input.Description, retrieved.Description)
	assert.Equal(t, input.Author, retrieved.Author)
	assert.Equal(t, input.Repository, retrieved.Repository)
	assert.Equal(t, input.Status, retrieved.Status)
	assert.True(t, input.CreatedAt.Equal(retrieved.CreatedAt))
	assert.True(t, input.UpdatedAt.Equal(retrieved.UpdatedAt))
	assert.Zero(t, retrieved.CommentID)
}

func TestStore_GetPullRequest_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPullRequest(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ListPullRequests(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.CreatePullRequest(ctx, testInput())
	require.NoError(t, err)
	second, err := s.CreatePullRequest(ctx, testInput())
	require.NoError(t, err)

	prs, err := s.ListPullRequests(ctx)
	require.NoError(t, err)
	require.Len(t, prs, 2)

	// Most recent first
	assert.Equal(t, second.ID, prs[0].ID)
	assert.Equal(t, first.ID, prs[1].ID)
}

func TestStore_ListPullRequests_Empty(t *testing.T) {
	s := setupTestStore(t)

	prs, err := s.ListPullRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prs)
}

func TestStore_SetPullRequestComment(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	pr, err := s.CreatePullRequest(ctx, testInput())
	require.NoError(t, err)

	require.NoError(t, s.SetPullRequestComment(ctx, pr.ID, 555123))

	retrieved, err := s.GetPullRequest(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(555123), retrieved.CommentID)
}

func TestStore_SetPullRequestComment_NotFound(t *testing.T) {
	s := setupTestStore(t)

	err := s.SetPullRequestComment(context.Background(), 404, 555123)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_CreateAnalysis_GetAnalysisForPR(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	pr, err := s.CreatePullRequest(ctx, testInput())
	require.NoError(t, err)

	analysis := testAnalysis()
	record, err := s.CreateAnalysis(ctx, pr.ID, analysis)
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Equal(t, pr.ID, record.PRID)

	retrieved, err := s.GetAnalysisForPR(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, retrieved.ID)
	assert.Equal(t, analysis.ProviderName, retrieved.Analysis.ProviderName)
	assert.Equal(t, analysis.ModelName, retrieved.Analysis.ModelName)
	assert.Equal(t, analysis.Score, retrieved.Analysis.Score)
	assert.Equal(t, analysis.SecurityIssues, retrieved.Analysis.SecurityIssues)
	assert.Equal(t, []string{}, retrieved.Analysis.PerformanceIssues)
	assert.Equal(t, analysis.MaintainabilityIssues, retrieved.Analysis.MaintainabilityIssues)
	assert.Equal(t, analysis.Summary, retrieved.Analysis.Summary)
}

func TestStore_CreateAnalysis_NilIssuesBecomeEmpty(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	pr, err := s.CreatePullRequest(ctx, testInput())
	require.NoError(t, err)

	_, err = s.CreateAnalysis(ctx, pr.ID, domain.Analysis{
		ProviderName: "static",
		ModelName:    "static-v1",
		Score:        75,
	})
	require.NoError(t, err)

	retrieved, err := s.GetAnalysisForPR(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, retrieved.Analysis.SecurityIssues)
	assert.Equal(t, []string{}, retrieved.Analysis.PerformanceIssues)
	assert.Equal(t, []string{}, retrieved.Analysis.MaintainabilityIssues)
}

func TestStore_CreateAnalysis_UnknownPRFails(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.CreateAnalysis(context.Background(), 404, testAnalysis())
	assert.Error(t, err, "foreign key constraint should reject an unknown pr id")
}

func TestStore_GetAnalysisForPR_NotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	pr, err := s.CreatePullRequest(ctx, testInput())
	require.NoError(t, err)

	_, err = s.GetAnalysisForPR(ctx, pr.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_Settings_Lifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetSettings(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	saved, err := s.SaveSettings(ctx, domain.Settings{
		GitHubToken:   "ghp_token",
		WebhookSecret: "hook-secret",
		Repositories:  []string{"acme/widgets"},
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_token", settings.GitHubToken)
	assert.Equal(t, "hook-secret", settings.WebhookSecret)
	assert.Equal(t, []string{"acme/widgets"}, settings.Repositories)
}

func TestStore_SaveSettings_UpdatesSingleton(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.SaveSettings(ctx, domain.Settings{
		GitHubToken:   "ghp_old",
		WebhookSecret: "old-secret",
	})
	require.NoError(t, err)

	second, err := s.SaveSettings(ctx, domain.Settings{
		GitHubToken:   "ghp_new",
		WebhookSecret: "new-secret",
		Repositories:  []string{"acme/widgets", "acme/gadgets"},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "settings must stay a singleton")

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_new", settings.GitHubToken)
	assert.Len(t, settings.Repositories, 2)
}

func TestStore_Ping(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
