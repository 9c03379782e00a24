// Package httpapi exposes the webhook endpoint and the JSON read surface
// backing the dashboard.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bkyoung/reviewhook/internal/domain"
	"github.com/bkyoung/reviewhook/internal/store"
	"github.com/bkyoung/reviewhook/internal/usecase/pipeline"
)

// maxWebhookBody caps the accepted webhook payload size.
const maxWebhookBody = 10 << 20

// Runner executes the analysis pipeline for one webhook delivery.
type Runner interface {
	Run(ctx context.Context, event pipeline.WebhookEvent) (pipeline.Result, error)
}

// ReadStore covers the store operations backing the read endpoints.
type ReadStore interface {
	GetPullRequest(ctx context.Context, id int64) (domain.PullRequest, error)
	ListPullRequests(ctx context.Context) ([]domain.PullRequest, error)
	GetAnalysisForPR(ctx context.Context, prID int64) (domain.AnalysisRecord, error)
	GetSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error)
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP endpoint implementations.
type Handlers struct {
	runner Runner
	store  ReadStore
	logger Logger
}

// NewHandlers constructs the endpoint set.
func NewHandlers(runner Runner, st ReadStore, logger Logger) *Handlers {
	return &Handlers{
		runner: runner,
		store:  st,
		logger: logger,
	}
}

// Webhook handles POST /api/webhook. Only the signature outcome
// distinguishes the response classes: 401 for a bad signature, 200 for
// handled or intentionally ignored events, 500 for any processing failure
// (full detail is logged server-side, never returned to the caller).
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "unable to read request body"})
		return
	}

	event := pipeline.WebhookEvent{
		Event:     r.Header.Get("X-GitHub-Event"),
		Signature: r.Header.Get("X-Hub-Signature-256"),
		Payload:   payload,
	}

	result, err := h.runner.Run(r.Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid signature"})
			return
		}
		h.logWarning(r, "webhook processing failed", map[string]interface{}{
			"event": event.Event,
			"stage": string(result.Stage),
			"error": err.Error(),
		})
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to process webhook"})
		return
	}

	respondJSON(w, http.StatusOK, webhookResponse{Success: true})
}

// ListPullRequests handles GET /api/pull-requests.
func (h *Handlers) ListPullRequests(w http.ResponseWriter, r *http.Request) {
	prs, err := h.store.ListPullRequests(r.Context())
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}
	if prs == nil {
		prs = []domain.PullRequest{}
	}
	respondJSON(w, http.StatusOK, prs)
}

// GetPullRequest handles GET /api/pull-requests/{id}.
func (h *Handlers) GetPullRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	pr, err := h.store.GetPullRequest(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "PR not found"})
		return
	}
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}
	respondJSON(w, http.StatusOK, pr)
}

// GetAnalysis handles GET /api/pull-requests/{id}/analysis.
func (h *Handlers) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	record, err := h.store.GetAnalysisForPR(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "Analysis not found"})
		return
	}
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// GetSettings handles GET /api/settings. Credentials are redacted; an
// unconfigured service returns an empty object rather than 404 so the
// dashboard can render a setup prompt.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, settingsResponse{
		ID:            settings.ID,
		GitHubToken:   redactSecret(settings.GitHubToken),
		WebhookSecret: redactSecret(settings.WebhookSecret),
		Repositories:  settings.Repositories,
	})
}

// SaveSettings handles POST /api/settings, the bootstrap for the
// credentials the pipeline reads fresh on every delivery.
func (h *Handlers) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.GitHubToken == "" || req.WebhookSecret == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "githubToken and webhookSecret are required"})
		return
	}

	saved, err := h.store.SaveSettings(r.Context(), domain.Settings{
		GitHubToken:   req.GitHubToken,
		WebhookSecret: req.WebhookSecret,
		Repositories:  req.Repositories,
	})
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, settingsResponse{
		ID:            saved.ID,
		GitHubToken:   redactSecret(saved.GitHubToken),
		WebhookSecret: redactSecret(saved.WebhookSecret),
		Repositories:  saved.Repositories,
	})
}

// Health handles GET /api/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}

func (h *Handlers) logWarning(r *http.Request, message string, fields map[string]interface{}) {
	if h.logger != nil {
		h.logger.LogWarning(r.Context(), message, fields)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// redactSecret shows only the last 4 characters of a credential.
func redactSecret(secret string) string {
	if len(secret) <= 4 {
		return "[REDACTED]"
	}
	return "[REDACTED-" + secret[len(secret)-4:] + "]"
}
