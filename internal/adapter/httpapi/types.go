package httpapi

// webhookResponse acknowledges a processed or intentionally ignored
// delivery.
type webhookResponse struct {
	Success bool `json:"success"`
}

// errorResponse carries a client-facing error message. Details stay in the
// server logs.
type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse reports liveness and store reachability.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// settingsRequest is the settings bootstrap payload.
type settingsRequest struct {
	GitHubToken   string   `json:"githubToken"`
	WebhookSecret string   `json:"webhookSecret"`
	Repositories  []string `json:"repositories"`
}

// settingsResponse echoes settings with credential material redacted.
type settingsResponse struct {
	ID            int64    `json:"id"`
	GitHubToken   string   `json:"githubToken"`
	WebhookSecret string   `json:"webhookSecret"`
	Repositories  []string `json:"repositories"`
}
