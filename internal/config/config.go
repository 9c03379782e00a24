package config

// Config represents the full application configuration.
type Config struct {
	Server        ServerConfig              `yaml:"server"`
	Store         StoreConfig               `yaml:"store"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	HTTP          HTTPConfig                `yaml:"http"`
	Pipeline      PipelineConfig            `yaml:"pipeline"`
	Observability ObservabilityConfig       `yaml:"observability"`
	Bootstrap     BootstrapConfig           `yaml:"bootstrap"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout    *string `yaml:"timeout,omitempty"`
	MaxRetries *int    `yaml:"maxRetries,omitempty"`
}

// HTTPConfig holds global HTTP client settings for the LLM backends.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// PipelineConfig bounds the external calls of one webhook run.
type PipelineConfig struct {
	DiffFetchTimeout string `yaml:"diffFetchTimeout"`
	AnalysisTimeout  string `yaml:"analysisTimeout"`
	PublishTimeout   string `yaml:"publishTimeout"`
}

// ObservabilityConfig configures logging behaviour.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // human, json
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// BootstrapConfig optionally seeds the settings row on startup when none
// exists yet. After bootstrap the stored settings are authoritative; they
// are read fresh per request and can be rotated via the settings endpoint
// without a restart.
type BootstrapConfig struct {
	GitHubToken   string   `yaml:"githubToken"`
	WebhookSecret string   `yaml:"webhookSecret"`
	Repositories  []string `yaml:"repositories"`
}
