package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/reviewhook/internal/adapter/cli"
	githubadapter "github.com/bkyoung/reviewhook/internal/adapter/github"
	"github.com/bkyoung/reviewhook/internal/adapter/httpapi"
	llmhttp "github.com/bkyoung/reviewhook/internal/adapter/llm/http"
	"github.com/bkyoung/reviewhook/internal/adapter/llm/mistral"
	"github.com/bkyoung/reviewhook/internal/adapter/llm/openai"
	"github.com/bkyoung/reviewhook/internal/adapter/llm/static"
	"github.com/bkyoung/reviewhook/internal/adapter/observability"
	"github.com/bkyoung/reviewhook/internal/adapter/store/sqlite"
	"github.com/bkyoung/reviewhook/internal/config"
	"github.com/bkyoung/reviewhook/internal/domain"
	"github.com/bkyoung/reviewhook/internal/store"
	"github.com/bkyoung/reviewhook/internal/usecase/analyze"
	"github.com/bkyoung/reviewhook/internal/usecase/pipeline"
	"github.com/bkyoung/reviewhook/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "reviewhook",
		EnvPrefix:   "RVH",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	obs := buildObservability(cfg.Observability)

	var runLogger *observability.PipelineLogger
	if obs.logger != nil {
		runLogger = observability.NewPipelineLogger(obs.logger)
	}

	providers := buildProviders(cfg.Providers, cfg.HTTP, obs)

	primary, fallback, err := analyze.Select(providers)
	if err != nil {
		return fmt.Errorf("provider selection failed: %w", err)
	}
	analyzer := analyze.NewAnalyzer(primary, fallback)
	if runLogger != nil {
		analyzer.SetLogger(runLogger)
	}

	storeDir := filepath.Dir(cfg.Store.Path)
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer sqliteStore.Close()

	if err := bootstrapSettings(ctx, sqliteStore, cfg.Bootstrap); err != nil {
		return fmt.Errorf("bootstrap settings: %w", err)
	}

	coordinator := pipeline.NewCoordinator(pipeline.Deps{
		Store: sqliteStore,
		NewGitHubClient: func(token string) pipeline.GitHubClient {
			return githubadapter.NewClient(token)
		},
		Analyzer: analyzer,
		Verify:   githubadapter.VerifySignature,
		Render:   analyze.RenderComment,
		Logger:   pipelineLogger(runLogger),
		Timeouts: pipeline.Timeouts{
			DiffFetch: parseDuration(cfg.Pipeline.DiffFetchTimeout, 0),
			Analysis:  parseDuration(cfg.Pipeline.AnalysisTimeout, 0),
			Publish:   parseDuration(cfg.Pipeline.PublishTimeout, 0),
		},
	})

	handlers := httpapi.NewHandlers(coordinator, sqliteStore, httpLogger(runLogger))
	router := httpapi.NewRouter(handlers, httpLogger(runLogger))

	srv := &webhookServer{
		handler:         router,
		shutdownTimeout: parseDuration(cfg.Server.ShutdownTimeout, 10*time.Second),
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Server:      srv,
		DefaultAddr: cfg.Server.Addr,
		Version:     version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// webhookServer runs the HTTP listener and shuts it down cleanly when the
// context is cancelled.
type webhookServer struct {
	handler         http.Handler
	shutdownTimeout time.Duration
}

func (s *webhookServer) Serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// settingsStore is the slice of the store needed for the one-time seed.
type settingsStore interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error)
}

// bootstrapSettings seeds the settings row from config on first run. Once a
// row exists the stored settings win: they can be rotated through the
// settings endpoint without touching config.
func bootstrapSettings(ctx context.Context, st settingsStore, cfg config.BootstrapConfig) error {
	if cfg.GitHubToken == "" && cfg.WebhookSecret == "" {
		return nil
	}

	_, err := st.GetSettings(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	_, err = st.SaveSettings(ctx, domain.Settings{
		GitHubToken:   cfg.GitHubToken,
		WebhookSecret: cfg.WebhookSecret,
		Repositories:  cfg.Repositories,
	})
	return err
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reviewhook"))
	}
	return paths
}

// observabilityComponents holds shared observability instances
type observabilityComponents struct {
	logger llmhttp.Logger
}

// buildObservability creates observability components based on configuration
func buildObservability(cfg config.ObservabilityConfig) observabilityComponents {
	var logger llmhttp.Logger

	if cfg.Logging.Enabled {
		logLevel := llmhttp.LogLevelInfo
		switch cfg.Logging.Level {
		case "debug":
			logLevel = llmhttp.LogLevelDebug
		case "error":
			logLevel = llmhttp.LogLevelError
		}

		logFormat := llmhttp.LogFormatHuman
		if cfg.Logging.Format == "json" {
			logFormat = llmhttp.LogFormatJSON
		}

		logger = llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys)
	}

	return observabilityComponents{logger: logger}
}

func buildProviders(providersConfig map[string]config.ProviderConfig, httpConfig config.HTTPConfig, obs observabilityComponents) map[string]analyze.Provider {
	providers := make(map[string]analyze.Provider)

	// Mistral provider (Groq-hosted)
	if cfg, ok := providersConfig["mistral"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "mixtral-8x7b-32768"
		}
		if cfg.APIKey == "" {
			log.Println("Mistral: No API key provided, skipping provider")
		} else {
			client := mistral.NewHTTPClient(cfg.APIKey, model)
			configureClient(client, cfg, httpConfig, obs)
			providers["mistral"] = mistral.NewProvider(model, client)
		}
	}

	// OpenAI provider
	if cfg, ok := providersConfig["openai"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "gpt-4o"
		}
		if cfg.APIKey == "" {
			log.Println("OpenAI: No API key provided, skipping provider")
		} else {
			client := openai.NewHTTPClient(cfg.APIKey, model)
			configureClient(client, cfg, httpConfig, obs)
			providers["openai"] = openai.NewProvider(model, client)
		}
	}

	// Static provider (for testing)
	if cfg, ok := providersConfig["static"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "static-v1"
		}
		providers["static"] = static.NewProvider(model)
	}

	return providers
}

// httpClient is the configurable surface shared by the provider HTTP clients.
type httpClient interface {
	SetTimeout(timeout time.Duration)
	SetRetryConfig(conf llmhttp.RetryConfig)
	SetLogger(logger llmhttp.Logger)
}

func configureClient(client httpClient, cfg config.ProviderConfig, httpConfig config.HTTPConfig, obs observabilityComponents) {
	timeout := httpConfig.Timeout
	if cfg.Timeout != nil {
		timeout = *cfg.Timeout
	}
	if d := parseDuration(timeout, 0); d > 0 {
		client.SetTimeout(d)
	}

	retry := llmhttp.DefaultRetryConfig()
	retry.MaxRetries = httpConfig.MaxRetries
	if cfg.MaxRetries != nil {
		retry.MaxRetries = *cfg.MaxRetries
	}
	if d := parseDuration(httpConfig.InitialBackoff, 0); d > 0 {
		retry.InitialBackoff = d
	}
	if d := parseDuration(httpConfig.MaxBackoff, 0); d > 0 {
		retry.MaxBackoff = d
	}
	if httpConfig.BackoffMultiplier > 0 {
		retry.Multiplier = httpConfig.BackoffMultiplier
	}
	client.SetRetryConfig(retry)

	if obs.logger != nil {
		client.SetLogger(obs.logger)
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("warning: invalid duration %q, using default", raw)
		return fallback
	}
	return d
}

// pipelineLogger keeps the pipeline dependency nil when logging is disabled.
func pipelineLogger(l *observability.PipelineLogger) pipeline.Logger {
	if l == nil {
		return nil
	}
	return l
}

func httpLogger(l *observability.PipelineLogger) httpapi.Logger {
	if l == nil {
		return nil
	}
	return l
}

// Compile-time interface compliance checks
var _ analyze.Provider = (*mistral.Provider)(nil)
var _ analyze.Provider = (*openai.Provider)(nil)
var _ analyze.Provider = (*static.Provider)(nil)
var _ pipeline.Store = (*sqlite.Store)(nil)
var _ pipeline.GitHubClient = (*githubadapter.Client)(nil)
var _ httpapi.Runner = (*pipeline.Coordinator)(nil)
var _ httpapi.ReadStore = (*sqlite.Store)(nil)
var _ store.Store = (*sqlite.Store)(nil)
var _ cli.Server = (*webhookServer)(nil)
