package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/harun/recall/internal/config"
	"github.com/harun/recall/internal/logger"
	"github.com/harun/recall/internal/observability"
	"github.com/harun/recall/internal/tracing"
	"github.com/harun/recall/pkg/thread"
	"github.com/harun/recall/pkg/turn"
	"github.com/rs/zerolog"
)

// app holds the components a command needs, built from configuration.
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	log      zerolog.Logger
	store    thread.Store
	executor *turn.Executor
	metrics  *http.Server
	audit    bool
}

// newApp loads configuration and opens the thread store. The model client
// and executor are only built when withModel is set, so read-only commands
// work without credentials.
func newApp(ctx context.Context, opts *rootOptions, logOut io.Writer, withModel bool) (_ *app, err error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		Output:    logOut,

		RedactPatterns: cfg.Logging.RedactPatterns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: l, log: l.GetZerolog()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := tracing.InitOpenTelemetry("recall"); err != nil {
		a.log.Warn().Err(err).Msg("Failed to initialize tracing")
	}

	if cfg.Logging.AuditFile != "" {
		if err := observability.InitAuditLogger(cfg.Logging.AuditFile); err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		a.audit = true
	}

	a.store, err = thread.Open(thread.Options{
		Backend: cfg.Store.Backend,
		Dir:     cfg.Store.Dir,
		Path:    cfg.Store.Path,
		Logger:  a.log.With().Str("component", "thread").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open thread store: %w", err)
	}

	if opts.metricsAddr != "" {
		if err := a.serveMetrics(opts.metricsAddr); err != nil {
			return nil, err
		}
	}

	if !withModel {
		return a, nil
	}

	completer, err := opts.newCompleter(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	a.executor, err = turn.New(turn.Config{
		Store:        a.store,
		Completer:    completer,
		Model:        cfg.Model.Name,
		Temperature:  cfg.Model.Temperature,
		MaxTokens:    cfg.Model.MaxTokens,
		SystemPrompt: cfg.SystemPrompt,
		Logger:       a.log.With().Str("component", "turn").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create turn executor: %w", err)
	}

	a.log.Debug().
		Str("provider", completer.Provider()).
		Str("model", cfg.Model.Name).
		Str("store", cfg.Store.Backend).
		Msg("Recall ready")

	return a, nil
}

// runTurn runs one turn, bounded by the configured per-turn timeout.
func (a *app) runTurn(ctx context.Context, threadID, prompt string) (string, error) {
	if timeout := a.cfg.Model.TurnTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return a.executor.Run(ctx, threadID, prompt)
}

func (a *app) serveMetrics(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics address: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metrics.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	a.log.Info().Str("addr", listener.Addr().String()).Msg("Serving metrics")
	return nil
}

// Close releases the store, metrics server, audit log and log file.
func (a *app) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.metrics.Shutdown(ctx)
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close thread store")
		}
	}
	if a.audit {
		_ = observability.GetAuditLogger().Close()
		observability.SetAuditLogger(observability.NewAuditLogger(io.Discard))
	}
	_ = a.logger.Close()
}
