package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/acpkeep/internal/config"
	"github.com/harun/acpkeep/internal/logger"
	"github.com/harun/acpkeep/internal/observability"
	"github.com/harun/acpkeep/internal/tracing"
	"github.com/harun/acpkeep/pkg/acp"
	"github.com/harun/acpkeep/pkg/session"
	"github.com/harun/acpkeep/pkg/statestore"
)

// app holds everything a command needs for one invocation.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *statestore.Store
	session *session.Persistence[acp.SessionUpdate]
}

// newApp loads the config, applies global flag overrides and wires the
// logger, tracing, store and facade.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(logger.Config{
		Level:          cfg.Logging.Level,
		File:           cfg.Logging.File,
		Console:        cfg.Logging.Console,
		Pretty:         cfg.Logging.Pretty,
		Redaction:      cfg.Logging.Redaction,
		RedactPatterns: cfg.Logging.RedactPatterns,
		MaxSize:        cfg.Logging.MaxSize,
		MaxAge:         cfg.Logging.MaxAge,
		Compress:       cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if cfg.Tracing.Enabled {
		if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName); err != nil {
			lg.Warn().Err(err).Msg("Failed to initialize tracing")
		}
	}

	if cfg.Logging.AuditFile != "" {
		if err := observability.InitAuditLogger(cfg.Logging.AuditFile); err != nil {
			lg.Warn().Err(err).Str("path", cfg.Logging.AuditFile).Msg("Failed to open audit log")
		}
	}

	base := lg.GetZerolog()
	store := statestore.New(
		statestore.StaticDir(cfg.Storage.ProjectRoot),
		statestore.WithLayout(cfg.Storage.Layout()),
		statestore.WithLogger(base),
	)

	return &app{
		cfg:   cfg,
		log:   lg,
		store: store,
		session: session.New[acp.SessionUpdate](store,
			session.WithMaxHistory(cfg.History.MaxEntries),
			session.WithLogger(base),
		),
	}, nil
}

// Close flushes tracing and closes the log files.
func (a *app) Close(ctx context.Context) {
	if err := observability.CloseAuditLogger(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close audit log")
	}
	if a.cfg.Tracing.Enabled {
		if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
			a.log.Warn().Err(err).Msg("Failed to shut down tracing")
		}
	}
	_ = a.log.Close()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if projectRoot != "" {
		cfg.Storage.ProjectRoot = projectRoot
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// commandContext tags the command context with a fresh trace id.
func commandContext(cmd *cobra.Command) context.Context {
	return tracing.NewCommandContext(cmd.Context(), cmd.CommandPath())
}
