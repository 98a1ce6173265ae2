package statestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/harun/acpkeep/internal/observability"
	"github.com/harun/acpkeep/internal/tracing"
	"github.com/harun/acpkeep/pkg/statefile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "acpkeep.statestore"

// Store holds the cached session state record and mediates every read and
// write of the backing file.
type Store struct {
	mu       sync.Mutex
	resolver DirResolver
	layout   Layout
	logger   zerolog.Logger

	cached *statefile.Record
}

// Option configures a Store.
type Option func(*Store)

// WithLayout overrides the default file layout.
func WithLayout(layout Layout) Option {
	return func(s *Store) {
		s.layout = layout
	}
}

// WithLogger sets the logger used for fallback and write-failure reports.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store. Nothing is read until the first Load.
func New(resolver DirResolver, opts ...Option) *Store {
	observability.EnsureRegistered()

	if resolver == nil {
		resolver = WorkingDir()
	}

	s := &Store{
		resolver: resolver,
		layout:   DefaultLayout(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "statestore").Logger()

	return s
}

// Path resolves the state file path. It is derived on every call.
func (s *Store) Path() (string, error) {
	if err := s.layout.Validate(); err != nil {
		return "", err
	}

	base, err := s.resolver.BaseDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	return s.layout.Resolve(base), nil
}

// Load returns the cached record, reading it from disk on first use.
func (s *Store) Load() statefile.Record {
	return s.LoadWithContext(context.Background())
}

// LoadWithContext is Load with tracing context.
func (s *Store) LoadWithContext(ctx context.Context) statefile.Record {
	ctx, span := tracing.StartSpan(ctx, tracerName, "statestore.load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.loadLocked(ctx)
	span.SetAttributes(attribute.Bool("has_session", rec.HasSession()))
	return rec
}

// Save replaces the cached record and writes it to disk. Write failures
// are logged and swallowed; the cache keeps the new record regardless.
func (s *Store) Save(rec statefile.Record) {
	s.SaveWithContext(context.Background(), rec)
}

// SaveWithContext is Save with tracing context.
func (s *Store) SaveWithContext(ctx context.Context, rec statefile.Record) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "statestore.save")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveLocked(ctx, rec); err != nil {
		tracing.FailSpan(span, err)
	}
}

// Update runs load, fn and save as one critical section. The record is
// saved only when fn returns true. Concurrent Updates therefore never lose
// each other's changes.
func (s *Store) Update(ctx context.Context, fn func(rec *statefile.Record) bool) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "statestore.update")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.loadLocked(ctx)
	if !fn(&rec) {
		span.SetAttributes(attribute.Bool("saved", false))
		return
	}

	span.SetAttributes(attribute.Bool("saved", true))
	if err := s.saveLocked(ctx, rec); err != nil {
		tracing.FailSpan(span, err)
	}
}

// Invalidate drops the cached record so the next Load reads the file again.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

// Loaded reports whether a record is cached.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached != nil
}

// Inspect reads and decodes the state file without touching the cache.
func (s *Store) Inspect() (string, statefile.Result) {
	path, err := s.Path()
	if err != nil {
		return "", statefile.Fallback(statefile.StatusUnreadable, err)
	}
	return path, ReadFile(path)
}

// ReadFile reads and decodes a state file. It never fails; see statefile.Decode.
func ReadFile(path string) statefile.Result {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return statefile.Fallback(statefile.StatusMissing, nil)
		}
		return statefile.Fallback(statefile.StatusUnreadable, fmt.Errorf("failed to read state file: %w", err))
	}
	return statefile.Decode(data)
}

func (s *Store) loadLocked(ctx context.Context) statefile.Record {
	if s.cached != nil {
		return *s.cached
	}

	logger := tracing.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	path, res := s.Inspect()
	observability.RecordStateLoad(time.Since(start), res.Status.String())

	switch {
	case res.Status == statefile.StatusMissing:
		logger.Debug().Str("path", path).Msg("No session state file, starting empty")
	case res.Status.Fallback():
		logger.Warn().
			Str("path", path).
			Str("status", res.Status.String()).
			Err(res.Err).
			Msg("Discarding unusable session state")
	case res.Status == statefile.StatusMigrated:
		logger.Info().
			Str("path", path).
			Int("version", res.Record.Version).
			Msg("Session state version coerced to current")
	default:
		logger.Debug().Str("path", path).Msg("Session state loaded")
	}

	rec := res.Record
	s.cached = &rec
	return rec
}

func (s *Store) saveLocked(ctx context.Context, rec statefile.Record) error {
	if rec.Version <= 0 {
		rec.Version = statefile.CurrentVersion
	}
	s.cached = &rec

	logger := tracing.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	err := s.persist(rec)
	observability.RecordStateSave(time.Since(start), err == nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to persist session state")
		return err
	}

	logger.Debug().Bool("has_session", rec.HasSession()).Msg("Session state saved")
	return nil
}

func (s *Store) persist(rec statefile.Record) error {
	path, err := s.Path()
	if err != nil {
		return err
	}

	data, err := statefile.Encode(rec)
	if err != nil {
		return err
	}

	return writeFileAtomic(path, data, 0644)
}
