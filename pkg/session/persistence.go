package session

import (
	"context"
	"strings"
	"time"

	"github.com/harun/acpkeep/internal/observability"
	"github.com/harun/acpkeep/internal/tracing"
	"github.com/harun/acpkeep/pkg/history"
	"github.com/harun/acpkeep/pkg/statefile"
	"github.com/harun/acpkeep/pkg/statestore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "acpkeep.session"

// Persistence exposes the session lifecycle operations over a Store.
// E is the history entry type; it only needs to round-trip through
// encoding/json.
type Persistence[E any] struct {
	store      *statestore.Store
	now        func() time.Time
	maxHistory int
	logger     zerolog.Logger
}

type options struct {
	now        func() time.Time
	maxHistory int
	logger     zerolog.Logger
}

// Option configures a Persistence.
type Option func(*options)

// WithClock overrides the time source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMaxHistory keeps only the newest n entries of each snapshot.
// n <= 0 means unbounded, which is the default.
func WithMaxHistory(n int) Option {
	return func(o *options) {
		o.maxHistory = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Persistence backed by store.
func New[E any](store *statestore.Store, opts ...Option) *Persistence[E] {
	o := options{
		now:    time.Now,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Persistence[E]{
		store:      store,
		now:        o.now,
		maxHistory: o.maxHistory,
		logger:     o.logger.With().Str("component", "session").Logger(),
	}
}

// SessionID returns the stored session id, or "" when there is none.
func (p *Persistence[E]) SessionID() string {
	return p.SessionIDWithContext(context.Background())
}

// SessionIDWithContext returns the stored session id with tracing context.
func (p *Persistence[E]) SessionIDWithContext(ctx context.Context) string {
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.get_id")
	defer span.End()

	return p.store.LoadWithContext(ctx).SessionID
}

// SetSessionID stores id as the current session. Blank ids are ignored.
func (p *Persistence[E]) SetSessionID(id string) {
	p.SetSessionIDWithContext(context.Background(), id)
}

// SetSessionIDWithContext stores id as the current session with tracing context.
func (p *Persistence[E]) SetSessionIDWithContext(ctx context.Context, id string) {
	if strings.TrimSpace(id) == "" {
		return
	}

	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.set_id", attribute.String("session_id", id))
	defer span.End()

	p.store.Update(ctx, func(rec *statefile.Record) bool {
		rec.SessionID = id
		rec.Version = statefile.CurrentVersion
		rec.Touch(p.now())
		return true
	})
	observability.RecordSessionAudit(ctx, "session_set", id, nil)

	logger := tracing.LoggerFromContext(ctx, p.logger)
	logger.Debug().Msg("Session id stored")
}

// SaveSnapshot stores entries as the full history. A non-blank sessionID
// also replaces the stored session id; a blank one keeps it.
func (p *Persistence[E]) SaveSnapshot(sessionID string, entries []E) {
	p.SaveSnapshotWithContext(context.Background(), sessionID, entries)
}

// SaveSnapshotWithContext is SaveSnapshot with tracing context.
func (p *Persistence[E]) SaveSnapshotWithContext(ctx context.Context, sessionID string, entries []E) {
	hasID := strings.TrimSpace(sessionID) != ""
	if hasID {
		ctx = tracing.WithSessionID(ctx, sessionID)
	}
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.save_snapshot",
		attribute.Int("entries", len(entries)),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, p.logger)

	kept := history.Tail(entries, p.maxHistory)
	if len(kept) < len(entries) {
		logger.Debug().
			Int("from_entries", len(entries)).
			Int("to_entries", len(kept)).
			Msg("History truncated to cap")
	}

	blob, err := history.Marshal(kept)
	if err != nil {
		tracing.FailSpan(span, err)
		logger.Warn().Err(err).Msg("Failed to encode history, storing empty history")
	}

	var actor string
	p.store.Update(ctx, func(rec *statefile.Record) bool {
		rec.Version = statefile.CurrentVersion
		if hasID {
			rec.SessionID = sessionID
		}
		rec.MessagesJSON = blob
		rec.Touch(p.now())
		actor = rec.SessionID
		return true
	})
	observability.SetHistoryEntries(len(kept))
	observability.RecordSessionAudit(ctx, "snapshot_saved", actor, map[string]interface{}{
		"entries": len(kept),
	})
}

// LoadMessages returns the stored history. A missing or undecodable
// history yields an empty, non-nil slice.
func (p *Persistence[E]) LoadMessages() []E {
	return p.LoadMessagesWithContext(context.Background())
}

// LoadMessagesWithContext is LoadMessages with tracing context.
func (p *Persistence[E]) LoadMessagesWithContext(ctx context.Context) []E {
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.load_messages")
	defer span.End()

	rec := p.store.LoadWithContext(ctx)
	if !rec.HasHistory() {
		return []E{}
	}

	entries, err := history.Parse[E](rec.MessagesJSON)
	if err != nil {
		tracing.FailSpan(span, err)
		observability.RecordHistoryDecodeFailure()
		logger := tracing.LoggerFromContext(ctx, p.logger)
		logger.Warn().
			Err(err).
			Msg("Stored history is unreadable, returning empty history")
		return entries
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries
}

// ClearSessionID forgets the stored session id. History is kept.
func (p *Persistence[E]) ClearSessionID() {
	p.ClearSessionIDWithContext(context.Background())
}

// ClearSessionIDWithContext is ClearSessionID with tracing context.
func (p *Persistence[E]) ClearSessionIDWithContext(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.clear_id")
	defer span.End()

	p.store.Update(ctx, func(rec *statefile.Record) bool {
		rec.SessionID = ""
		rec.Touch(p.now())
		return true
	})
	observability.RecordSessionAudit(ctx, "session_cleared", "", nil)

	logger := tracing.LoggerFromContext(ctx, p.logger)
	logger.Debug().Msg("Session id cleared")
}

// AppendMessages adds entries to the end of the stored history. The read
// and the write happen in one critical section, so concurrent appends keep
// every entry. An unreadable stored history is replaced. The session id is
// left as it is.
func (p *Persistence[E]) AppendMessages(entries ...E) {
	p.AppendMessagesWithContext(context.Background(), entries...)
}

// AppendMessagesWithContext is AppendMessages with tracing context.
func (p *Persistence[E]) AppendMessagesWithContext(ctx context.Context, entries ...E) {
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.append_messages",
		attribute.Int("entries", len(entries)),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, p.logger)

	var (
		saved bool
		total int
		actor string
	)
	p.store.Update(ctx, func(rec *statefile.Record) bool {
		current, err := history.Parse[E](rec.MessagesJSON)
		if err != nil {
			observability.RecordHistoryDecodeFailure()
			logger.Warn().Err(err).Msg("Stored history is unreadable, appending to empty history")
		}

		merged := history.Tail(append(current, entries...), p.maxHistory)
		blob, err := history.Marshal(merged)
		if err != nil {
			tracing.FailSpan(span, err)
			logger.Warn().Err(err).Msg("Failed to encode history, keeping stored history")
			return false
		}

		rec.Version = statefile.CurrentVersion
		rec.MessagesJSON = blob
		rec.Touch(p.now())
		saved, total, actor = true, len(merged), rec.SessionID
		return true
	})
	if !saved {
		return
	}

	observability.SetHistoryEntries(total)
	observability.RecordSessionAudit(ctx, "messages_appended", actor, map[string]interface{}{
		"appended": len(entries),
		"entries":  total,
	})
}

// Store returns the underlying store.
func (p *Persistence[E]) Store() *statestore.Store {
	return p.store
}
