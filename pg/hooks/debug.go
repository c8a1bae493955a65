// Package hooks carries the bun query hooks attached by pg.NewBunDB.
package hooks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/meridiancms/mediacore/observability/logger"
)

var _ bun.QueryHook = (*DebugHook)(nil)

// DebugHook logs executed queries through the project logger. Failures and
// slow queries always log; successful queries only in verbose mode.
type DebugHook struct {
	enabled            bool
	verbose            bool
	slowQueryThreshold time.Duration
}

// DebugHookOption configures a DebugHook.
type DebugHookOption func(*DebugHook)

// NewDebugHook builds a hook that is enabled and verbose with a 100ms slow
// query threshold unless options say otherwise.
func NewDebugHook(opts ...DebugHookOption) *DebugHook {
	hook := &DebugHook{
		enabled:            true,
		verbose:            true,
		slowQueryThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(hook)
	}
	return hook
}

// WithEnabled switches the hook on or off entirely.
func WithEnabled(enabled bool) DebugHookOption {
	return func(h *DebugHook) { h.enabled = enabled }
}

// WithVerbose controls whether successful queries log at debug level.
// Non-verbose hooks still log failures, no-rows results and slow queries.
func WithVerbose(verbose bool) DebugHookOption {
	return func(h *DebugHook) { h.verbose = verbose }
}

// WithSlowQueryThreshold sets the duration past which a query logs at warn
// level. Zero disables slow query detection.
func WithSlowQueryThreshold(threshold time.Duration) DebugHookOption {
	return func(h *DebugHook) { h.slowQueryThreshold = threshold }
}

// BeforeQuery implements bun.QueryHook; the hook only observes completions.
func (h *DebugHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery implements bun.QueryHook and does the actual logging.
func (h *DebugHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if !h.enabled {
		return
	}

	duration := time.Since(event.StartTime)

	noRows := errors.Is(event.Err, sql.ErrNoRows)
	// a commit/rollback racing the tx close is routine, not a failure
	txDone := errors.Is(event.Err, sql.ErrTxDone)
	failed := event.Err != nil && !noRows && !txDone

	slow := h.slowQueryThreshold > 0 && duration >= h.slowQueryThreshold

	if !h.verbose && !failed && !noRows && !slow {
		return
	}

	entry := logger.Named("bun_debug_hook").
		WithContext(ctx).
		With("query", stripQuotes(event.Query)).
		With("duration", duration.Round(time.Microsecond))

	if len(event.QueryArgs) > 0 {
		entry = entry.With("args", event.QueryArgs)
	}

	msg := "[bun-debug] - " + event.Operation()
	switch {
	case failed:
		entry.With("error", event.Err).Error(msg)
	case noRows:
		entry.With("error", event.Err).Warn(msg)
	case slow:
		entry.Warn(msg)
	default:
		entry.Debug(msg)
	}
}

// stripQuotes drops identifier quoting for log readability.
func stripQuotes(query string) string {
	return strings.ReplaceAll(query, `"`, "")
}
