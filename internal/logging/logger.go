// Package logging is the structured logger every gophauth component writes
// through, backed by log/slog.
package logging

import "context"

// Logger takes a message plus alternating key/value args:
//
//	log.Info(ctx, "user registered", "user_id", id)
//
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for rejected requests and degraded dependencies.
	Warn(ctx context.Context, msg string, args ...any)
	// Error is for internal failures. Details stay in the log, never in responses.
	Error(ctx context.Context, msg string, args ...any)

	// With binds args to every record of the returned logger.
	With(args ...any) Logger
}
