// Package logging is the structured logging seam shared by the server
// packages. Backends wrap log/slog or zap.
package logging

import "context"

// Logger takes a message plus alternating key/value args:
//
//	log.Info(ctx, "session ended", "session_id", id, "patients", n)
//
// Pairs stored with ContextWith are emitted ahead of args.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every entry.
	With(args ...any) Logger
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
