package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/yukora/schema"
)

type contextKey int

const (
	consoleKey contextKey = iota
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithConsole annotates the logger with the console id unless the context
// logger already carries it.
func WithConsole(ctx context.Context, consoleID schema.ConsoleID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if consoleID != "" {
		if current, ok := ctx.Value(consoleKey).(schema.ConsoleID); ok && current == consoleID {
			return log
		}
		log = log.With("console", consoleID)
	}
	return log
}

// WithSession annotates the logger with a playback session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// WithScript annotates the logger with a script name when available.
func WithScript(log pslog.Logger, name schema.ScriptName) pslog.Logger {
	if name != "" {
		log = log.With("script", name)
	}
	return log
}

// ContextWithConsole stores the console marker on the context for log de-duplication.
func ContextWithConsole(ctx context.Context, consoleID schema.ConsoleID) context.Context {
	if ctx == nil || consoleID == "" {
		return ctx
	}
	return context.WithValue(ctx, consoleKey, consoleID)
}

// ContextWithConsoleLogger attaches the logger and console marker to the context.
func ContextWithConsoleLogger(ctx context.Context, log pslog.Logger, consoleID schema.ConsoleID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithConsole(ctx, consoleID)
}
