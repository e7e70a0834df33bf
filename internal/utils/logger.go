package utils

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stores the request id for LogEvent and outbound calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// NewLogger builds the JSON service logger. level is debug, info, warn or
// error; anything else means info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With("service", "ferryhub")
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LogEvent emits a standardized business event line with module, action
// and request_id. Keep message summarized; never pass contact data.
func LogEvent(ctx context.Context, module, action, message string, attrs ...any) {
	args := append([]any{
		"module", strings.ToUpper(module),
		"action", action,
		"request_id", RequestID(ctx),
	}, attrs...)
	slog.Default().InfoContext(ctx, message, args...)
}
