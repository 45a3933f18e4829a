// Package logging builds the slog loggers used across emtbot. Every logger redacts
// attributes that look like secrets (EMT passKey, Telegram token) before they reach the output.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const redactedValue = "[REDACTED]"

var sensitiveKeyParts = []string{"pass", "token", "secret", "api_key", "authorization"}

// New returns a text logger writing to w at the named level (debug, info, warn, error).
func New(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(WrapHandler(handler)), nil
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

type redactingHandler struct {
	next slog.Handler
}

// WrapHandler returns a handler that redacts sensitive attributes before delegating to next.
func WrapHandler(next slog.Handler) slog.Handler {
	return &redactingHandler{next: next}
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(Redact(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		redacted = append(redacted, Redact(attr))
	}
	return &redactingHandler{next: h.next.WithAttrs(redacted)}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name)}
}

// Redact hides the value of attr if its key looks sensitive. Groups and string maps are walked.
func Redact(attr slog.Attr) slog.Attr {
	if isSensitiveKey(attr.Key) {
		return slog.String(attr.Key, redactedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		out := make([]any, 0, len(group))
		for _, a := range group {
			out = append(out, Redact(a))
		}
		return slog.Group(attr.Key, out...)
	case slog.KindAny:
		if m, ok := attr.Value.Any().(map[string]string); ok {
			return slog.Any(attr.Key, redactMap(m))
		}
	}
	return attr
}

func redactMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if isSensitiveKey(k) {
			v = redactedValue
		}
		out[k] = v
	}
	return out
}

// isSensitiveKey matches the parts above anywhere in the key, and "key" only as a suffix
// (accessKey, apikey) so that keyboard-like keys stay readable.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	if strings.HasSuffix(lower, "key") {
		return true
	}
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
