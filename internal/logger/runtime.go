package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type ctxKey int

const (
	ctxLogger ctxKey = iota
	ctxRID
	ctxMeta
	ctxHandler
)

// updateMeta carries the identifiers of one Telegram update through the
// request context as a single value.
type updateMeta struct {
	updateID int
	userID   int64
	chatID   int64
}

// WithLogger stores a scoped logger in the context.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext returns the context's logger, or the global default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if l, ok := ctx.Value(ctxLogger).(*slog.Logger); ok {
		return l
	}
	return L
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRID, rid)
}

// RIDFrom extracts the correlation id, empty when absent.
func RIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(ctxRID).(string)
	return rid
}

// WithUpdateMeta attaches the update/user/chat identifiers as one value.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxMeta, updateMeta{
		updateID: updateID,
		userID:   userID,
		chatID:   chatID,
	})
}

// WithHandler records which handler owns the rest of the request.
func WithHandler(ctx context.Context, handler string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxHandler, handler)
}

// HandlerFrom returns the owning handler name, empty when absent.
func HandlerFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	handler, _ := ctx.Value(ctxHandler).(string)
	return handler
}

func metaFrom(ctx context.Context) updateMeta {
	if ctx == nil {
		return updateMeta{}
	}
	meta, _ := ctx.Value(ctxMeta).(updateMeta)
	return meta
}

// UserIDFrom extracts the Telegram user id, zero when absent.
func UserIDFrom(ctx context.Context) int64 {
	return metaFrom(ctx).userID
}

// ChatIDFrom extracts the chat id, zero when absent.
func ChatIDFrom(ctx context.Context) int64 {
	return metaFrom(ctx).chatID
}

// UpdateIDFrom extracts the update id, zero when absent.
func UpdateIDFrom(ctx context.Context) int {
	return metaFrom(ctx).updateID
}

// Sanitize strips control and format runes so user-supplied text (names,
// free-form dialog input) cannot break log lines. Tab and newline pass.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == 0x7F || unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit sanitizes and truncates to at most max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	cleaned := []rune(Sanitize(s))
	if len(cleaned) <= max {
		return string(cleaned)
	}
	return string(cleaned[:max])
}

// BuildRID formats the correlation id as updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID re-encodes a numeric updateID:chatID:userID rid in base36
// for shorter log lines. Anything else passes through unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	if rid == "" {
		return ""
	}
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	out := make([]string, len(parts))
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		out[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(out, ".")
}
