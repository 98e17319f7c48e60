package telegram

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lifeweeks/internal/logger"
)

const ctxStoreKey = "lifeweeks_ctx"

// storeContext attaches the request context to the telebot context so
// handlers and the dispatcher see the same rid and update metadata.
func storeContext(c tele.Context, ctx context.Context) {
	c.Set(ctxStoreKey, ctx)
}

// requestContext retrieves the context placed by the logging middleware,
// falling back to context.Background.
func requestContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxStoreKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

// recoverMiddleware keeps a panicking handler from taking the bot down.
func recoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(logger.Background(), "telegram", "handler.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// loggerMiddleware builds the rid, stores the request context, and logs
// one receipt line per update.
func loggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()

		chatID, userID := int64(0), int64(0)
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("telegram"))
		storeContext(c, ctx)

		attrs := []slog.Attr{
			slog.String("rid", rid),
			slog.Int("update_id", upd.ID),
		}
		if userID != 0 {
			attrs = append(attrs, slog.Int64("user_id", userID))
		}
		if chatID != 0 {
			attrs = append(attrs, slog.Int64("chat_id", chatID))
		}
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("input", logger.SanitizeLimit(t, 256)))
		}
		logger.Debug(ctx, "telegram", "update.received", attrs...)

		return next(c)
	}
}

// rateLimitMiddleware enforces a minimum interval between messages from
// the same user. Zero interval disables it.
func rateLimitMiddleware(interval time.Duration) tele.MiddlewareFunc {
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || interval <= 0 {
				return next(c)
			}

			now := time.Now()
			mu.Lock()
			if last, ok := lastSeen[user.ID]; ok && now.Sub(last) < interval {
				mu.Unlock()
				logger.Warn(requestContext(c), "telegram", "rate_limit",
					slog.Int64("user_id", user.ID),
				)
				return nil
			}
			lastSeen[user.ID] = now
			mu.Unlock()

			return next(c)
		}
	}
}
