package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lifeweeks/internal/config"
	"github.com/m3rciful/lifeweeks/internal/dialog"
	"github.com/m3rciful/lifeweeks/internal/logger"
)

// Bot wires the dialog machine to Telegram: it receives updates, feeds
// them through the machine, and delivers the replies via the dispatcher.
type Bot struct {
	bot        *tele.Bot
	cfg        *config.Config
	machine    *dialog.Machine
	dispatcher *Dispatcher
}

// New builds the bot, applies middleware, and registers routes.
func New(cfg *config.Config, machine *dialog.Machine) (*Bot, error) {
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: buildPoller(cfg),
		Client: buildHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", RedactTokenErr(err))
	}

	b := &Bot{
		bot:        bot,
		cfg:        cfg,
		machine:    machine,
		dispatcher: NewDispatcher(DispatcherOptions{}),
	}

	bot.Use(recoverMiddleware)
	bot.Use(loggerMiddleware)
	bot.Use(rateLimitMiddleware(time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond))

	bot.Handle("/start", b.handleStart)
	bot.Handle("/cancel", b.handleText)
	bot.Handle(tele.OnText, b.handleText)

	b.logMode(start)
	return b, nil
}

// Run starts polling and blocks until ctx is cancelled or the poller exits.
func (b *Bot) Run(ctx context.Context) error {
	if b.cfg.Telegram.RunMode == config.RunModeLongpoll {
		if err := deleteWebhook(b.cfg.Telegram.Token); err != nil {
			logger.Warn(ctx, "telegram", "webhook.delete",
				slog.String("status", "fail"),
				slog.String("err", RedactToken(err.Error())),
			)
		}
	}

	done := make(chan struct{})
	go func() {
		b.bot.Start()
		close(done)
	}()

	select {
	case <-ctx.Done():
		b.bot.Stop()
		<-done
		b.dispatcher.Close()
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-done:
		b.dispatcher.Close()
		return nil
	}
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx := logger.WithHandler(requestContext(c), "start")
	return b.deliver(ctx, c, b.machine.Start(c.Sender().ID))
}

func (b *Bot) handleText(c tele.Context) error {
	ctx := logger.WithHandler(requestContext(c), "text")
	replies := b.machine.Handle(ctx, c.Sender().ID, c.Text())
	return b.deliver(ctx, c, replies)
}

// deliver sends machine replies asynchronously, preserving their order
// by enqueueing them one job at a time.
func (b *Bot) deliver(ctx context.Context, c tele.Context, replies []dialog.Reply) error {
	for _, r := range replies {
		r := r
		var (
			action string
			run    func() error
		)
		if len(r.Photo) > 0 {
			action = "send_photo"
			photo := &tele.Photo{
				File:    tele.FromReader(bytes.NewReader(r.Photo)),
				Caption: r.Caption,
			}
			run = func() error { return send(c, photo, r.Menu) }
		} else {
			action = "send_text"
			run = func() error { return send(c, r.Text, r.Menu) }
		}

		if err := b.dispatcher.Enqueue(ctx, action, run); err != nil {
			logger.Warn(ctx, "telegram", "send.enqueue",
				slog.String("status", "fail"),
				slog.String("action", action),
				slog.String("err", err.Error()),
			)
			// Saturated or closed queue falls back to a synchronous send.
			if sendErr := run(); sendErr != nil {
				return RedactTokenErr(sendErr)
			}
		}
	}
	return nil
}

func send(c tele.Context, what any, menu [][]string) error {
	if markup := replyMarkup(menu); markup != nil {
		return c.Send(what, markup)
	}
	return c.Send(what)
}

// SendText delivers a plain message to the chat, synchronously. The
// broadcast job relies on the returned error for its per-user accounting.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := b.bot.Send(tele.ChatID(chatID), text)
	return err
}

// SendImage delivers a photo with caption to the chat, synchronously.
func (b *Bot) SendImage(ctx context.Context, chatID int64, image []byte, caption string) error {
	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(image)),
		Caption: caption,
	}
	_, err := b.bot.Send(tele.ChatID(chatID), photo)
	return err
}

func (b *Bot) logMode(start time.Time) {
	ctx := logger.Background()
	switch p := b.bot.Poller.(type) {
	case *tele.Webhook:
		logger.Info(ctx, "telegram", "mode",
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	case *tele.LongPoller:
		logger.Info(ctx, "telegram", "mode",
			slog.String("mode", "longpoll"),
			slog.Duration("timeout", p.Timeout),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
}

// RedactTokenErr wraps err with the bot token stripped from its message.
func RedactTokenErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(RedactToken(err.Error()))
}

// deleteWebhook clears a previously registered webhook so long polling
// can receive updates.
func deleteWebhook(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
