// Package app assembles the bot from its parts and owns the runtime
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lifeweeks/internal/broadcast"
	"github.com/m3rciful/lifeweeks/internal/config"
	"github.com/m3rciful/lifeweeks/internal/database"
	"github.com/m3rciful/lifeweeks/internal/dialog"
	"github.com/m3rciful/lifeweeks/internal/logger"
	"github.com/m3rciful/lifeweeks/internal/profile"
	"github.com/m3rciful/lifeweeks/internal/telegram"
)

// App holds the assembled components.
type App struct {
	cfg       *config.Config
	db        *sqlx.DB
	bot       *telegram.Bot
	scheduler *broadcast.Scheduler
}

// New initializes the logger, connects to the database, applies
// migrations, and builds the bot with its weekly broadcast scheduler.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	if err := logger.InitLogger(cfg.Logging); err != nil {
		return nil, fmt.Errorf("app: logger init failed: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("app: database initialization failed: %w", err)
	}
	if err := database.RunMigrations(cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("app: migrations failed: %w", err)
	}

	store := profile.NewPostgresStore(db)
	machine := dialog.NewMachine(store, nil)

	bot, err := telegram.New(cfg, machine)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	weekday, _ := config.ParseWeekday(cfg.Broadcast.Weekday)
	hour, minute, _ := config.ParseClock(cfg.Broadcast.At)
	job := broadcast.NewJob(store, bot, nil)
	scheduler := broadcast.NewScheduler(job, weekday, hour, minute, cfg.Broadcast.Location())

	return &App{
		cfg:       cfg,
		db:        db,
		bot:       bot,
		scheduler: scheduler,
	}, nil
}

// Run starts the scheduler and the bot, then blocks until ctx is done.
// Shutdown order: bot first so no new updates arrive, then the
// scheduler, then the database.
func (a *App) Run(ctx context.Context) error {
	startedAt := time.Now()
	a.scheduler.Start(ctx)

	logger.Info(ctx, "app", "ready",
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	err := a.bot.Run(ctx)

	logger.Info(ctx, "app", "shutdown")
	a.scheduler.Stop()
	if closeErr := a.db.Close(); closeErr != nil {
		logger.Warn(ctx, "app", "db.close",
			slog.String("status", "fail"),
			slog.String("err", closeErr.Error()),
		)
	}
	return err
}
