// Package broadcast delivers the weekly statistics update to every
// registered user with notifications enabled.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/lifeweeks/internal/lifecalc"
	"github.com/m3rciful/lifeweeks/internal/lifegrid"
	"github.com/m3rciful/lifeweeks/internal/logger"
	"github.com/m3rciful/lifeweeks/internal/profile"
)

// Sender delivers outbound messages to one chat. The Telegram transport
// implements it; tests substitute a fake.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendImage(ctx context.Context, chatID int64, image []byte, caption string) error
}

// Report summarizes one broadcast run.
type Report struct {
	Processed int
	Sent      int
	Skipped   int
	Failed    int
	Err       error
}

// Job walks all profiles and sends each opted-in user their statistics
// text followed by the life calendar image.
type Job struct {
	Store  profile.Store
	Sender Sender
	Now    func() time.Time
}

// NewJob builds a Job. The now function may be nil.
func NewJob(store profile.Store, sender Sender, now func() time.Time) *Job {
	if now == nil {
		now = time.Now
	}
	return &Job{Store: store, Sender: sender, Now: now}
}

// Run executes one broadcast pass. A failure for one user is recorded and
// the pass continues; the aggregate error covers all failed deliveries.
func (j *Job) Run(ctx context.Context) Report {
	started := j.Now()
	var report Report

	profiles, err := j.Store.ListAll(ctx)
	if err != nil {
		report.Err = fmt.Errorf("list profiles: %w", err)
		logger.Error(ctx, "broadcast", "run.list",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return report
	}

	now := j.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var errs *multierror.Error
	for _, p := range profiles {
		if ctx.Err() != nil {
			report.Err = ctx.Err()
			break
		}
		report.Processed++
		if !p.NotificationsEnabled {
			report.Skipped++
			continue
		}
		if err := j.sendOne(ctx, p, today); err != nil {
			report.Failed++
			errs = multierror.Append(errs, fmt.Errorf("user %d: %w", p.UserID, err))
			logger.Error(ctx, "broadcast", "user.failed",
				slog.String("status", "fail"),
				slog.Int64("user_id", p.UserID),
				slog.String("err", err.Error()),
			)
			continue
		}
		report.Sent++
	}
	if report.Err == nil {
		report.Err = errs.ErrorOrNil()
	}

	logger.Info(ctx, "broadcast", "run.done",
		slog.String("status", logger.Status(report.Err)),
		slog.Int("profiles", report.Processed),
		slog.Int("sent", report.Sent),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", logger.RoundMS(j.Now().Sub(started))),
	)
	return report
}

func (j *Job) sendOne(ctx context.Context, p profile.Profile, today time.Time) error {
	if err := j.Sender.SendText(ctx, p.UserID, weeklyText(p, today)); err != nil {
		return fmt.Errorf("send text: %w", err)
	}

	png, err := lifegrid.Render(p.Birthdate, p.LifeExpectancy, today)
	if err != nil {
		return fmt.Errorf("render grid: %w", err)
	}
	if err := j.Sender.SendImage(ctx, p.UserID, png, weeklyCaption); err != nil {
		return fmt.Errorf("send image: %w", err)
	}
	return nil
}

const weeklyCaption = "📅 Твой календарь жизни. Каждый красный квадрат - прожитая неделя."

// weeklyText builds the short weekly greeting, distinct from the full
// statistics block shown in the menu.
func weeklyText(p profile.Profile, today time.Time) string {
	elapsed := lifecalc.ComputeElapsed(p.Birthdate, today)
	remainingYears := p.LifeExpectancy - elapsed.Years
	if remainingYears < 0 {
		remainingYears = 0
	}
	return fmt.Sprintf(
		"📅 Здравствуй, %s! Ты прожил %d недель. При ожидаемой продолжительности жизни %d лет, тебе осталось примерно %d лет.",
		p.Name, elapsed.Weeks, p.LifeExpectancy, remainingYears,
	)
}
