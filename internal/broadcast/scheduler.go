package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/lifeweeks/internal/logger"
)

// Scheduler fires the job once a week at the configured weekday and time.
type Scheduler struct {
	job      *Job
	weekday  time.Weekday
	hour     int
	minute   int
	location *time.Location

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewScheduler builds a Scheduler. A nil location defaults to UTC.
func NewScheduler(job *Job, weekday time.Weekday, hour, minute int, location *time.Location) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{
		job:      job,
		weekday:  weekday,
		hour:     hour,
		minute:   minute,
		location: location,
		done:     make(chan struct{}),
	}
}

// Start launches the scheduling loop in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop cancels the loop and waits for it to finish. Stopping a scheduler
// that was never started is a no-op.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	for {
		next := s.next(s.job.Now().In(s.location))
		logger.Info(ctx, "broadcast", "scheduler.sleep",
			slog.Time("next_run", next),
		)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info(ctx, "broadcast", "scheduler.stopped")
			return
		case <-timer.C:
			s.job.Run(ctx)
		}
	}
}

// next returns the first instant strictly after now that falls on the
// configured weekday at the configured wall-clock time.
func (s *Scheduler) next(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.location)
	days := (int(s.weekday) - int(now.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, days)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}
