// Package scheduler fires the nightly cycle at a configured wall-clock
// time of day. Next-fire computation is a pure function and the run loop
// is driven by an injectable clock, so tests advance time explicitly.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Clock is the time source for the run loop.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// realClock delegates to package time.
type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Scheduler computes daily fire times in a fixed timezone.
type Scheduler struct {
	loc    *time.Location
	hour   int
	minute int
}

// New parses an "HH:MM" time of day and an IANA timezone name.
func New(timeOfDay, timezone string) (*Scheduler, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(timeOfDay, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("scheduler: parse time %q: %w", timeOfDay, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("scheduler: time out of range: %q", timeOfDay)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load timezone %q: %w", timezone, err)
	}
	return &Scheduler{loc: loc, hour: hour, minute: minute}, nil
}

// Next returns the first fire instant strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	local := now.In(s.loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !fire.After(local) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}

// Run fires fn once per day at the configured time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, clock Clock, logger *slog.Logger, fn func(context.Context)) {
	for {
		now := clock.Now()
		fire := s.Next(now)
		logger.Info("scheduler: next cycle",
			slog.Time("at", fire),
			slog.Duration("in", fire.Sub(now)))

		select {
		case <-ctx.Done():
			logger.Info("scheduler: stopped")
			return
		case <-clock.After(fire.Sub(now)):
			fn(ctx)
		}
	}
}
