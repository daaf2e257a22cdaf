package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionJanitor periodically evicts idle quiz sessions.
type SessionJanitor struct {
	sweeper  SessionSweeper
	ttl      time.Duration
	schedule string
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionJanitor creates a janitor that runs on the given cron schedule and
// evicts sessions idle for longer than ttl.
func NewSessionJanitor(sweeper SessionSweeper, ttl time.Duration, schedule string, logger *zap.Logger) *SessionJanitor {
	return &SessionJanitor{
		sweeper:  sweeper,
		ttl:      ttl,
		schedule: schedule,
		now:      time.Now,
		logger:   logger,
	}
}

// Start runs the sweep job until ctx is cancelled.
func (j *SessionJanitor) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(j.schedule, j.sweep); err != nil {
		return fmt.Errorf("add sweep job %q: %w", j.schedule, err)
	}

	c.Start()
	j.logger.Info("session janitor started",
		zap.String("schedule", j.schedule),
		zap.Duration("ttl", j.ttl),
	)

	<-ctx.Done()

	// Wait for a sweep in flight.
	<-c.Stop().Done()
	j.logger.Info("session janitor stopped")

	return nil
}

func (j *SessionJanitor) sweep() {
	evicted := j.sweeper.Sweep(j.now().Add(-j.ttl))
	if evicted > 0 {
		j.logger.Info("idle sessions evicted", zap.Int("count", evicted))
	}
}
