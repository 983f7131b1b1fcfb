package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// Alarm calls fire at first and then every period until stopped.
type Alarm interface {
	Schedule(first time.Time, period time.Duration, fire func()) error
	Stop()
}

// CronAlarm is an Alarm backed by a gocron scheduler.
type CronAlarm struct {
	scheduler *gocron.Scheduler
}

// NewCronAlarm creates a CronAlarm evaluating times in loc.
func NewCronAlarm(loc *time.Location) *CronAlarm {
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	// A slow fire never overlaps with the next one.
	s.SingletonModeAll()
	return &CronAlarm{scheduler: s}
}

// Schedule registers the recurring job and starts the scheduler.
func (a *CronAlarm) Schedule(first time.Time, period time.Duration, fire func()) error {
	if period <= 0 {
		return fmt.Errorf("alarm period must be positive, got %s", period)
	}

	_, err := a.scheduler.Every(period).StartAt(first).Do(fire)
	if err != nil {
		return fmt.Errorf("schedule alarm: %w", err)
	}

	a.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future fires.
func (a *CronAlarm) Stop() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
}

var _ Alarm = (*CronAlarm)(nil)
