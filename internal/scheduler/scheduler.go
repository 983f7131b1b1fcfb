package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/meteo-bot/internal/clock"
	"github.com/i474232898/meteo-bot/internal/weather"
)

// State is the scheduler's coarse state.
type State string

const (
	StateIdle   State = "idle"
	StateFiring State = "firing"
)

// Runner executes one fire of the report pipeline.
type Runner interface {
	Run(ctx context.Context, trigger weather.Trigger) error
}

// Scheduler sends the daily report at the planned time and on demand.
type Scheduler struct {
	plan   Plan
	alarm  Alarm
	runner Runner
	clock  clock.Clock
	logger *zap.Logger

	mu     sync.Mutex
	next   time.Time
	firing int
}

// New creates a new Scheduler.
func New(plan Plan, alarm Alarm, runner Runner, clk clock.Clock, logger *zap.Logger) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		plan:   plan,
		alarm:  alarm,
		runner: runner,
		clock:  clk,
		logger: logger.Named("scheduler"),
	}
}

// Start computes the first fire and arms the alarm. Fires run with ctx, so
// cancelling it abandons them before anything is delivered.
func (s *Scheduler) Start(ctx context.Context) error {
	first := s.plan.FirstFire(s.clock.Now())

	s.mu.Lock()
	s.next = first
	s.mu.Unlock()

	s.logger.Info("scheduling daily forecast",
		zap.Time("first_fire", first),
		zap.Duration("wait", first.Sub(s.clock.Now())),
		zap.Duration("period", s.plan.period()),
	)

	return s.alarm.Schedule(first, s.plan.period(), func() { s.fire(ctx) })
}

// Stop cancels pending fires.
func (s *Scheduler) Stop() {
	s.alarm.Stop()
}

// Trigger runs the pipeline immediately. It leaves the next scheduled fire
// untouched and returns the pipeline error to the caller.
func (s *Scheduler) Trigger(ctx context.Context) error {
	s.begin()
	defer s.end()

	s.logger.Info("manual forecast requested")
	return s.runner.Run(ctx, weather.TriggerManual)
}

// NextFire returns the time of the next scheduled fire.
func (s *Scheduler) NextFire() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// State reports whether a fire is in progress.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firing > 0 {
		return StateFiring
	}
	return StateIdle
}

// fire is the alarm callback. Errors are logged and never stop the schedule.
func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	planned := s.next
	s.mu.Unlock()

	s.begin()
	err := s.runner.Run(ctx, weather.TriggerScheduled)
	s.end()

	if err != nil {
		s.logger.Error("scheduled forecast failed", zap.Time("planned", planned), zap.Error(err))
	}

	s.mu.Lock()
	s.next = s.plan.Next(planned)
	next := s.next
	s.mu.Unlock()

	s.logger.Info("next forecast scheduled", zap.Time("next_fire", next))
}

func (s *Scheduler) begin() {
	s.mu.Lock()
	s.firing++
	s.mu.Unlock()
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.firing--
	s.mu.Unlock()
}
