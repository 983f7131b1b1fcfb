package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/meteo-bot/internal/clock"
)

// Service runs the fetch, render and deliver pipeline for the configured
// location and keeps the last fetched forecast in the store.
type Service struct {
	request  ForecastRequest
	provider Provider
	store    Store
	renderer Renderer
	notifier Notifier
	clock    clock.Clock
	logger   *zap.Logger

	// inFlight allows at most one fire at a time, scheduled or manual.
	inFlight sync.Mutex
}

// NewService creates a new Service.
func NewService(
	req ForecastRequest,
	provider Provider,
	store Store,
	renderer Renderer,
	notifier Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		request:  req,
		provider: provider,
		store:    store,
		renderer: renderer,
		notifier: notifier,
		clock:    clk,
		logger:   logger.Named("pipeline"),
	}
}

// Request returns the fixed forecast request.
func (s *Service) Request() ForecastRequest {
	return s.request
}

// Run executes one fire. A manual fire returns ErrPipelineBusy without doing
// anything if another fire is still running; a scheduled fire waits for it
// instead, so the daily report is never dropped. A context cancelled before
// delivery means nothing is sent.
func (s *Service) Run(ctx context.Context, trigger Trigger) error {
	if trigger == TriggerScheduled {
		s.inFlight.Lock()
	} else if !s.inFlight.TryLock() {
		return ErrPipelineBusy
	}
	defer s.inFlight.Unlock()

	log := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("trigger", string(trigger)),
	)
	start := time.Now()
	log.Info("running forecast pipeline")

	forecast, err := s.Forecast(ctx)
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		return err
	}

	now := s.clock.Now()
	report, err := s.renderer.Render(forecast, now)
	if err != nil {
		log.Error("render failed", zap.Error(err))
		return err
	}

	if err := ctx.Err(); err != nil {
		log.Warn("pipeline cancelled before delivery", zap.Error(err))
		return err
	}

	if err := s.notifier.Deliver(ctx, report); err != nil {
		log.Error("delivery failed", zap.Error(err))
		return err
	}

	log.Info("forecast report delivered",
		zap.Int("chart_bytes", len(report.Chart)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Forecast returns the cached forecast when it is still fresh and otherwise
// fetches a new one from the provider.
func (s *Service) Forecast(ctx context.Context) (Forecast, error) {
	if s.store != nil {
		if cached, err := s.store.GetFresh(s.request); err == nil {
			s.logger.Debug("forecast cache hit", zap.String("key", s.request.Key()))
			return cached, nil
		}
	}

	forecast, err := s.provider.Fetch(ctx, s.request)
	if err != nil {
		var perr *ProviderError
		if !errors.As(err, &perr) {
			err = &ProviderError{Provider: s.provider.Name(), Err: err}
		}
		return Forecast{}, err
	}
	if forecast.FetchedAt.IsZero() {
		forecast.FetchedAt = s.clock.Now().UTC()
	}

	if s.store != nil {
		s.store.Save(s.request, forecast)
	}
	return forecast, nil
}

// Latest returns the last fetched forecast, fresh or not.
func (s *Service) Latest() (Forecast, error) {
	if s.store == nil {
		return Forecast{}, fmt.Errorf("no forecast store configured")
	}
	return s.store.GetLatest(s.request)
}

// Preview renders a report for the given time without delivering it.
func (s *Service) Preview(ctx context.Context, now time.Time) (Report, error) {
	forecast, err := s.Forecast(ctx)
	if err != nil {
		return Report{}, err
	}
	return s.renderer.Render(forecast, now)
}
