package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	httpapi "github.com/i474232898/meteo-bot/internal/api/http"
	"github.com/i474232898/meteo-bot/internal/clock"
	"github.com/i474232898/meteo-bot/internal/config"
	"github.com/i474232898/meteo-bot/internal/geocode"
	"github.com/i474232898/meteo-bot/internal/logging"
	"github.com/i474232898/meteo-bot/internal/notifier"
	"github.com/i474232898/meteo-bot/internal/report"
	"github.com/i474232898/meteo-bot/internal/scheduler"
	"github.com/i474232898/meteo-bot/internal/store"
	"github.com/i474232898/meteo-bot/internal/weather"
	"github.com/i474232898/meteo-bot/internal/weather/providers"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("meteo-bot stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lat, lon := cfg.Forecast.Coordinates()
	if cfg.Forecast.NeedsGeocoding() {
		loc, err := geocode.Resolve(cfg.Forecast.GeocoderAPIKey.Unmask(), cfg.Forecast.City, cfg.Forecast.Country)
		if err != nil {
			return err
		}
		lat, lon = loc.Latitude, loc.Longitude
		lg.Info("resolved location",
			zap.String("city", cfg.Forecast.City),
			zap.Float64("latitude", lat),
			zap.Float64("longitude", lon),
		)
	}

	scheduleLoc, err := cfg.Schedule.Location()
	if err != nil {
		return err
	}
	captionLoc, err := cfg.Caption.Location()
	if err != nil {
		return err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.Forecast.HTTPTimeout,
	}

	provider := providers.NewOpenMeteoProvider(httpClient, cfg.Forecast.BaseURL, providers.BackoffConfig{
		MaxRetries:      cfg.Forecast.MaxRetries,
		InitialInterval: cfg.Forecast.BackoffInitial,
		MaxInterval:     cfg.Forecast.BackoffMax,
	})
	memStore := store.NewMemoryStore(cfg.Forecast.CacheTTL, clock.Real{})
	renderer := report.NewRenderer(report.CaptionStyle{
		HourOffset: cfg.Caption.HourOffset,
		Zone:       captionLoc,
	})

	bot, err := notifier.NewBot(cfg.Discord.BotToken.Unmask(), lg)
	if err != nil {
		return err
	}
	discord := notifier.NewDiscord(bot.Session(), cfg.Discord.ChannelID, lg)

	req := weather.ForecastRequest{
		Latitude:     lat,
		Longitude:    lon,
		Timezone:     cfg.Forecast.Timezone,
		ForecastDays: cfg.Forecast.Days,
	}
	service := weather.NewService(req, provider, memStore, renderer, discord, clock.Real{}, lg)

	sched := scheduler.New(scheduler.Plan{
		Hour:     cfg.Schedule.Hour,
		Minute:   cfg.Schedule.Minute,
		Second:   cfg.Schedule.Second,
		Location: scheduleLoc,
		Period:   scheduler.DefaultPeriod,
	}, scheduler.NewCronAlarm(scheduleLoc), service, clock.Real{}, lg)

	// Manual fires from chat and HTTP share one cooldown.
	limiter := rate.NewLimiter(rate.Every(cfg.Schedule.ManualCooldown), 1)

	router := notifier.NewRouter(cfg.Discord.CommandPrefix, bot.Session(), lg)
	notifier.RegisterCommands(router, sched, limiter)
	bot.AddRouter(router.Handler(ctx))

	if err := bot.Open(); err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			lg.Warn("error closing discord session", zap.Error(err))
		}
	}()

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTPEnabled() {
		app := newApp(sched, service, limiter)

		g.Go(func() error {
			lg.Info("ops api listening", zap.String("port", cfg.Port))
			if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		return nil
	})

	return g.Wait()
}

func newApp(sched *scheduler.Scheduler, service *weather.Service, limiter *rate.Limiter) *fiber.App {
	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "meteo-bot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * time.Minute,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "meteo-bot",
		})
	})

	httpapi.RegisterRoutes(app, sched, service, limiter, clock.Real{})
	return app
}
