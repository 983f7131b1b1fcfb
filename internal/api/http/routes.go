package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/i474232898/meteo-bot/internal/clock"
	"github.com/i474232898/meteo-bot/internal/scheduler"
	"github.com/i474232898/meteo-bot/internal/store"
	"github.com/i474232898/meteo-bot/internal/weather"
)

var validate = validator.New()

// Schedule is the part of the scheduler exposed over HTTP.
type Schedule interface {
	NextFire() time.Time
	State() scheduler.State
	Trigger(ctx context.Context) error
}

// Forecasts gives read access to the pipeline's forecast and renderer.
type Forecasts interface {
	Latest() (weather.Forecast, error)
	Preview(ctx context.Context, now time.Time) (weather.Report, error)
}

// ErrorHandler renders every error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. limiter is
// shared with the chat command so both surfaces respect the same cooldown; a
// nil limiter disables it.
func RegisterRoutes(app *fiber.App, sched Schedule, forecasts Forecasts, limiter *rate.Limiter, clk clock.Clock) {
	if clk == nil {
		clk = clock.Real{}
	}
	v1 := app.Group("/api/v1")

	v1.Get("/schedule", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"next_fire": sched.NextFire().Format(time.RFC3339),
			"state":     sched.State(),
		})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		forecast, err := forecasts.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast fetched yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast")
		}
		return c.JSON(forecast)
	})

	v1.Get("/forecast/chart.png", func(c *fiber.Ctx) error {
		var q chartQuery
		at, err := q.bind(c, clk)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rep, err := forecasts.Preview(c.UserContext(), at)
		if err != nil {
			return pipelineError(err)
		}

		c.Set(fiber.HeaderContentType, rep.ContentType)
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+rep.Filename+`"`)
		return c.Send(rep.Chart)
	})

	v1.Post("/reports", func(c *fiber.Ctx) error {
		if limiter != nil && !limiter.Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "a forecast was requested moments ago")
		}
		if err := sched.Trigger(c.UserContext()); err != nil {
			return pipelineError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":    "sent",
			"next_fire": sched.NextFire().Format(time.RFC3339),
		})
	})
}

// pipelineError maps pipeline failures to HTTP errors.
func pipelineError(err error) error {
	var (
		perr *weather.ProviderError
		derr *weather.DeliveryError
	)
	switch {
	case errors.Is(err, weather.ErrPipelineBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.As(err, &perr), errors.As(err, &derr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// chartQuery holds query parameters for the chart endpoint.
type chartQuery struct {
	At string `query:"at" validate:"omitempty,max=32"`
}

// bind parses the query and returns the requested render time, defaulting
// to now.
func (q *chartQuery) bind(c *fiber.Ctx, clk clock.Clock) (time.Time, error) {
	if err := c.QueryParser(q); err != nil {
		return time.Time{}, err
	}
	if err := validate.Struct(q); err != nil {
		return time.Time{}, err
	}
	if q.At == "" {
		return clk.Now(), nil
	}
	return parseTime(q.At)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
