package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/i474232898/meteo-bot/internal/weather"
)

// Forecaster is what the commands need from the scheduler.
type Forecaster interface {
	Trigger(ctx context.Context) error
	NextFire() time.Time
}

// RegisterCommands wires hello, meteo and next into r. limiter throttles
// manual forecasts; a nil limiter disables throttling.
func RegisterCommands(r *Router, f Forecaster, limiter *rate.Limiter) {
	r.Handle("hello", func(context.Context, *discordgo.MessageCreate) (string, error) {
		return "Hello you", nil
	})

	r.Handle("meteo", func(ctx context.Context, _ *discordgo.MessageCreate) (string, error) {
		if limiter != nil && !limiter.Allow() {
			return "A forecast was requested moments ago, try again in a little while.", nil
		}
		err := f.Trigger(ctx)
		switch {
		case err == nil:
			return "", nil
		case errors.Is(err, weather.ErrPipelineBusy):
			return "A forecast is already on its way.", nil
		default:
			return "", fmt.Errorf("could not send the forecast: %w", err)
		}
	})

	r.Handle("next", func(context.Context, *discordgo.MessageCreate) (string, error) {
		next := f.NextFire()
		if next.IsZero() {
			return "No forecast is scheduled.", nil
		}
		return fmt.Sprintf("Next forecast: %s", next.Format("02/01/2006 15:04 MST")), nil
	})
}
