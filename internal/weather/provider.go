package weather

import (
	"context"
	"time"
)

// Provider abstracts a forecast data source (Open-Meteo in production).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req ForecastRequest) (Forecast, error)
}

// Renderer turns a forecast into a deliverable report.
type Renderer interface {
	Render(f Forecast, now time.Time) (Report, error)
}

// Notifier posts a report to the configured chat channel.
type Notifier interface {
	Deliver(ctx context.Context, r Report) error
}

// Store is the contract the in-memory forecast cache must satisfy.
type Store interface {
	Save(req ForecastRequest, f Forecast)
	GetFresh(req ForecastRequest) (Forecast, error)
	GetLatest(req ForecastRequest) (Forecast, error)
}
