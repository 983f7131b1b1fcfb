package weather

import (
	"fmt"
	"time"
)

// ForecastRequest is the fixed query sent to the provider. It is built once at
// startup and never modified.
type ForecastRequest struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Timezone     string  `json:"timezone"`
	ForecastDays int     `json:"forecastDays"`
}

// Key returns a canonical string key for indexing this request in stores.
func (r ForecastRequest) Key() string {
	return fmt.Sprintf("%.4f:%.4f:%s:%d", r.Latitude, r.Longitude, r.Timezone, r.ForecastDays)
}

// CurrentConditions holds the provider's "current" block.
type CurrentConditions struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperatureC"`
}

// HourlySeries holds parallel hourly arrays. Index i of every slice refers to
// Times[i].
type HourlySeries struct {
	Times               []time.Time `json:"times"`
	Temperature         []float64   `json:"temperatureC"`
	ApparentTemperature []float64   `json:"apparentTemperatureC"`
	Precipitation       []float64   `json:"precipitationMm"`
}

// Len returns the number of hourly points.
func (h HourlySeries) Len() int {
	return len(h.Times)
}

// Validate checks that the series is non-empty, that all slices have the same
// length and that timestamps advance by a constant positive step.
func (h HourlySeries) Validate() error {
	n := len(h.Times)
	if n == 0 {
		return ErrEmptySeries
	}
	if len(h.Temperature) != n || len(h.ApparentTemperature) != n || len(h.Precipitation) != n {
		return fmt.Errorf("%w: times=%d temperature=%d apparent=%d precipitation=%d",
			ErrSeriesMismatch, n, len(h.Temperature), len(h.ApparentTemperature), len(h.Precipitation))
	}
	if n < 2 {
		return nil
	}
	step := h.Times[1].Sub(h.Times[0])
	if step <= 0 {
		return fmt.Errorf("%w: non-increasing timestamp at index 1", ErrIrregularSeries)
	}
	for i := 2; i < n; i++ {
		if h.Times[i].Sub(h.Times[i-1]) != step {
			return fmt.Errorf("%w: step changes at index %d", ErrIrregularSeries, i)
		}
	}
	return nil
}

// DailySummary is one entry of the provider's "daily" block.
type DailySummary struct {
	Date             time.Time     `json:"date"`
	TemperatureMax   float64       `json:"temperatureMaxC"`
	TemperatureMin   float64       `json:"temperatureMinC"`
	DaylightDuration time.Duration `json:"daylightDuration"`
	PrecipitationSum float64       `json:"precipitationSumMm"`
}

// Forecast is the normalized provider response.
type Forecast struct {
	Request   ForecastRequest   `json:"request"`
	FetchedAt time.Time         `json:"fetchedAt"` // always UTC
	Current   CurrentConditions `json:"current"`
	Hourly    HourlySeries      `json:"hourly"`
	Daily     []DailySummary    `json:"daily,omitempty"`
}

// Report is a rendered chart plus its caption, ready for delivery.
type Report struct {
	Chart       []byte
	Caption     string
	Filename    string
	ContentType string
}

// Trigger tells what started a pipeline run.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)
