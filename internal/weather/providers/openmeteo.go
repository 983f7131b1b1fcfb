package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/meteo-bot/internal/weather"
)

// The order of variables matters: responses are parsed in the same order.
var (
	openMeteoCurrent = []string{"temperature_2m"}
	openMeteoHourly  = []string{"temperature_2m", "apparent_temperature", "precipitation"}
	openMeteoDaily   = []string{"temperature_2m_max", "temperature_2m_min", "daylight_duration", "precipitation_sum"}
)

// DefaultOpenMeteoBaseURL is the public Open-Meteo API host.
const DefaultOpenMeteoBaseURL = "https://api.open-meteo.com"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo's
// Météo-France endpoint.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider builds a provider around the process-wide HTTP client.
// An empty baseURL selects DefaultOpenMeteoBaseURL.
func NewOpenMeteoProvider(client *http.Client, baseURL string, backoff BackoffConfig) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: strings.TrimRight(baseURL, "/") + "/v1/meteofrance",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoResponse struct {
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	Timezone         string `json:"timezone"`
	Current          struct {
		Time        int64    `json:"time"`
		Temperature *float64 `json:"temperature_2m"`
	} `json:"current"`
	// Values are pointers because the provider sends null for hours a model
	// does not cover.
	Hourly struct {
		Time                []int64    `json:"time"`
		Temperature         []*float64 `json:"temperature_2m"`
		ApparentTemperature []*float64 `json:"apparent_temperature"`
		Precipitation       []*float64 `json:"precipitation"`
	} `json:"hourly"`
	Daily struct {
		Time             []int64    `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		TemperatureMin   []*float64 `json:"temperature_2m_min"`
		DaylightDuration []*float64 `json:"daylight_duration"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch retrieves the forecast and validates that the hourly arrays line up.
// Every failure is reported as a *weather.ProviderError.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, req weather.ForecastRequest) (weather.Forecast, error) {
	forecast, err := p.fetch(ctx, req)
	if err != nil {
		return weather.Forecast{}, &weather.ProviderError{Provider: p.name, Err: err}
	}
	return forecast, nil
}

func (p *OpenMeteoProvider) fetch(ctx context.Context, req weather.ForecastRequest) (weather.Forecast, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(req.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(req.Longitude, 'f', -1, 64))
		values.Set("current", strings.Join(openMeteoCurrent, ","))
		values.Set("hourly", strings.Join(openMeteoHourly, ","))
		values.Set("daily", strings.Join(openMeteoDaily, ","))
		values.Set("timezone", req.Timezone)
		values.Set("forecast_days", strconv.Itoa(req.ForecastDays))
		values.Set("timeformat", "unixtime")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Forecast{}, fmt.Errorf("decode response: %w", err)
	}

	return payload.toForecast(req)
}

func (r openMeteoResponse) toForecast(req weather.ForecastRequest) (weather.Forecast, error) {
	loc := r.location(req.Timezone)

	if r.Current.Temperature == nil {
		return weather.Forecast{}, fmt.Errorf("response has no current %s", openMeteoCurrent[0])
	}

	hourly := weather.HourlySeries{Times: unixTimes(r.Hourly.Time, loc)}
	var err error
	if hourly.Temperature, err = floats("hourly.temperature_2m", r.Hourly.Temperature); err != nil {
		return weather.Forecast{}, err
	}
	if hourly.ApparentTemperature, err = floats("hourly.apparent_temperature", r.Hourly.ApparentTemperature); err != nil {
		return weather.Forecast{}, err
	}
	if hourly.Precipitation, err = floats("hourly.precipitation", r.Hourly.Precipitation); err != nil {
		return weather.Forecast{}, err
	}
	if err := hourly.Validate(); err != nil {
		return weather.Forecast{}, err
	}

	daily, err := r.dailySummaries(loc)
	if err != nil {
		return weather.Forecast{}, err
	}

	return weather.Forecast{
		Request:   req,
		FetchedAt: time.Now().UTC(),
		Current: weather.CurrentConditions{
			Time:        time.Unix(r.Current.Time, 0).In(loc),
			Temperature: *r.Current.Temperature,
		},
		Hourly: hourly,
		Daily:  daily,
	}, nil
}

// location resolves the forecast timezone, falling back to the fixed offset
// reported by the provider when the zone database lacks the name.
func (r openMeteoResponse) location(requested string) *time.Location {
	for _, name := range []string{r.Timezone, requested} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone(r.Timezone, r.UTCOffsetSeconds)
}

func (r openMeteoResponse) dailySummaries(loc *time.Location) ([]weather.DailySummary, error) {
	d := r.Daily
	n := len(d.Time)
	if n == 0 {
		return nil, nil
	}
	if len(d.TemperatureMax) != n || len(d.TemperatureMin) != n ||
		len(d.DaylightDuration) != n || len(d.PrecipitationSum) != n {
		return nil, fmt.Errorf("%w: daily block", weather.ErrSeriesMismatch)
	}

	tmax, err := floats("daily.temperature_2m_max", d.TemperatureMax)
	if err != nil {
		return nil, err
	}
	tmin, err := floats("daily.temperature_2m_min", d.TemperatureMin)
	if err != nil {
		return nil, err
	}
	daylight, err := floats("daily.daylight_duration", d.DaylightDuration)
	if err != nil {
		return nil, err
	}
	precip, err := floats("daily.precipitation_sum", d.PrecipitationSum)
	if err != nil {
		return nil, err
	}

	out := make([]weather.DailySummary, n)
	for i := range d.Time {
		out[i] = weather.DailySummary{
			Date:             time.Unix(d.Time[i], 0).In(loc),
			TemperatureMax:   tmax[i],
			TemperatureMin:   tmin[i],
			DaylightDuration: time.Duration(daylight[i] * float64(time.Second)),
			PrecipitationSum: precip[i],
		}
	}
	return out, nil
}

// floats dereferences a provider array, failing on the first null.
func floats(name string, in []*float64) ([]float64, error) {
	out := make([]float64, len(in))
	for i, v := range in {
		if v == nil {
			return nil, fmt.Errorf("%w: %s[%d] is null", weather.ErrMissingValue, name, i)
		}
		out[i] = *v
	}
	return out, nil
}

func unixTimes(secs []int64, loc *time.Location) []time.Time {
	out := make([]time.Time, len(secs))
	for i, s := range secs {
		out[i] = time.Unix(s, 0).In(loc)
	}
	return out
}

var _ weather.Provider = (*OpenMeteoProvider)(nil)
