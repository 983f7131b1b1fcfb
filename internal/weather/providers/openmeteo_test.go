package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/meteo-bot/internal/weather"
)

var rennes = weather.ForecastRequest{
	Latitude:     48.112,
	Longitude:    -1.6743,
	Timezone:     "Europe/Berlin",
	ForecastDays: 1,
}

func fastBackoff() BackoffConfig {
	return BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

// hourlyPayload builds an Open-Meteo style body with n hourly points starting
// at midnight UTC on 2024-06-01.
func hourlyPayload(n int) map[string]any {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	times := make([]int64, n)
	temps := make([]float64, n)
	apparent := make([]float64, n)
	precip := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = start + int64(i*3600)
		temps[i] = 10
		apparent[i] = 9
	}
	return map[string]any{
		"utc_offset_seconds": 7200,
		"timezone":           "Europe/Berlin",
		"current":            map[string]any{"time": start + 19*3600, "interval": 900, "temperature_2m": 10.0},
		"hourly": map[string]any{
			"time":                 times,
			"temperature_2m":       temps,
			"apparent_temperature": apparent,
			"precipitation":        precip,
		},
		"daily": map[string]any{
			"time":               []int64{start},
			"temperature_2m_max": []float64{14.2},
			"temperature_2m_min": []float64{6.1},
			"daylight_duration":  []float64{57600},
			"precipitation_sum":  []float64{0},
		},
	}
}

func TestOpenMeteoFetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/meteofrance", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"latitude":      q.Get("latitude"),
			"longitude":     q.Get("longitude"),
			"hourly":        q.Get("hourly"),
			"current":       q.Get("current"),
			"timezone":      q.Get("timezone"),
			"forecast_days": q.Get("forecast_days"),
			"timeformat":    q.Get("timeformat"),
		}
		_ = json.NewEncoder(w).Encode(hourlyPayload(24))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, fastBackoff())
	f, err := p.Fetch(context.Background(), rennes)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"latitude":      "48.112",
		"longitude":     "-1.6743",
		"hourly":        "temperature_2m,apparent_temperature,precipitation",
		"current":       "temperature_2m",
		"timezone":      "Europe/Berlin",
		"forecast_days": "1",
		"timeformat":    "unixtime",
	}, gotQuery)

	assert.Equal(t, 10.0, f.Current.Temperature)
	assert.Equal(t, 24, f.Hourly.Len())
	assert.Equal(t, "Europe/Berlin", f.Hourly.Times[0].Location().String())
	assert.Equal(t, time.Hour, f.Hourly.Times[1].Sub(f.Hourly.Times[0]))
	require.Len(t, f.Daily, 1)
	assert.Equal(t, 16*time.Hour, f.Daily[0].DaylightDuration)
	assert.Equal(t, rennes, f.Request)
}

func TestOpenMeteoFetchRejectsMismatchedSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := hourlyPayload(24)
		hourly := body["hourly"].(map[string]any)
		hourly["precipitation"] = []float64{0, 0, 0}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, fastBackoff())
	f, err := p.Fetch(context.Background(), rennes)

	var perr *weather.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, weather.ErrSeriesMismatch)
	assert.Equal(t, weather.Forecast{}, f)
}

func TestOpenMeteoFetchRejectsNullValues(t *testing.T) {
	tests := map[string]func(body map[string]any){
		"hourly temperature": func(body map[string]any) {
			body["hourly"].(map[string]any)["temperature_2m"] = []any{10, nil, 12}
			body["hourly"].(map[string]any)["time"] = []int64{1717200000, 1717203600, 1717207200}
			body["hourly"].(map[string]any)["apparent_temperature"] = []float64{9, 9, 9}
			body["hourly"].(map[string]any)["precipitation"] = []float64{0, 0, 0}
		},
		"hourly precipitation": func(body map[string]any) {
			precip := make([]any, 24)
			for i := range precip {
				precip[i] = 0.0
			}
			precip[23] = nil
			body["hourly"].(map[string]any)["precipitation"] = precip
		},
		"daily maximum": func(body map[string]any) {
			body["daily"].(map[string]any)["temperature_2m_max"] = []any{nil}
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body := hourlyPayload(24)
				mutate(body)
				_ = json.NewEncoder(w).Encode(body)
			}))
			defer srv.Close()

			p := NewOpenMeteoProvider(srv.Client(), srv.URL, fastBackoff())
			f, err := p.Fetch(context.Background(), rennes)

			var perr *weather.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.ErrorIs(t, err, weather.ErrMissingValue)
			assert.Equal(t, weather.Forecast{}, f)
		})
	}
}

func TestOpenMeteoFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(hourlyPayload(24))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, fastBackoff())
	_, err := p.Fetch(context.Background(), rennes)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenMeteoFetchDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90°."}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, fastBackoff())
	_, err := p.Fetch(context.Background(), rennes)

	var perr *weather.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, errUnexpected))
	assert.Contains(t, err.Error(), "Latitude must be in range")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenMeteoFetchGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, fastBackoff())
	_, err := p.Fetch(context.Background(), rennes)
	require.Error(t, err)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(4), calls.Load())
}

func TestBackoffDelayIsCapped(t *testing.T) {
	cfg := BackoffConfig{MaxRetries: 5, InitialInterval: 200 * time.Millisecond, MaxInterval: time.Second}

	assert.Equal(t, 200*time.Millisecond, backoffDelay(cfg, 0))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(cfg, 1))
	assert.Equal(t, 800*time.Millisecond, backoffDelay(cfg, 2))
	assert.Equal(t, time.Second, backoffDelay(cfg, 3))
}
