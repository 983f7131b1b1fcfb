package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/meteo-bot/internal/weather"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func constantForecast(n int, temp, apparent, precip float64) weather.Forecast {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	h := weather.HourlySeries{
		Times:               make([]time.Time, n),
		Temperature:         make([]float64, n),
		ApparentTemperature: make([]float64, n),
		Precipitation:       make([]float64, n),
	}
	for i := 0; i < n; i++ {
		h.Times[i] = start.Add(time.Duration(i) * time.Hour)
		h.Temperature[i] = temp
		h.ApparentTemperature[i] = apparent
		h.Precipitation[i] = precip
	}
	return weather.Forecast{
		Current: weather.CurrentConditions{Time: start.Add(19 * time.Hour), Temperature: temp},
		Hourly:  h,
	}
}

func TestCaptionFormatting(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{
			name: "single digit day and month",
			now:  time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC),
			want: []string{"It's 10h07", "it's 5/03/2024:"},
		},
		{
			name: "two digit month",
			now:  time.Date(2024, 11, 20, 14, 45, 0, 0, time.UTC),
			want: []string{"It's 15h45", "it's 20/11/2024:"},
		},
		{
			name: "hour is not wrapped",
			now:  time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC),
			want: []string{"It's 24h30", "it's 31/01/2024:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Caption(tt.now, 10, DefaultCaptionStyle)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			assert.Contains(t, got, "The current temperature is: 10.00 °C\n")
		})
	}
}

func TestCaptionWithZone(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	style := CaptionStyle{HourOffset: 0, Zone: paris}

	got := Caption(time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC), -2.5, style)
	assert.Equal(t, "It's 10h07, it's 5/03/2024:\nThe current temperature is: -2.50 °C\n", got)
}

func TestSendingHour(t *testing.T) {
	now := time.Date(2024, 6, 1, 19, 30, 0, 0, time.UTC)
	assert.InDelta(t, 19.5, sendingHour(now, DefaultCaptionStyle), 1e-9)
}

func TestRenderProducesPNG(t *testing.T) {
	r := NewRenderer(DefaultCaptionStyle)
	now := time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)

	rep, err := r.Render(constantForecast(24, 10, 9, 0), now)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(rep.Chart, pngSignature))
	assert.Equal(t, ChartFilename, rep.Filename)
	assert.Equal(t, ChartContentType, rep.ContentType)
	assert.Contains(t, rep.Caption, "10.00 °C")
	assert.Contains(t, rep.Caption, "20h00")
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer(DefaultCaptionStyle)
	now := time.Date(2024, 6, 1, 8, 15, 0, 0, time.UTC)
	f := constantForecast(24, 4, 1.5, 0.3)
	f.Hourly.Temperature[12] = 17

	first, err := r.Render(f, now)
	require.NoError(t, err)
	second, err := r.Render(f, now)
	require.NoError(t, err)

	assert.Equal(t, first.Caption, second.Caption)
	assert.Equal(t, first.Chart, second.Chart)
}

func TestRenderRejectsBadSeries(t *testing.T) {
	r := NewRenderer(DefaultCaptionStyle)
	now := time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		rep, err := r.Render(weather.Forecast{}, now)

		var rerr *weather.RenderError
		require.ErrorAs(t, err, &rerr)
		assert.ErrorIs(t, err, weather.ErrEmptySeries)
		assert.Nil(t, rep.Chart)
	})

	t.Run("mismatched", func(t *testing.T) {
		f := constantForecast(24, 10, 9, 0)
		f.Hourly.Precipitation = f.Hourly.Precipitation[:10]

		rep, err := r.Render(f, now)
		assert.ErrorIs(t, err, weather.ErrSeriesMismatch)
		assert.Nil(t, rep.Chart)
	})
}
