package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func series(n int, step time.Duration) HourlySeries {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	h := HourlySeries{
		Times:               make([]time.Time, n),
		Temperature:         make([]float64, n),
		ApparentTemperature: make([]float64, n),
		Precipitation:       make([]float64, n),
	}
	for i := 0; i < n; i++ {
		h.Times[i] = start.Add(time.Duration(i) * step)
	}
	return h
}

func TestHourlySeriesValidate(t *testing.T) {
	assert.ErrorIs(t, HourlySeries{}.Validate(), ErrEmptySeries)
	assert.NoError(t, series(1, time.Hour).Validate())
	assert.NoError(t, series(24, time.Hour).Validate())

	short := series(24, time.Hour)
	short.ApparentTemperature = short.ApparentTemperature[:23]
	assert.ErrorIs(t, short.Validate(), ErrSeriesMismatch)

	gap := series(24, time.Hour)
	gap.Times[5] = gap.Times[5].Add(time.Minute)
	assert.ErrorIs(t, gap.Validate(), ErrIrregularSeries)

	backwards := series(3, -time.Hour)
	assert.ErrorIs(t, backwards.Validate(), ErrIrregularSeries)
}

func TestSummarize(t *testing.T) {
	h := series(4, time.Hour)
	h.Temperature = []float64{-2, 4, 8, 6}
	h.ApparentTemperature = []float64{-5, 2, 7, 5}
	h.Precipitation = []float64{0, 1.5, 0.5, 0}

	s := Summarize(h)
	assert.Equal(t, 4, s.Points)
	assert.Equal(t, -2.0, s.TemperatureMin)
	assert.Equal(t, 8.0, s.TemperatureMax)
	assert.InDelta(t, 4.0, s.TemperatureMean, 1e-9)
	assert.InDelta(t, 2.0, s.PrecipitationTotal, 1e-9)
	assert.Equal(t, -5.0, s.Low)
	assert.Equal(t, 8.0, s.High)

	assert.Equal(t, SeriesStats{}, Summarize(HourlySeries{}))
}

func TestForecastRequestKey(t *testing.T) {
	r := ForecastRequest{Latitude: 48.112, Longitude: -1.6743, Timezone: "Europe/Berlin", ForecastDays: 1}
	assert.Equal(t, "48.1120:-1.6743:Europe/Berlin:1", r.Key())
}
