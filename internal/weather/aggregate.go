package weather

import "math"

// SeriesStats summarizes an hourly series.
type SeriesStats struct {
	Points             int     `json:"points"`
	TemperatureMin     float64 `json:"temperatureMinC"`
	TemperatureMax     float64 `json:"temperatureMaxC"`
	TemperatureMean    float64 `json:"temperatureMeanC"`
	PrecipitationTotal float64 `json:"precipitationTotalMm"`

	// Low and High bound every plotted value, including zero.
	Low  float64 `json:"-"`
	High float64 `json:"-"`
}

// Summarize combines the hourly values into a SeriesStats. An empty series
// yields the zero value.
func Summarize(h HourlySeries) SeriesStats {
	if len(h.Temperature) == 0 {
		return SeriesStats{}
	}

	stats := SeriesStats{
		Points:         len(h.Temperature),
		TemperatureMin: math.Inf(1),
		TemperatureMax: math.Inf(-1),
		Low:            0,
		High:           0,
	}

	var sumTemp float64
	for _, t := range h.Temperature {
		sumTemp += t
		stats.TemperatureMin = math.Min(stats.TemperatureMin, t)
		stats.TemperatureMax = math.Max(stats.TemperatureMax, t)
	}
	stats.TemperatureMean = sumTemp / float64(len(h.Temperature))

	for _, p := range h.Precipitation {
		stats.PrecipitationTotal += p
	}

	for _, values := range [][]float64{h.Temperature, h.ApparentTemperature, h.Precipitation} {
		for _, v := range values {
			stats.Low = math.Min(stats.Low, v)
			stats.High = math.Max(stats.High, v)
		}
	}

	return stats
}
