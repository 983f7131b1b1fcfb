package report

import (
	"math"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/meteo-bot/internal/weather"
)

const (
	// ChartFilename is the attachment name used when posting the chart.
	ChartFilename    = "temperature_graph.png"
	ChartContentType = "image/png"

	chartTitle  = "Today's little weather forecast"
	chartWidth  = 1000
	chartHeight = 600
)

var (
	colorTemperature   = drawing.ColorFromHex("1f77b4")
	colorApparent      = drawing.ColorFromHex("ff7f0e")
	colorPrecipitation = drawing.ColorFromHex("2ca02c")
	colorMarker        = drawing.ColorFromHex("ff0000")
	colorZero          = drawing.ColorFromHex("000000")
)

// Renderer draws the daily forecast chart and its caption.
type Renderer struct {
	style CaptionStyle
}

// NewRenderer creates a Renderer using the given caption style.
func NewRenderer(style CaptionStyle) *Renderer {
	return &Renderer{style: style}
}

// Render validates the hourly series, draws the chart and formats the caption.
// It fails with *weather.RenderError and no image bytes on an empty or
// inconsistent series.
func (r *Renderer) Render(f weather.Forecast, now time.Time) (weather.Report, error) {
	if err := f.Hourly.Validate(); err != nil {
		return weather.Report{}, &weather.RenderError{Err: err}
	}

	png, err := r.renderChart(f.Hourly, sendingHour(now, r.style))
	if err != nil {
		return weather.Report{}, &weather.RenderError{Err: err}
	}

	return weather.Report{
		Chart:       png,
		Caption:     Caption(now, f.Current.Temperature, r.style),
		Filename:    ChartFilename,
		ContentType: ChartContentType,
	}, nil
}

func (r *Renderer) renderChart(h weather.HourlySeries, marker float64) ([]byte, error) {
	n := h.Len()
	hours := make([]float64, n)
	for i := range hours {
		hours[i] = float64(i)
	}

	stats := weather.Summarize(h)
	pad := math.Max((stats.High-stats.Low)*0.05, 1)
	low, high := stats.Low-pad, stats.High+pad

	xMax := math.Max(float64(n-1), math.Ceil(marker))
	if xMax < 1 {
		xMax = 1
	}
	ticks := make([]chart.Tick, 0, int(xMax)+1)
	for i := 0; i <= int(xMax); i++ {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: strconv.Itoa(i)})
	}

	graph := chart.Chart{
		Title:  chartTitle,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Hour",
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Temperature (°C)",
			Range: &chart.ContinuousRange{Min: low, Max: high},
			GridMajorStyle: chart.Style{
				StrokeColor: colorZero,
				StrokeWidth: 1,
			},
			GridLines: []chart.GridLine{{Value: 0}},
		},
		Series: []chart.Series{
			lineSeries("Temperature (°C)", hours, h.Temperature, colorTemperature),
			lineSeries("Apparent temperature (°C)", hours, h.ApparentTemperature, colorApparent),
			lineSeries("Precipitation (mm)", hours, h.Precipitation, colorPrecipitation),
			chart.ContinuousSeries{
				Name:    "Sending time",
				XValues: []float64{marker, marker},
				YValues: []float64{low, high},
				Style: chart.Style{
					StrokeColor:     colorMarker,
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{6, 4},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}

	// The pooled buffer is reused after Put, so hand out a copy.
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

func lineSeries(name string, xs, ys []float64, color drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: 2,
		},
	}
}

var _ weather.Renderer = (*Renderer)(nil)
